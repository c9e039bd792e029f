package forge

import (
	"fmt"
	"net/url"
	"strings"
)

// Repo identifies a repository on a forge. Owner holds every namespace segment,
// so GitLab subgroups appear as "group/subgroup".
type Repo struct {
	Host  string
	Owner string
	Name  string
	URL   string // canonical https URL without .git
}

func (r Repo) FullName() string {
	return r.Owner + "/" + r.Name
}

// DirName is the directory name used for outputs: "owner/repo" becomes "owner__repo".
func (r Repo) DirName() string {
	return strings.ReplaceAll(r.FullName(), "/", "__")
}

func (r Repo) String() string {
	return r.FullName()
}

// ParseRepoURL parses https://host/owner/repo URLs, with or without a .git suffix
// or trailing slash. github.com URLs keep only the first two path segments, so
// links like /owner/repo/tree/main work; other hosts keep every segment before "/-/".
func ParseRepoURL(raw string) (Repo, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Repo{}, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Repo{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Repo{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return Repo{}, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	p := u.Path
	if before, _, ok := strings.Cut(p, "/-/"); ok {
		p = before
	}
	p = strings.Trim(p, "/")
	p = strings.TrimSuffix(p, ".git")

	var segments []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	host := strings.ToLower(u.Host)
	if host == "www.github.com" {
		host = "github.com"
	}
	if host == "github.com" && len(segments) > 2 {
		segments = segments[:2]
	}
	if len(segments) < 2 {
		return Repo{}, fmt.Errorf("%w: expected owner and repository in %q", ErrInvalidURL, raw)
	}

	repo := Repo{
		Host:  host,
		Owner: strings.Join(segments[:len(segments)-1], "/"),
		Name:  strings.TrimSuffix(segments[len(segments)-1], ".git"),
	}
	repo.URL = "https://" + repo.Host + "/" + repo.FullName()
	return repo, nil
}
