package forge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v68/github"
)

type gitHub struct {
	client  *github.Client
	rawBase string // prefix for raw file URLs
}

// NewGitHub creates a GitHub forge. A BaseURL selects a GitHub Enterprise
// instance; its raw files are served from the web host.
func NewGitHub(opts Options) (Forge, error) {
	opts = opts.withDefaults()

	gh := github.NewClient(opts.HTTPClient)
	if opts.Token != "" {
		gh = gh.WithAuthToken(opts.Token)
	}

	rawBase := "https://raw.githubusercontent.com"
	if opts.BaseURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(opts.BaseURL, opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("configuring github base url: %w", err)
		}
		u, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing github base url: %w", err)
		}
		rawBase = u.Scheme + "://" + u.Host
	}

	return newClient(&gitHub{client: gh, rawBase: rawBase}, opts), nil
}

// ownerRepo trims namespaces GitHub does not have, e.g. an Enterprise URL
// pointing below the repository root.
func (g *gitHub) ownerRepo(repo Repo) (string, string) {
	segments := strings.Split(repo.FullName(), "/")
	if len(segments) > 2 {
		return segments[0], segments[1]
	}
	return repo.Owner, repo.Name
}

func (g *gitHub) defaultBranch(ctx context.Context, repo Repo) (string, error) {
	owner, name := g.ownerRepo(repo)
	r, _, err := g.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return "", wrapGitHubError(err, "getting repository %s", repo)
	}
	return r.GetDefaultBranch(), nil
}

func (g *gitHub) readme(ctx context.Context, repo Repo, branch string) (string, error) {
	owner, name := g.ownerRepo(repo)
	rc, _, err := g.client.Repositories.GetReadme(ctx, owner, name, &github.RepositoryContentGetOptions{Ref: branch})
	if err != nil {
		if isGitHubNotFound(err) {
			slog.DebugContext(ctx, "repository has no readme", "repo", repo.FullName())
			return "", nil
		}
		return "", wrapGitHubError(err, "getting readme for %s", repo)
	}

	content, err := rc.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding readme for %s: %w", repo, err)
	}
	return content, nil
}

func (g *gitHub) tree(ctx context.Context, repo Repo, branch string) ([]treeEntry, error) {
	owner, name := g.ownerRepo(repo)
	t, _, err := g.client.Git.GetTree(ctx, owner, name, branch, true)
	if err != nil {
		return nil, wrapGitHubError(err, "listing tree for %s", repo)
	}
	if t.GetTruncated() {
		slog.WarnContext(ctx, "github truncated the repository tree", "repo", repo.FullName())
	}

	entries := make([]treeEntry, 0, len(t.Entries))
	for _, e := range t.Entries {
		if e.GetType() != "blob" {
			continue
		}
		entries = append(entries, treeEntry{Path: e.GetPath(), SHA: e.GetSHA()})
	}
	return entries, nil
}

func (g *gitHub) blob(ctx context.Context, repo Repo, _ string, entry treeEntry) ([]byte, error) {
	owner, name := g.ownerRepo(repo)
	data, _, err := g.client.Git.GetBlobRaw(ctx, owner, name, entry.SHA)
	if err != nil {
		return nil, wrapGitHubError(err, "downloading %s", entry.Path)
	}
	return data, nil
}

func (g *gitHub) rawURL(repo Repo, branch, filePath string) string {
	owner, name := g.ownerRepo(repo)
	if g.rawBase == "https://raw.githubusercontent.com" {
		return fmt.Sprintf("%s/%s/%s/%s/%s", g.rawBase, owner, name, branch, escapePath(filePath))
	}
	return fmt.Sprintf("%s/%s/%s/raw/%s/%s", g.rawBase, owner, name, branch, escapePath(filePath))
}

func isGitHubNotFound(err error) bool {
	var errResp *github.ErrorResponse
	return errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound
}

func wrapGitHubError(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if isGitHubNotFound(err) {
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
