package forge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"
)

type gitLab struct {
	client  *gitlab.Client
	webBase string
}

// NewGitLab creates a GitLab forge. BaseURL is the instance URL, with or
// without the /api/v4 suffix.
func NewGitLab(opts Options) (Forge, error) {
	opts = opts.withDefaults()

	webBase := "https://gitlab.com"
	if opts.BaseURL != "" {
		webBase = strings.TrimSuffix(strings.TrimSuffix(opts.BaseURL, "/"), "/api/v4")
	}

	client, err := gitlab.NewClient(
		opts.Token,
		gitlab.WithBaseURL(webBase+"/api/v4"),
		gitlab.WithHTTPClient(opts.HTTPClient),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}

	return newClient(&gitLab{client: client, webBase: webBase}, opts), nil
}

func (g *gitLab) defaultBranch(ctx context.Context, repo Repo) (string, error) {
	project, _, err := g.client.Projects.GetProject(repo.FullName(), &gitlab.GetProjectOptions{}, gitlab.WithContext(ctx))
	if err != nil {
		return "", wrapGitLabError(err, "getting project %s", repo)
	}
	return project.DefaultBranch, nil
}

func (g *gitLab) readme(ctx context.Context, repo Repo, branch string) (string, error) {
	nodes, _, err := g.client.Repositories.ListTree(repo.FullName(), &gitlab.ListTreeOptions{
		Ref:         gitlab.Ptr(branch),
		ListOptions: gitlab.ListOptions{Page: 1, PerPage: 100},
	}, gitlab.WithContext(ctx))
	if err != nil {
		return "", wrapGitLabError(err, "listing root of %s", repo)
	}

	name := pickReadme(nodes)
	if name == "" {
		return "", nil
	}

	data, _, err := g.client.RepositoryFiles.GetRawFile(repo.FullName(), name, &gitlab.GetRawFileOptions{
		Ref: gitlab.Ptr(branch),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return "", wrapGitLabError(err, "downloading %s", name)
	}
	return string(data), nil
}

// pickReadme prefers README.md, then any file named README*.
func pickReadme(nodes []*gitlab.TreeNode) string {
	var fallback string
	for _, n := range nodes {
		if n.Type != "blob" {
			continue
		}
		lower := strings.ToLower(n.Name)
		if lower == "readme.md" {
			return n.Path
		}
		if fallback == "" && strings.HasPrefix(lower, "readme") {
			fallback = n.Path
		}
	}
	return fallback
}

func (g *gitLab) tree(ctx context.Context, repo Repo, branch string) ([]treeEntry, error) {
	opts := &gitlab.ListTreeOptions{
		Ref:       gitlab.Ptr(branch),
		Recursive: gitlab.Ptr(true),
		ListOptions: gitlab.ListOptions{
			Page:    1,
			PerPage: 100,
		},
	}

	var entries []treeEntry
	for {
		nodes, resp, err := g.client.Repositories.ListTree(repo.FullName(), opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, wrapGitLabError(err, "listing tree for %s", repo)
		}
		for _, n := range nodes {
			if n.Type == "blob" {
				entries = append(entries, treeEntry{Path: n.Path, SHA: n.ID})
			}
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return entries, nil
}

func (g *gitLab) blob(ctx context.Context, repo Repo, branch string, entry treeEntry) ([]byte, error) {
	data, _, err := g.client.RepositoryFiles.GetRawFile(repo.FullName(), entry.Path, &gitlab.GetRawFileOptions{
		Ref: gitlab.Ptr(branch),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, wrapGitLabError(err, "downloading %s", entry.Path)
	}
	return data, nil
}

func (g *gitLab) rawURL(repo Repo, branch, filePath string) string {
	return fmt.Sprintf("%s/%s/-/raw/%s/%s", g.webBase, repo.FullName(), url.PathEscape(branch), escapePath(filePath))
}

func wrapGitLabError(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, gitlab.ErrNotFound) {
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	}
	var errResp *gitlab.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
