// Package forge reads repositories from hosted Git forges.
package forge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dogsub/Open-Source-TermP/core/config"
)

var (
	ErrInvalidURL      = errors.New("invalid repository url")
	ErrUnsupportedHost = errors.New("unsupported forge host")
	ErrNotFound        = errors.New("repository not found")
)

const (
	defaultMaxFiles    = 500
	defaultConcurrency = 8
	defaultTimeout     = 30 * time.Second
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".svg"}

// File is a fetched source file.
type File struct {
	Path    string
	Content string
}

// Image is an image file in the repository tree.
type Image struct {
	Path string
	URL  string // raw download URL on the default branch
}

// Forge is the read-only view of a repository that termp needs.
type Forge interface {
	DefaultBranch(ctx context.Context, repo Repo) (string, error)
	// Readme returns the README text, or "" when the repository has none.
	Readme(ctx context.Context, repo Repo) (string, error)
	// Files walks the whole tree of the default branch and downloads every file
	// keep accepts, up to the configured maximum.
	Files(ctx context.Context, repo Repo, keep func(path string) bool) ([]File, error)
	Images(ctx context.Context, repo Repo) ([]Image, error)
	RawURL(repo Repo, branch, filePath string) string
}

// Options configures a forge client.
type Options struct {
	Token       string
	BaseURL     string // API base; empty for the public instance
	HTTPClient  *http.Client
	MaxFiles    int
	Concurrency int
}

func (o Options) withDefaults() Options {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if o.MaxFiles <= 0 {
		o.MaxFiles = defaultMaxFiles
	}
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	return o
}

type treeEntry struct {
	Path string
	SHA  string
}

// backend is the per-forge API surface the shared walker builds on.
type backend interface {
	defaultBranch(ctx context.Context, repo Repo) (string, error)
	readme(ctx context.Context, repo Repo, branch string) (string, error)
	tree(ctx context.Context, repo Repo, branch string) ([]treeEntry, error)
	blob(ctx context.Context, repo Repo, branch string, entry treeEntry) ([]byte, error)
	rawURL(repo Repo, branch, filePath string) string
}

type client struct {
	backend  backend
	opts     Options
	branches sync.Map // repo full name -> default branch
}

func newClient(b backend, opts Options) *client {
	return &client{backend: b, opts: opts}
}

// New picks the forge for repo.Host: GitHub for github.com or the configured
// GitHub host, GitLab for gitlab.com or the configured GitLab host.
func New(repo Repo, cfg config.Config) (Forge, error) {
	hc := &http.Client{Timeout: cfg.Fetch.Timeout}
	if cfg.Fetch.Timeout <= 0 {
		hc.Timeout = defaultTimeout
	}

	opts := func(fc config.ForgeConfig) Options {
		return Options{
			Token:       fc.Token,
			BaseURL:     fc.BaseURL,
			HTTPClient:  hc,
			MaxFiles:    cfg.Fetch.MaxFiles,
			Concurrency: cfg.Fetch.Concurrency,
		}
	}

	switch {
	case repo.Host == "github.com" || sameHost(repo.Host, cfg.GitHub.BaseURL):
		return NewGitHub(opts(cfg.GitHub))
	case repo.Host == "gitlab.com" || sameHost(repo.Host, cfg.GitLab.BaseURL):
		return NewGitLab(opts(cfg.GitLab))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedHost, repo.Host)
	}
}

func sameHost(host, baseURL string) bool {
	if baseURL == "" {
		return false
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, host) || strings.EqualFold(u.Hostname(), host)
}

func (c *client) DefaultBranch(ctx context.Context, repo Repo) (string, error) {
	if b, ok := c.branches.Load(repo.FullName()); ok {
		return b.(string), nil
	}
	branch, err := c.backend.defaultBranch(ctx, repo)
	if err != nil {
		return "", err
	}
	if branch == "" {
		branch = "main"
	}
	c.branches.Store(repo.FullName(), branch)
	return branch, nil
}

func (c *client) Readme(ctx context.Context, repo Repo) (string, error) {
	branch, err := c.DefaultBranch(ctx, repo)
	if err != nil {
		return "", err
	}
	return c.backend.readme(ctx, repo, branch)
}

func (c *client) Files(ctx context.Context, repo Repo, keep func(path string) bool) ([]File, error) {
	branch, err := c.DefaultBranch(ctx, repo)
	if err != nil {
		return nil, err
	}

	entries, err := c.backend.tree(ctx, repo, branch)
	if err != nil {
		return nil, err
	}

	var selected []treeEntry
	for _, e := range entries {
		if keep == nil || keep(e.Path) {
			selected = append(selected, e)
		}
	}
	if len(selected) > c.opts.MaxFiles {
		slog.WarnContext(ctx, "repository has more files than the fetch limit",
			"matched", len(selected),
			"limit", c.opts.MaxFiles)
		selected = selected[:c.opts.MaxFiles]
	}

	contents := make([]*File, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, e := range selected {
		g.Go(func() error {
			data, err := c.backend.blob(gctx, repo, branch, e)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.WarnContext(gctx, "skipping file that failed to download", "path", e.Path, "error", err)
				return nil
			}
			contents[i] = &File{Path: e.Path, Content: string(data)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("downloading files: %w", err)
	}

	files := make([]File, 0, len(contents))
	for _, f := range contents {
		if f != nil {
			files = append(files, *f)
		}
	}

	slog.DebugContext(ctx, "fetched repository files", "files", len(files), "branch", branch)
	return files, nil
}

func (c *client) Images(ctx context.Context, repo Repo) ([]Image, error) {
	branch, err := c.DefaultBranch(ctx, repo)
	if err != nil {
		return nil, err
	}

	entries, err := c.backend.tree(ctx, repo, branch)
	if err != nil {
		return nil, err
	}

	var images []Image
	for _, e := range entries {
		if IsImage(e.Path) {
			images = append(images, Image{Path: e.Path, URL: c.backend.rawURL(repo, branch, e.Path)})
		}
	}
	return images, nil
}

func (c *client) RawURL(repo Repo, branch, filePath string) string {
	return c.backend.rawURL(repo, branch, filePath)
}

// IsImage reports whether p has a common image extension.
func IsImage(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
