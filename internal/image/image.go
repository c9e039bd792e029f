// Package image picks a representative image for a repository.
package image

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/dogsub/Open-Source-TermP/internal/forge"
)

var markdownImage = regexp.MustCompile(`!\[[^\]]*\]\(\s*<?([^)\s>]+)`)

// FirstReadmeImage returns the src of the first <img> tag in the README, or the
// target of the first markdown image when there is no tag. It returns "" when
// the README has neither.
func FirstReadmeImage(readme string) string {
	if src := firstImgTag(readme); src != "" {
		return src
	}
	if m := markdownImage.FindStringSubmatch(readme); m != nil {
		return m[1]
	}
	return ""
}

func firstImgTag(readme string) string {
	z := html.NewTokenizer(strings.NewReader(readme))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "img" {
				continue
			}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == "src" && len(val) > 0 {
					return strings.TrimSpace(string(val))
				}
			}
		}
	}
}

// RawURLer builds download URLs for files in a repository.
type RawURLer interface {
	RawURL(repo forge.Repo, branch, filePath string) string
}

// ResolveURL makes a README image reference absolute. Relative paths point at
// the raw file on branch.
func ResolveURL(src string, repo forge.Repo, branch string, f RawURLer) string {
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return src
	case strings.HasPrefix(src, "//"):
		return "https:" + src
	}
	return f.RawURL(repo, branch, strings.TrimLeft(src, "./"))
}

var (
	featureWords = []string{"screenshot", "demo"}
	brandWords   = []string{"logo", "cover", "main", "banner"}
	assetDirs    = []string{"assets", "docs", "test"}
)

// Score rates how likely an image file is to represent the project.
func Score(p string) int {
	name := strings.ToLower(path.Base(p))
	score := 0

	if containsAny(name, featureWords) {
		score += 10
	}
	if containsAny(name, brandWords) {
		score += 6
	}
	for _, dir := range assetDirs {
		if strings.HasPrefix(p, dir) {
			score += 6
			break
		}
	}
	if strings.Count(p, "/") <= 2 {
		score += 4
	}
	return score
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Choose returns the best-scoring image. Equal scores keep tree order.
func Choose(images []forge.Image) (forge.Image, bool) {
	if len(images) == 0 {
		return forge.Image{}, false
	}
	ranked := make([]forge.Image, len(images))
	copy(ranked, images)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Score(ranked[i].Path) > Score(ranked[j].Path)
	})
	return ranked[0], true
}

// Source is the part of a forge the selector reads.
type Source interface {
	RawURLer
	DefaultBranch(ctx context.Context, repo forge.Repo) (string, error)
	Images(ctx context.Context, repo forge.Repo) ([]forge.Image, error)
}

type Selector struct {
	source Source
	http   *http.Client
}

func NewSelector(source Source, hc *http.Client) *Selector {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Selector{source: source, http: hc}
}

// Select returns the README image when it is reachable, otherwise the best
// image file in the tree. It returns "" when the repository has no images.
func (s *Selector) Select(ctx context.Context, repo forge.Repo, readme string) (string, error) {
	branch, err := s.source.DefaultBranch(ctx, repo)
	if err != nil {
		return "", err
	}

	if src := FirstReadmeImage(readme); src != "" {
		u := ResolveURL(src, repo, branch, s.source)
		if s.reachable(ctx, u) {
			slog.DebugContext(ctx, "using readme image", "url", u)
			return u, nil
		}
		slog.DebugContext(ctx, "readme image unreachable", "url", u)
	}

	images, err := s.source.Images(ctx, repo)
	if err != nil {
		return "", err
	}
	best, ok := Choose(images)
	if !ok {
		return "", nil
	}
	slog.DebugContext(ctx, "using tree image", "path", best.Path, "candidates", len(images))
	return best.URL, nil
}

// reachable reports whether a HEAD request, following redirects, is anything but 404.
func (s *Selector) reachable(ctx context.Context, u string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return false
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode != http.StatusNotFound
}
