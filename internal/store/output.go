package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dogsub/Open-Source-TermP/internal/forge"
)

const (
	ReadmeFilename = "GENERATED_README.md"
	TagsFilename   = "TAGS.json"
	imageBasename  = "repo_image"
	defaultImgExt  = ".jpg"

	imageDownloadTimeout = 30 * time.Second
)

// OutputDir writes analysis results under a root directory, one
// sub-directory per repository.
type OutputDir struct {
	root string
	http *http.Client
}

func NewOutputDir(root string, hc *http.Client) (*OutputDir, error) {
	if root == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if hc == nil {
		hc = &http.Client{Timeout: imageDownloadTimeout}
	}
	return &OutputDir{root: abs, http: hc}, nil
}

// RepoOutput is the output directory of one repository.
type RepoOutput struct {
	Dir  string
	http *http.Client
}

// ForRepo creates <root>/<owner>__<repo>/.
func (o *OutputDir) ForRepo(repo forge.Repo) (*RepoOutput, error) {
	dir := filepath.Join(o.root, repo.DirName())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating repository output directory: %w", err)
	}
	return &RepoOutput{Dir: dir, http: o.http}, nil
}

func (r *RepoOutput) WriteReadme(text string) (string, error) {
	p := filepath.Join(r.Dir, ReadmeFilename)
	if err := writeAtomic(p, []byte(text)); err != nil {
		return "", fmt.Errorf("writing readme: %w", err)
	}
	return p, nil
}

// WriteTags stores {"tags": [...]}, or {"raw": text} when raw is set.
func (r *RepoOutput) WriteTags(tags []string, raw *string) (string, error) {
	var doc any
	switch {
	case raw != nil:
		doc = map[string]string{"raw": *raw}
	case tags == nil:
		doc = map[string][]string{"tags": {}}
	default:
		doc = map[string][]string{"tags": tags}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}

	p := filepath.Join(r.Dir, TagsFilename)
	if err := writeAtomic(p, buf.Bytes()); err != nil {
		return "", fmt.Errorf("writing tags: %w", err)
	}
	return p, nil
}

// DownloadImage saves the image at imageURL as repo_image<ext>, with the
// extension taken from the URL path.
func (r *RepoOutput) DownloadImage(ctx context.Context, imageURL string) (string, error) {
	if imageURL == "" {
		return "", fmt.Errorf("image url is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, imageDownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("building image request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("downloading image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}

	p := filepath.Join(r.Dir, imageBasename+ImageExt(imageURL))
	if err := writeAtomic(p, data); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	return p, nil
}

// ImageExt returns the extension of the URL path, ignoring the query, or ".jpg".
func ImageExt(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return defaultImgExt
	}
	if ext := path.Ext(u.Path); ext != "" {
		return ext
	}
	return defaultImgExt
}

// writeAtomic writes to a temp file, then renames.
func writeAtomic(p string, data []byte) error {
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
