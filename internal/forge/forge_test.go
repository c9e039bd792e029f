package forge_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dogsub/Open-Source-TermP/core/config"
	"github.com/dogsub/Open-Source-TermP/internal/forge"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var _ = Describe("GitHub", func() {
	var (
		server     *httptest.Server
		f          forge.Forge
		repo       forge.Repo
		ctx        context.Context
		repoCalls  atomic.Int32
		hasReadme  bool
		blobStatus int
	)

	BeforeEach(func() {
		ctx = context.Background()
		repoCalls.Store(0)
		hasReadme = true
		blobStatus = http.StatusOK

		mux := http.NewServeMux()
		mux.HandleFunc("/api/v3/repos/octo/demo", func(w http.ResponseWriter, r *http.Request) {
			repoCalls.Add(1)
			writeJSON(w, http.StatusOK, map[string]any{"name": "demo", "default_branch": "develop"})
		})
		mux.HandleFunc("/api/v3/repos/octo/missing", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
		})
		mux.HandleFunc("/api/v3/repos/octo/demo/readme", func(w http.ResponseWriter, r *http.Request) {
			if !hasReadme {
				writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
				return
			}
			Expect(r.URL.Query().Get("ref")).To(Equal("develop"))
			writeJSON(w, http.StatusOK, map[string]any{
				"type":     "file",
				"encoding": "base64",
				"content":  base64.StdEncoding.EncodeToString([]byte("# Demo\nBuilt with Go.")),
			})
		})
		mux.HandleFunc("/api/v3/repos/octo/demo/git/trees/develop", func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Query().Get("recursive")).NotTo(BeEmpty())
			writeJSON(w, http.StatusOK, map[string]any{
				"sha": "root",
				"tree": []map[string]any{
					{"path": "main.go", "type": "blob", "sha": "s-main"},
					{"path": "docs", "type": "tree", "sha": "t-docs"},
					{"path": "docs/screenshot.png", "type": "blob", "sha": "s-shot"},
					{"path": "pkg/util.go", "type": "blob", "sha": "s-util"},
					{"path": "README.md", "type": "blob", "sha": "s-readme"},
				},
				"truncated": false,
			})
		})
		mux.HandleFunc("/api/v3/repos/octo/demo/git/blobs/", func(w http.ResponseWriter, r *http.Request) {
			sha := strings.TrimPrefix(r.URL.Path, "/api/v3/repos/octo/demo/git/blobs/")
			if sha == "s-util" && blobStatus != http.StatusOK {
				w.WriteHeader(blobStatus)
				return
			}
			fmt.Fprintf(w, "content of %s", sha)
		})
		server = httptest.NewServer(mux)

		var err error
		f, err = forge.NewGitHub(forge.Options{BaseURL: server.URL, Concurrency: 2})
		Expect(err).NotTo(HaveOccurred())
		repo = forge.Repo{Host: "github.example.com", Owner: "octo", Name: "demo"}
	})

	AfterEach(func() {
		server.Close()
	})

	It("reads and caches the default branch", func() {
		for range 2 {
			branch, err := f.DefaultBranch(ctx, repo)
			Expect(err).NotTo(HaveOccurred())
			Expect(branch).To(Equal("develop"))
		}
		Expect(repoCalls.Load()).To(Equal(int32(1)))
	})

	It("maps a missing repository to ErrNotFound", func() {
		_, err := f.DefaultBranch(ctx, forge.Repo{Owner: "octo", Name: "missing"})
		Expect(err).To(MatchError(forge.ErrNotFound))
	})

	It("decodes the readme", func() {
		readme, err := f.Readme(ctx, repo)
		Expect(err).NotTo(HaveOccurred())
		Expect(readme).To(Equal("# Demo\nBuilt with Go."))
	})

	It("returns an empty readme when there is none", func() {
		hasReadme = false
		readme, err := f.Readme(ctx, repo)
		Expect(err).NotTo(HaveOccurred())
		Expect(readme).To(BeEmpty())
	})

	It("downloads only the files keep accepts, in tree order", func() {
		files, err := f.Files(ctx, repo, func(p string) bool { return strings.HasSuffix(p, ".go") })
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(Equal([]forge.File{
			{Path: "main.go", Content: "content of s-main"},
			{Path: "pkg/util.go", Content: "content of s-util"},
		}))
	})

	It("skips files that fail to download", func() {
		blobStatus = http.StatusForbidden
		files, err := f.Files(ctx, repo, func(p string) bool { return strings.HasSuffix(p, ".go") })
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(HaveLen(1))
		Expect(files[0].Path).To(Equal("main.go"))
	})

	It("caps the number of files", func() {
		capped, err := forge.NewGitHub(forge.Options{BaseURL: server.URL, MaxFiles: 1})
		Expect(err).NotTo(HaveOccurred())
		files, err := capped.Files(ctx, repo, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(HaveLen(1))
	})

	It("lists images with raw URLs on the default branch", func() {
		images, err := f.Images(ctx, repo)
		Expect(err).NotTo(HaveOccurred())
		Expect(images).To(Equal([]forge.Image{{
			Path: "docs/screenshot.png",
			URL:  server.URL + "/octo/demo/raw/develop/docs/screenshot.png",
		}}))
	})

	It("uses raw.githubusercontent.com for github.com", func() {
		public, err := forge.NewGitHub(forge.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(public.RawURL(forge.Repo{Owner: "o", Name: "r"}, "main", "assets/logo one.png")).
			To(Equal("https://raw.githubusercontent.com/o/r/main/assets/logo%20one.png"))
	})
})

var _ = Describe("GitLab", func() {
	var (
		server *httptest.Server
		f      forge.Forge
		repo   forge.Repo
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := r.URL.EscapedPath()
			q := r.URL.Query()
			switch {
			case p == "/api/v4/projects/group%2Fsub%2Fdemo":
				writeJSON(w, http.StatusOK, map[string]any{"id": 7, "default_branch": "trunk"})
			case p == "/api/v4/projects/group%2Fsub%2Fdemo/repository/tree" && q.Get("recursive") == "":
				writeJSON(w, http.StatusOK, []map[string]any{
					{"id": "b1", "name": "Readme.rst", "type": "blob", "path": "Readme.rst"},
					{"id": "b2", "name": "README.md", "type": "blob", "path": "README.md"},
					{"id": "t1", "name": "src", "type": "tree", "path": "src"},
				})
			case p == "/api/v4/projects/group%2Fsub%2Fdemo/repository/tree" && q.Get("page") == "1":
				w.Header().Set("X-Next-Page", "2")
				writeJSON(w, http.StatusOK, []map[string]any{
					{"id": "b2", "name": "README.md", "type": "blob", "path": "README.md"},
					{"id": "t1", "name": "src", "type": "tree", "path": "src"},
				})
			case p == "/api/v4/projects/group%2Fsub%2Fdemo/repository/tree" && q.Get("page") == "2":
				writeJSON(w, http.StatusOK, []map[string]any{
					{"id": "b3", "name": "app.rb", "type": "blob", "path": "src/app.rb"},
					{"id": "b4", "name": "banner.png", "type": "blob", "path": "src/banner.png"},
				})
			case p == "/api/v4/projects/group%2Fsub%2Fdemo/repository/files/README%2Emd/raw":
				Expect(q.Get("ref")).To(Equal("trunk"))
				fmt.Fprint(w, "# Demo on GitLab")
			case p == "/api/v4/projects/group%2Fsub%2Fdemo/repository/files/src%2Fapp%2Erb/raw":
				fmt.Fprint(w, "require 'sinatra'")
			default:
				writeJSON(w, http.StatusNotFound, map[string]any{"message": "404 Not Found"})
			}
		}))

		var err error
		f, err = forge.NewGitLab(forge.Options{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())
		repo = forge.Repo{Host: "gitlab.example.com", Owner: "group/sub", Name: "demo"}
	})

	AfterEach(func() {
		server.Close()
	})

	It("reads the default branch", func() {
		branch, err := f.DefaultBranch(ctx, repo)
		Expect(err).NotTo(HaveOccurred())
		Expect(branch).To(Equal("trunk"))
	})

	It("maps a missing project to ErrNotFound", func() {
		_, err := f.DefaultBranch(ctx, forge.Repo{Owner: "group", Name: "gone"})
		Expect(err).To(MatchError(forge.ErrNotFound))
	})

	It("prefers README.md at the root", func() {
		readme, err := f.Readme(ctx, repo)
		Expect(err).NotTo(HaveOccurred())
		Expect(readme).To(Equal("# Demo on GitLab"))
	})

	It("follows tree pagination", func() {
		files, err := f.Files(ctx, repo, func(p string) bool { return strings.HasSuffix(p, ".rb") })
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(Equal([]forge.File{{Path: "src/app.rb", Content: "require 'sinatra'"}}))

		images, err := f.Images(ctx, repo)
		Expect(err).NotTo(HaveOccurred())
		Expect(images).To(Equal([]forge.Image{{
			Path: "src/banner.png",
			URL:  server.URL + "/group/sub/demo/-/raw/trunk/src/banner.png",
		}}))
	})
})

var _ = Describe("New", func() {
	It("picks the forge by host", func() {
		cfg := config.Config{GitLab: config.ForgeConfig{BaseURL: "https://git.example.com"}}

		_, err := forge.New(forge.Repo{Host: "github.com"}, cfg)
		Expect(err).NotTo(HaveOccurred())
		_, err = forge.New(forge.Repo{Host: "gitlab.com"}, cfg)
		Expect(err).NotTo(HaveOccurred())
		_, err = forge.New(forge.Repo{Host: "git.example.com"}, cfg)
		Expect(err).NotTo(HaveOccurred())

		_, err = forge.New(forge.Repo{Host: "bitbucket.org"}, cfg)
		Expect(err).To(MatchError(forge.ErrUnsupportedHost))
	})
})

var _ = Describe("IsImage", func() {
	DescribeTable("matches image extensions case-insensitively",
		func(p string, expected bool) {
			Expect(forge.IsImage(p)).To(Equal(expected))
		},
		Entry("png", "a/b.png", true),
		Entry("upper case", "LOGO.JPG", true),
		Entry("svg", "icon.svg", true),
		Entry("source file", "main.go", false),
		Entry("no extension", "Makefile", false),
	)
})
