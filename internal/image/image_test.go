package image_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dogsub/Open-Source-TermP/internal/forge"
	"github.com/dogsub/Open-Source-TermP/internal/image"
)

type mockSource struct {
	base     string
	branch   string
	images   []forge.Image
	imagesFn func() ([]forge.Image, error)
}

func (m *mockSource) RawURL(repo forge.Repo, branch, filePath string) string {
	return m.base + "/" + repo.FullName() + "/" + branch + "/" + filePath
}

func (m *mockSource) DefaultBranch(context.Context, forge.Repo) (string, error) {
	return m.branch, nil
}

func (m *mockSource) Images(context.Context, forge.Repo) ([]forge.Image, error) {
	if m.imagesFn != nil {
		return m.imagesFn()
	}
	return m.images, nil
}

var repo = forge.Repo{Host: "github.com", Owner: "octo", Name: "demo"}

var _ = Describe("FirstReadmeImage", func() {
	DescribeTable("finds the first image",
		func(readme, want string) {
			Expect(image.FirstReadmeImage(readme)).To(Equal(want))
		},
		Entry("img tag", `# Demo\n<p align="center"><img src="docs/shot.png" width="300"></p>`, "docs/shot.png"),
		Entry("attribute order", `<img width="100" src="https://x.io/a.png"/>`, "https://x.io/a.png"),
		Entry("tag wins over earlier markdown", "![alt](md.png)\n<img src=\"tag.png\">", "tag.png"),
		Entry("markdown fallback", "intro\n![screenshot](./assets/screen.png \"title\")", "./assets/screen.png"),
		Entry("nothing", "just text", ""),
		Entry("img without src", `<img alt="x">`, ""),
	)
})

var _ = Describe("ResolveURL", func() {
	src := &mockSource{base: "https://raw.example", branch: "dev"}

	DescribeTable("resolves",
		func(in, want string) {
			Expect(image.ResolveURL(in, repo, "dev", src)).To(Equal(want))
		},
		Entry("absolute", "https://cdn.io/a.png", "https://cdn.io/a.png"),
		Entry("protocol relative", "//cdn.io/a.png", "https://cdn.io/a.png"),
		Entry("dot relative", "./docs/a.png", "https://raw.example/octo/demo/dev/docs/a.png"),
		Entry("root relative", "/docs/a.png", "https://raw.example/octo/demo/dev/docs/a.png"),
		Entry("bare", "a.png", "https://raw.example/octo/demo/dev/a.png"),
	)
})

var _ = Describe("Score", func() {
	DescribeTable("scores paths",
		func(p string, want int) {
			Expect(image.Score(p)).To(Equal(want))
		},
		Entry("screenshot in assets", "assets/Screenshot.png", 10+6+4),
		Entry("logo at root", "logo.svg", 6+4),
		Entry("demo banner", "demo_banner.gif", 10+6+4),
		Entry("deep docs path", "docs/a/b/c/img.png", 6),
		Entry("plain nested", "src/x/icon.png", 4),
		Entry("deep plain", "a/b/c/d.png", 0),
	)
})

var _ = Describe("Choose", func() {
	It("picks the highest score and keeps tree order on ties", func() {
		best, ok := image.Choose([]forge.Image{
			{Path: "src/a/b/c.png", URL: "c"},
			{Path: "icon1.png", URL: "1"},
			{Path: "icon2.png", URL: "2"},
		})
		Expect(ok).To(BeTrue())
		Expect(best.URL).To(Equal("1"))
	})

	It("reports no images", func() {
		_, ok := image.Choose(nil)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Selector", func() {
	var (
		server *httptest.Server
		source *mockSource
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/octo/demo/main/missing.png" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		DeferCleanup(server.Close)
		source = &mockSource{
			base:   server.URL,
			branch: "main",
			images: []forge.Image{{Path: "src/deep/dir/x.png", URL: "x"}, {Path: "assets/demo.png", URL: "demo"}},
		}
	})

	It("uses a reachable readme image", func() {
		u, err := image.NewSelector(source, server.Client()).Select(ctx, repo, `<img src="hero.png">`)
		Expect(err).NotTo(HaveOccurred())
		Expect(u).To(Equal(server.URL + "/octo/demo/main/hero.png"))
	})

	It("falls back to the tree when the readme image is missing", func() {
		u, err := image.NewSelector(source, server.Client()).Select(ctx, repo, `<img src="missing.png">`)
		Expect(err).NotTo(HaveOccurred())
		Expect(u).To(Equal("demo"))
	})

	It("returns empty when there are no images", func() {
		source.images = nil
		u, err := image.NewSelector(source, server.Client()).Select(ctx, repo, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(u).To(BeEmpty())
	})

	It("propagates tree errors", func() {
		source.imagesFn = func() ([]forge.Image, error) { return nil, errors.New("boom") }
		_, err := image.NewSelector(source, server.Client()).Select(ctx, repo, "")
		Expect(err).To(MatchError("boom"))
	})
})
