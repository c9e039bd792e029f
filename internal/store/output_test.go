package store_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dogsub/Open-Source-TermP/internal/forge"
	"github.com/dogsub/Open-Source-TermP/internal/store"
)

var _ = Describe("OutputDir", func() {
	var (
		out  *store.RepoOutput
		repo = forge.Repo{Host: "github.com", Owner: "octo", Name: "demo"}
	)

	BeforeEach(func() {
		dir, err := store.NewOutputDir(GinkgoT().TempDir(), nil)
		Expect(err).NotTo(HaveOccurred())
		out, err = dir.ForRepo(repo)
		Expect(err).NotTo(HaveOccurred())
	})

	It("names the directory owner__repo", func() {
		Expect(filepath.Base(out.Dir)).To(Equal("octo__demo"))
		Expect(out.Dir).To(BeADirectory())
	})

	It("writes the readme", func() {
		p, err := out.WriteReadme("# demo\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(filepath.Base(p)).To(Equal(store.ReadmeFilename))
		Expect(os.ReadFile(p)).To(BeEquivalentTo("# demo\n"))
	})

	It("writes tags with two-space indent and non-ASCII kept", func() {
		p, err := out.WriteTags([]string{"Go", "스프링", "C<>"}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(os.ReadFile(p)).To(BeEquivalentTo("{\n  \"tags\": [\n    \"Go\",\n    \"스프링\",\n    \"C<>\"\n  ]\n}\n"))
	})

	It("writes an empty list rather than null", func() {
		p, err := out.WriteTags(nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(os.ReadFile(p)).To(BeEquivalentTo("{\n  \"tags\": []\n}\n"))
	})

	It("writes raw refiner output", func() {
		raw := "I think the tags are Go"
		p, err := out.WriteTags(nil, &raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(os.ReadFile(p)).To(BeEquivalentTo("{\n  \"raw\": \"I think the tags are Go\"\n}\n"))
	})

	Context("image download", func() {
		var server *httptest.Server

		BeforeEach(func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/gone.png" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				_, _ = w.Write([]byte("PNGDATA"))
			}))
			DeferCleanup(server.Close)
		})

		It("saves with the url extension", func() {
			p, err := out.DownloadImage(context.Background(), server.URL+"/docs/shot.png?raw=true")
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.Base(p)).To(Equal("repo_image.png"))
			Expect(os.ReadFile(p)).To(BeEquivalentTo("PNGDATA"))
		})

		It("fails on error status", func() {
			_, err := out.DownloadImage(context.Background(), server.URL+"/gone.png")
			Expect(err).To(MatchError(ContainSubstring("404")))
		})
	})

	DescribeTable("ImageExt",
		func(u, want string) {
			Expect(store.ImageExt(u)).To(Equal(want))
		},
		Entry("png", "https://x.io/a/b.png", ".png"),
		Entry("query ignored", "https://x.io/b.gif?raw=1", ".gif"),
		Entry("no extension", "https://x.io/avatar", ".jpg"),
	)
})
