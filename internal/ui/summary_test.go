package ui_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dogsub/Open-Source-TermP/common/logger"
	"github.com/dogsub/Open-Source-TermP/internal/model"
	"github.com/dogsub/Open-Source-TermP/internal/service"
	"github.com/dogsub/Open-Source-TermP/internal/ui"
)

var _ = Describe("Summary", func() {
	var a *model.Analysis

	BeforeEach(func() {
		a = &model.Analysis{Owner: "octo", Name: "hello"}
	})

	It("lists each step with its result and the output directory", func() {
		a.Tags = []string{"Go", "Redis"}
		a.ImageURL = logger.Ptr("https://example.com/shot.png")
		a.Readme = logger.Ptr("# hello")

		out := ui.Summary(a, &service.Exported{
			Dir:        "output/octo__hello",
			ReadmePath: "output/octo__hello/GENERATED_README.md",
			ImagePath:  "output/octo__hello/repo_image.png",
		})

		Expect(out).To(ContainSubstring("octo/hello"))
		Expect(out).To(ContainSubstring("GENERATED_README.md"))
		Expect(out).To(ContainSubstring("Go, Redis"))
		Expect(out).To(ContainSubstring("repo_image.png"))
		Expect(out).To(ContainSubstring("output: output/octo__hello"))
	})

	It("shows failures and skips", func() {
		a.SkipReadme = true
		a.RecordStepError(model.StepTags, errors.New("tag pipeline: not configured"))

		out := ui.Summary(a, nil)

		Expect(out).To(ContainSubstring("skipped"))
		Expect(out).To(ContainSubstring("tag pipeline: not configured"))
		Expect(out).To(ContainSubstring("no image found"))
		Expect(out).NotTo(ContainSubstring("output:"))
	})

	It("stops at a fetch failure", func() {
		a.RecordStepError(model.StepFetch, errors.New("rate limited"))

		out := ui.Summary(a, nil)

		Expect(out).To(ContainSubstring("rate limited"))
		Expect(out).NotTo(ContainSubstring("readme"))
	})

	It("truncates long tag lists", func() {
		for i := 0; i < 20; i++ {
			a.Tags = append(a.Tags, "t")
		}
		Expect(ui.Summary(a, nil)).To(ContainSubstring("(+5)"))
	})
})
