package tags_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dogsub/Open-Source-TermP/internal/tags"
)

var _ = Describe("Ratio", func() {
	DescribeTable("scores similarity ignoring case",
		func(a, b string, expected int) {
			Expect(tags.Ratio(a, b)).To(Equal(expected))
			Expect(tags.Ratio(b, a)).To(Equal(expected))
		},
		Entry("identical", "Go", "Go", 100),
		Entry("case only", "React", "react", 100),
		Entry("both empty", "", "", 0),
		Entry("one empty", "Go", "", 0),
		Entry("trailing punctuation", "React", "react.", 91),
		Entry("suffix", "React", "ReactJS", 83),
		Entry("abbreviation", "JavaScript", "js", 33),
		Entry("prefix word", "TypeScript", "Type", 57),
		Entry("unrelated", "Docker", "Kafka", 18),
		Entry("exact half", "ab", "ac", 50),
		Entry("half rounds down to even", "abcdefgh", "aijklmno", 12),
		Entry("half rounds up to even", "abcdefgh", "abcijklm", 38),
		Entry("multibyte runes", "스프링", "스프링부트", 75),
	)
})

var _ = Describe("Merge", func() {
	It("preserves order when nothing collapses", func() {
		Expect(tags.Merge(tags.TagList{"React", "Vue"}, tags.TagList{"Angular"})).
			To(Equal(tags.TagList{"React", "Vue", "Angular"}))
	})

	It("drops near duplicates from later lists", func() {
		Expect(tags.Merge(tags.TagList{"React"}, tags.TagList{"react."})).
			To(Equal(tags.TagList{"React"}))
	})

	It("keeps the first spelling seen", func() {
		Expect(tags.Merge(tags.TagList{"docker"}, tags.TagList{"Docker", "Go"})).
			To(Equal(tags.TagList{"docker", "Go"}))
	})

	It("collapses case-sensitive substrings", func() {
		Expect(tags.Merge(tags.TagList{"TypeScript", "Type"})).To(Equal(tags.TagList{"TypeScript"}))
		Expect(tags.Merge(tags.TagList{"Type", "TypeScript"})).To(Equal(tags.TagList{"TypeScript"}))
	})

	It("does not collapse across case", func() {
		Expect(tags.Merge(tags.TagList{"JavaScript", "js"})).To(Equal(tags.TagList{"JavaScript", "js"}))
	})

	It("treats the threshold as inclusive", func() {
		// "ab" and "ac" score exactly 50.
		Expect(tags.MergeWithThreshold(50, tags.TagList{"ab", "ac"})).To(Equal(tags.TagList{"ab"}))
		Expect(tags.MergeWithThreshold(51, tags.TagList{"ab", "ac"})).To(Equal(tags.TagList{"ab", "ac"}))
	})

	It("keeps repeated empty tags", func() {
		Expect(tags.Merge(tags.TagList{"", ""})).To(Equal(tags.TagList{"", ""}))
	})

	It("returns an empty list for no input", func() {
		Expect(tags.Merge()).To(BeEmpty())
		Expect(tags.Merge(nil, tags.TagList{})).To(BeEmpty())
	})

	It("collapses nested substrings in a single pass", func() {
		// Every shorter tag is removed by the longest one that contains it.
		Expect(tags.MergeWithThreshold(101, tags.TagList{"Java", "JavaScript", "Script"})).
			To(Equal(tags.TagList{"JavaScript"}))
	})

	DescribeTable("never outputs two tags at or above the threshold",
		func(lists ...tags.TagList) {
			merged := tags.Merge(lists...)
			for i := range merged {
				for j := range merged {
					if i != j {
						Expect(tags.Ratio(merged[i], merged[j])).To(BeNumerically("<", tags.DefaultThreshold),
							"%q vs %q", merged[i], merged[j])
					}
				}
			}
		},
		Entry("provider style output",
			tags.TagList{"React", "Node.js", "Express", "MongoDB"},
			tags.TagList{"ReactJS", "NodeJS", "Express.js", "Mongo DB"},
			tags.TagList{"react", "node", "Docker"}),
		Entry("python stack",
			tags.TagList{"Python", "FastAPI", "PostgreSQL"},
			tags.TagList{"python3", "Fast API", "Postgres", "SQLAlchemy"}),
	)

	DescribeTable("is idempotent",
		func(list tags.TagList) {
			once := tags.Merge(list)
			Expect(tags.Merge(once)).To(Equal(once))
		},
		Entry("duplicates", tags.TagList{"Go", "go", "Golang", "Docker", "docker-compose"}),
		Entry("abbreviations", tags.TagList{"TypeScript", "Type", "JS", "JSON"}),
		Entry("web stack", tags.TagList{"React", "ReactJS", "Redux", "Redux Toolkit", "Vite"}),
	)
})
