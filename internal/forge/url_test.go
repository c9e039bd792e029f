package forge_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dogsub/Open-Source-TermP/internal/forge"
)

var _ = Describe("ParseRepoURL", func() {
	DescribeTable("parses repository URLs",
		func(raw, host, owner, name, dir string) {
			repo, err := forge.ParseRepoURL(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.Host).To(Equal(host))
			Expect(repo.Owner).To(Equal(owner))
			Expect(repo.Name).To(Equal(name))
			Expect(repo.DirName()).To(Equal(dir))
		},
		Entry("github", "https://github.com/owner/repo", "github.com", "owner", "repo", "owner__repo"),
		Entry("trailing slash", "https://github.com/owner/repo/", "github.com", "owner", "repo", "owner__repo"),
		Entry(".git suffix", "https://github.com/owner/repo.git", "github.com", "owner", "repo", "owner__repo"),
		Entry("tree link", "https://github.com/owner/repo/tree/main/src", "github.com", "owner", "repo", "owner__repo"),
		Entry("www host", "https://www.github.com/owner/repo", "github.com", "owner", "repo", "owner__repo"),
		Entry("no scheme", "github.com/owner/repo", "github.com", "owner", "repo", "owner__repo"),
		Entry("surrounding whitespace", "  https://github.com/owner/repo\n", "github.com", "owner", "repo", "owner__repo"),
		Entry("gitlab subgroup", "https://gitlab.com/group/sub/repo", "gitlab.com", "group/sub", "repo", "group__sub__repo"),
		Entry("gitlab tree link", "https://gitlab.com/group/repo/-/tree/main", "gitlab.com", "group", "repo", "group__repo"),
	)

	It("builds a canonical URL", func() {
		repo, err := forge.ParseRepoURL("http://github.com/owner/repo.git/")
		Expect(err).NotTo(HaveOccurred())
		Expect(repo.URL).To(Equal("https://github.com/owner/repo"))
		Expect(repo.FullName()).To(Equal("owner/repo"))
	})

	DescribeTable("rejects invalid URLs",
		func(raw string) {
			_, err := forge.ParseRepoURL(raw)
			Expect(err).To(MatchError(forge.ErrInvalidURL))
		},
		Entry("empty", ""),
		Entry("owner only", "https://github.com/owner"),
		Entry("host only", "https://github.com"),
		Entry("ftp scheme", "ftp://github.com/owner/repo"),
	)
})
