package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dogsub/Open-Source-TermP/internal/tags"
)

var _ = Describe("merge", func() {
	It("merges documents in order, dropping near-duplicates", func() {
		merged, err := mergeDocuments([]string{
			`{"tags": ["React", "Vue"]}`,
			"model said:\n```json\n{\"tags\": [\"react.\", \"Angular\"]}\n```",
		}, tags.DefaultThreshold)

		Expect(err).NotTo(HaveOccurred())
		Expect(merged).To(Equal(tags.TagList{"React", "Vue", "Angular"}))
	})

	It("names the document that has no tag object", func() {
		_, err := mergeDocuments([]string{`{"tags": []}`, "nothing here"}, tags.DefaultThreshold)

		Expect(errors.Is(err, tags.ErrTagFormat)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("document 2"))
	})

	It("rejects an out of range threshold", func() {
		_, err := mergeDocuments([]string{`{"tags": []}`}, 0)
		Expect(err).To(HaveOccurred())
	})

	It("runs as a subcommand and prints JSON", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "a.json")
		Expect(os.WriteFile(path, []byte(`{"tags": ["Go", "go", "gRPC"]}`), 0o644)).To(Succeed())

		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"merge", path})

		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(MatchJSON(`{"tags": ["Go", "gRPC"]}`))
	})
})
