package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dogsub/Open-Source-TermP/internal/tags"
)

func newMergeCmd() *cobra.Command {
	var threshold int

	cmd := &cobra.Command{
		Use:   "merge <file.json>...",
		Short: "Merge tag documents into one deduplicated list",
		Long: `Reads files containing a {"tags": [...]} object, such as TAGS.json or saved
model output, and prints the merged list. Lists are merged in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs := make([]string, 0, len(args))
			for _, path := range args {
				b, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				docs = append(docs, string(b))
			}
			merged, err := mergeDocuments(docs, threshold)
			if err != nil {
				return err
			}
			return writeTags(cmd.OutOrStdout(), merged)
		},
	}

	cmd.Flags().IntVar(&threshold, "threshold", tags.DefaultThreshold, "similarity 1-100 at or above which two tags are duplicates")
	return cmd
}

func mergeDocuments(docs []string, threshold int) (tags.TagList, error) {
	if threshold < 1 || threshold > 100 {
		return nil, fmt.Errorf("threshold must be between 1 and 100, got %d", threshold)
	}
	lists := make([]tags.TagList, 0, len(docs))
	for i, doc := range docs {
		list, err := tags.ExtractTags(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i+1, err)
		}
		lists = append(lists, list)
	}
	return tags.MergeWithThreshold(threshold, lists...), nil
}

func writeTags(w io.Writer, list tags.TagList) error {
	if list == nil {
		list = tags.TagList{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]tags.TagList{"tags": list})
}
