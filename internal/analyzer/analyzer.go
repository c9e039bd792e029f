// Package analyzer derives a lightweight summary of a repository's source code
// with per-language regular expressions: imported libraries, function names and
// comments.
package analyzer

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/dogsub/Open-Source-TermP/internal/forge"
)

// DefaultKeywords is how many function-name keywords SummarizeKeywords keeps.
const DefaultKeywords = 30

// Summary is the de-duplicated, sorted union of what every scanned file yielded.
type Summary struct {
	RepoName  string
	Imports   []string
	Functions []string
	Comments  []string
	Files     int // files that matched a supported language
}

// Analyze scans every file in a supported language. Files in other languages
// are ignored.
func Analyze(repoName string, files []forge.File) Summary {
	imports := map[string]struct{}{}
	functions := map[string]struct{}{}
	comments := map[string]struct{}{}

	scanned := 0
	for _, f := range files {
		lang, ok := Detect(f.Path)
		if !ok {
			continue
		}
		scanned++

		imp, fn, cm := scanners[lang].scan(f.Content)
		addAll(imports, imp)
		addAll(functions, fn)
		addAll(comments, cm)
	}

	return Summary{
		RepoName:  repoName,
		Imports:   sortedKeys(imports),
		Functions: sortedKeys(functions),
		Comments:  sortedKeys(comments),
		Files:     scanned,
	}
}

func addAll(set map[string]struct{}, items []string) {
	for _, item := range items {
		if item != "" {
			set[item] = struct{}{}
		}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var word = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// SummarizeKeywords reduces items to their max most frequent lower-cased words,
// ties kept in order of first appearance. When there are more items than max
// the summary ends with ", and N more...".
func SummarizeKeywords(items []string, max int) string {
	if len(items) == 0 {
		return "No items found."
	}
	if max <= 0 {
		max = DefaultKeywords
	}

	counts := map[string]int{}
	var order []string
	for _, item := range items {
		for _, w := range word.FindAllString(item, -1) {
			w = strings.ToLower(w)
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
		}
	}

	ranked := slices.Clone(order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	if len(ranked) > max {
		ranked = ranked[:max]
	}

	summary := strings.Join(ranked, ", ")
	if len(items) > max {
		summary += fmt.Sprintf(", and %d more...", len(items)-max)
	}
	return summary
}

// LongestComments returns up to n comments, longest first.
func LongestComments(comments []string, n int) []string {
	sorted := slices.Clone(comments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
