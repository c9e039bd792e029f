package tags

import (
	"math"
	"slices"
	"strings"
)

// DefaultThreshold is the similarity score, inclusive, at which two tags count
// as the same tag.
const DefaultThreshold = 80

// Merge folds tag lists into one with DefaultThreshold. See MergeWithThreshold.
func Merge(lists ...TagList) TagList {
	return MergeWithThreshold(DefaultThreshold, lists...)
}

// MergeWithThreshold walks the lists in order and keeps each tag unless it scores
// >= threshold against a tag already kept. It then drops every kept tag that is a
// case-sensitive substring of another kept tag ("Type" next to "TypeScript").
//
// The substring pass is a single pass in first-seen order and is not iterated to a
// fixed point, so chains of three or more nested tags can depend on input order.
func MergeWithThreshold(threshold int, lists ...TagList) TagList {
	tags := TagList{}
	for _, list := range lists {
		for _, item := range list {
			if !hasNearDuplicate(tags, item, threshold) {
				tags = append(tags, item)
			}
		}
	}
	return collapseAbbreviations(tags)
}

func hasNearDuplicate(accepted TagList, item string, threshold int) bool {
	for _, existing := range accepted {
		if Ratio(item, existing) >= threshold {
			return true
		}
	}
	return false
}

func collapseAbbreviations(tags TagList) TagList {
	final := slices.Clone(tags)
	for _, item := range tags {
		for _, other := range tags {
			if item == other || !strings.Contains(item, other) {
				continue
			}
			if idx := slices.Index(final, other); idx >= 0 {
				final = slices.Delete(final, idx, idx+1)
			}
		}
	}
	return final
}

// Ratio scores the similarity of a and b from 0 to 100, ignoring case. It is the
// normalized indel similarity 2*LCS/(len(a)+len(b)) over runes, rounded half to even.
func Ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	total := len(ra) + len(rb)
	distance := total - 2*lcsLength(ra, rb)
	return int(math.RoundToEven(100 * float64(total-distance) / float64(total)))
}

func lcsLength(a, b []rune) int {
	if len(b) > len(a) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
