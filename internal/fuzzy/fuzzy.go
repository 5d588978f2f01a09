// Package fuzzy scores approximate string similarity on a 0-100 scale.
package fuzzy

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Normalize lowercases, strips punctuation and collapses whitespace.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Ratio is 100 * (len(a)+len(b)-indel) / (len(a)+len(b)), where indel is
// the insert/delete edit distance. A substitution costs two edits, so one
// differing letter in a short word drops the score below 80.
func Ratio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	matched := 2 * lcsLength(ra, rb)
	return int(math.RoundToEven(100 * float64(matched) / float64(total)))
}

// lcsLength returns the length of the longest common subsequence.
func lcsLength(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// PartialRatio is the best Ratio of the shorter string against every
// window of the same length in the longer one.
func PartialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	if len(short) == len(long) {
		return Ratio(a, b)
	}

	s := string(short)
	best := 0
	for i := 0; i+len(short) <= len(long); i++ {
		score := Ratio(s, string(long[i:i+len(short)]))
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio compares the two strings after sorting their tokens, so
// word order does not matter.
func TokenSortRatio(a, b string) int {
	return Ratio(sortedTokens(a), sortedTokens(b))
}

func sortedTokens(s string) string {
	tokens := strings.Fields(Normalize(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

type Match struct {
	Choice string
	Score  int
}

// Extract scores query against every choice and returns the best limit
// matches, highest first. Equal scores keep the order of choices.
func Extract(query string, choices []string, limit int, scorer func(a, b string) int) []Match {
	out := make([]Match, 0, len(choices))
	for _, c := range choices {
		out = append(out, Match{Choice: c, Score: scorer(query, c)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
