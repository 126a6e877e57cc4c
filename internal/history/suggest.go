package history

import "strings"

// maxSuggestDistance bounds the edit distance of a spelling correction.
const maxSuggestDistance = 2

// Suggest rewrites each query term not present in terms to its closest known
// term. It returns "" when nothing was corrected.
func Suggest(query string, terms []string) string {
	known := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		known[t] = struct{}{}
	}
	words := strings.Fields(strings.ToLower(query))
	changed := false
	for i, w := range words {
		if _, ok := known[w]; ok {
			continue
		}
		best, bestDist := "", maxSuggestDistance+1
		for _, t := range terms {
			d := len([]rune(t)) - len([]rune(w))
			if d < 0 {
				d = -d
			}
			if d >= bestDist {
				continue
			}
			if dist := levenshtein(w, t); dist < bestDist || (dist == bestDist && t < best) {
				best, bestDist = t, dist
			}
		}
		if best != "" {
			words[i] = best
			changed = true
		}
	}
	if !changed {
		return ""
	}
	return strings.Join(words, " ")
}

// levenshtein returns the edit distance between a and b, in runes.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
