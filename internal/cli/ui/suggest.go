package ui

import (
	"sort"
	"strings"
)

const (
	// DefaultMaxDistance is the maximum edit distance considered a match
	DefaultMaxDistance = 3
	// DefaultMaxSuggestions caps how many suggestions are returned
	DefaultMaxSuggestions = 3
)

// SuggestIDs finds registered identifiers close to a mistyped one. Matching
// is case-insensitive; for dotted ids like namespace.statement the local part
// is also compared on its own, so "findUser" still suggests
// "users.findUser".
func SuggestIDs(target string, candidates []string) []string {
	type scored struct {
		value    string
		distance int
	}
	lower := strings.ToLower(target)
	var matches []scored
	for _, candidate := range candidates {
		dist := levenshtein(lower, strings.ToLower(candidate))
		if i := strings.LastIndex(candidate, "."); i >= 0 {
			if local := levenshtein(lower, strings.ToLower(candidate[i+1:])); local < dist {
				dist = local
			}
		}
		if dist <= DefaultMaxDistance {
			matches = append(matches, scored{candidate, dist})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].value < matches[j].value
	})
	out := make([]string, 0, DefaultMaxSuggestions)
	for i := 0; i < len(matches) && i < DefaultMaxSuggestions; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

// levenshtein is the minimum number of single-character edits turning s1
// into s2.
func levenshtein(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := 0; j <= len(s2); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = minOf(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}

func minOf(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
