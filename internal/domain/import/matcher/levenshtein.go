package matcher

import "strings"

// Distance is the case-insensitive Levenshtein edit distance between a and b:
// the minimum number of single-character insertions, deletions or
// substitutions turning one into the other. Lower is a closer match.
func Distance(a, b string) int {
	return levenshtein(strings.ToLower(a), strings.ToLower(b))
}

// levenshtein computes edit distance over runes using two rolling rows.
func levenshtein(s1, s2 string) int {
	if len(s1) == 0 {
		return len([]rune(s2))
	}
	if len(s2) == 0 {
		return len([]rune(s1))
	}

	r1 := []rune(s1)
	r2 := []rune(s2)

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)

	for j := 0; j <= len(r2); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
