// Package matcher provides edit-distance matching of free-text CSV headers
// and category names against the canonical field and category vocabulary.
package matcher

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const (
	// FieldThreshold is the maximum alias distance at which a header still
	// binds to a canonical field.
	FieldThreshold = 2

	// CategoryThreshold is the maximum distance at which a column header
	// still binds to a canonical category. Looser than FieldThreshold since
	// category names vary more.
	CategoryThreshold = 5
)

// AliasDistance returns the minimum Distance between the trimmed header and
// any alias registered for the field.
func AliasDistance(header string, field Field) int {
	h := strings.ToLower(strings.TrimSpace(header))
	best := -1
	for _, alias := range Aliases(field) {
		d := Distance(h, alias)
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}

// ClosestName finds the entry of names nearest to value. Returns the index
// and distance of the winner; ties keep the first entry (stable order).
// A -1 index means names was empty.
func ClosestName(value string, names []string) (int, int) {
	v := strings.ToLower(strings.TrimSpace(value))
	bestIdx, bestDist := -1, -1
	for i, name := range names {
		d := Distance(v, name)
		if bestIdx < 0 || d < bestDist {
			bestIdx, bestDist = i, d
		}
	}
	return bestIdx, bestDist
}

// Candidate is a ranked match produced by RankCandidates.
type Candidate struct {
	Value string
	Index int
	Score int // 0-100, higher is better
}

// Score rates how well two strings match on a 0-100 scale. It blends the
// edit-distance ratio with subsequence ranking so that "Txn Date" still
// scores well against "transaction date". Used for the mapping editor's
// ranked suggestions; binding decisions use raw Distance thresholds.
func Score(a, b string) int {
	s1 := strings.ToLower(strings.TrimSpace(a))
	s2 := strings.ToLower(strings.TrimSpace(b))
	if s1 == s2 {
		return 100
	}

	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen == 0 {
		return 0
	}

	levScore := 100 * (maxLen - Distance(s1, s2)) / maxLen

	subseqScore := 0
	if rank := fuzzy.RankMatch(s2, s1); rank >= 0 && rank < len(s1) {
		// Earlier subsequence start means a stronger resemblance.
		subseqScore = 60 - (rank * 40 / len(s1))
	}

	if levScore > subseqScore {
		return levScore
	}
	return subseqScore
}

// RankCandidates scores value against every candidate and returns them
// ordered best-first, capped at limit (0 means no cap).
func RankCandidates(value string, candidates []string, limit int) []Candidate {
	ranked := make([]Candidate, 0, len(candidates))
	for i, c := range candidates {
		ranked = append(ranked, Candidate{Value: c, Index: i, Score: Score(value, c)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}
