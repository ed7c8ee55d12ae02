// Package categorization suggests tags and categories for free-text expense
// descriptions and provides full-text search over saved expenses. Suggestions
// are advisory only; nothing here overrides what an import mapping resolved.
package categorization

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"

	"github.com/casaledger/casa-ledger/internal/domain/refdata"
)

// Suggestion is one advisory match against an expense description.
type Suggestion struct {
	Kind     string `json:"kind"` // "tag" or "category"
	ID       string `json:"id"`
	Name     string `json:"name"`
	Keyword  string `json:"keyword"`
	Priority int    `json:"-"`
}

// Suggester matches catalog keywords against descriptions using an
// Aho-Corasick automaton, so a whole batch scans in a single pass per row
// regardless of how many keywords the catalog carries.
type Suggester struct {
	mu       sync.RWMutex
	matcher  *ahocorasick.Matcher
	patterns []string
	metadata [][]Suggestion
}

// NewSuggester builds the automaton from the catalog's tag keywords, tag
// names and category names.
func NewSuggester(catalog *refdata.Catalog) *Suggester {
	s := &Suggester{}
	s.Rebuild(catalog)
	return s
}

// Rebuild reconstructs the automaton. Called when the catalog changes.
func (s *Suggester) Rebuild(catalog *refdata.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()

	patternToIndex := make(map[string]int)
	var patterns []string
	var metadata [][]Suggestion

	add := func(keyword string, sg Suggestion) {
		keyword = strings.ToUpper(strings.TrimSpace(keyword))
		if keyword == "" {
			return
		}
		sg.Keyword = keyword
		if idx, ok := patternToIndex[keyword]; ok {
			metadata[idx] = append(metadata[idx], sg)
			return
		}
		patternToIndex[keyword] = len(patterns)
		patterns = append(patterns, keyword)
		metadata = append(metadata, []Suggestion{sg})
	}

	for _, tag := range catalog.Tags() {
		// Curated keywords outrank the tag's own name.
		for _, kw := range tag.Keywords {
			add(kw, Suggestion{Kind: "tag", ID: tag.ID, Name: tag.Name, Priority: 100 + len(kw)})
		}
		add(tag.Name, Suggestion{Kind: "tag", ID: tag.ID, Name: tag.Name, Priority: 10 + len(tag.Name)})
	}
	for _, cat := range catalog.Categories() {
		add(cat.Name, Suggestion{Kind: "category", ID: cat.ID, Name: cat.Name, Priority: 10 + len(cat.Name)})
	}

	s.patterns = patterns
	s.metadata = metadata
	if len(patterns) == 0 {
		s.matcher = nil
		return
	}
	bytePatterns := make([][]byte, len(patterns))
	for i, p := range patterns {
		bytePatterns[i] = []byte(p)
	}
	s.matcher = ahocorasick.NewMatcher(bytePatterns)
}

// Suggest returns the best tag and best category suggestion for the
// description, either of which may be absent.
func (s *Suggester) Suggest(description string) []Suggestion {
	all := s.SuggestAll(description)
	if len(all) == 0 {
		return nil
	}

	var out []Suggestion
	seen := make(map[string]bool, 2)
	for _, sg := range all {
		if !seen[sg.Kind] {
			seen[sg.Kind] = true
			out = append(out, sg)
		}
	}
	return out
}

// SuggestAll returns every keyword hit sorted by priority, highest first.
func (s *Suggester) SuggestAll(description string) []Suggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.matcher == nil {
		return nil
	}
	hits := s.matcher.Match([]byte(strings.ToUpper(description)))
	if len(hits) == 0 {
		return nil
	}

	var out []Suggestion
	for _, idx := range hits {
		if idx >= 0 && idx < len(s.metadata) {
			out = append(out, s.metadata[idx]...)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Priority > out[j-1].Priority; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// SuggestBatch suggests for many descriptions under one lock.
func (s *Suggester) SuggestBatch(descriptions []string) [][]Suggestion {
	out := make([][]Suggestion, len(descriptions))
	for i, d := range descriptions {
		out[i] = s.Suggest(d)
	}
	return out
}

// PatternCount reports how many distinct keywords the automaton holds.
func (s *Suggester) PatternCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.patterns)
}
