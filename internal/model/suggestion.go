package model

import "sort"

// Suggestion pairs a category with a heuristic score. Scores come from the
// category memory and live on a 0-100-ish scale; they are intentionally not
// clamped, so a receipt with many matching signals can exceed 100.
type Suggestion struct {
	Category string
	Score    float64
}

// Suggestions is a ranked sequence of category suggestions.
type Suggestions []Suggestion

// Len implements sort.Interface.
func (s Suggestions) Len() int {
	return len(s)
}

// Less implements sort.Interface - higher scores come first, and equal scores
// fall back to category name so the ordering never depends on map iteration.
func (s Suggestions) Less(i, j int) bool {
	if s[i].Score != s[j].Score {
		return s[i].Score > s[j].Score
	}
	return s[i].Category < s[j].Category
}

// Swap implements sort.Interface.
func (s Suggestions) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// Sort sorts the suggestions by score in descending order.
func (s Suggestions) Sort() {
	sort.Sort(s)
}

// Top returns the highest-scoring suggestion, or nil if empty.
func (s Suggestions) Top() *Suggestion {
	if len(s) == 0 {
		return nil
	}
	s.Sort()
	return &s[0]
}

// TopN returns the N highest-scoring suggestions.
func (s Suggestions) TopN(n int) Suggestions {
	if n <= 0 {
		return Suggestions{}
	}

	s.Sort()

	if n > len(s) {
		n = len(s)
	}

	result := make(Suggestions, n)
	copy(result, s[:n])
	return result
}

// Categories returns just the category names, in ranked order.
func (s Suggestions) Categories() []string {
	s.Sort()
	names := make([]string, len(s))
	for i, sg := range s {
		names[i] = sg.Category
	}
	return names
}
