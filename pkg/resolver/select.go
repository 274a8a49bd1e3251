package resolver

import "sort"

// Select picks the winning candidate: highest score, then most trusted
// tier, then earliest extracted. It returns nil for an empty list and does
// not reorder its input.
func Select(candidates []*Candidate) *Candidate {
	if len(candidates) == 0 {
		return nil
	}
	ranked := append([]*Candidate(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		return a.order < b.order
	})
	return ranked[0]
}
