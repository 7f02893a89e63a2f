package scoring

import "sort"

// Location pairs a candidate with its scoring input and, after ranking,
// its composite score and 1-based rank.
type Location struct {
	ID    string  `json:"id"`
	Input Input   `json:"input"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// Rank scores every location and returns a new slice ordered best first.
// Ties on score break on ascending ID so the ordering is reproducible
// regardless of input order.
func (s *Scorer) Rank(locations []Location) []Location {
	ranked := make([]Location, len(locations))
	copy(ranked, locations)

	for i := range ranked {
		ranked[i].Score = s.Score(ranked[i].Input)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
