package reconcile

import (
	"github.com/sells-group/marathon-cli/internal/model"
)

const (
	// DefaultThreshold is the minimum score for a cross-source match.
	DefaultThreshold = 0.6
	// HighConfidenceScore is the score a match must exceed to be rated high.
	HighConfidenceScore = 0.8
)

// Candidate is the best secondary listing found for a primary listing.
type Candidate struct {
	// Index is the candidate's position in the secondary slice.
	Index int
	Event model.RawEvent
	// Score is name similarity plus date bonus and may exceed 1.
	Score float64
}

// Score rates how likely two listings describe the same event.
func Score(primary, secondary model.RawEvent) float64 {
	s := Similarity(NormalizeName(primary.Name), NormalizeName(secondary.Name))
	return s + DateBonusFor(primary.Date, secondary.Date)
}

// Match returns the highest-scoring secondary listing for primary when its
// score reaches threshold. Ties keep the first candidate in input order.
//
// Matching is greedy per primary listing with no exclusivity: the same
// secondary listing can be the best match for several primary listings.
func Match(primary model.RawEvent, secondary []model.RawEvent, threshold float64) (Candidate, bool) {
	if primary.Name == "" {
		return Candidate{}, false
	}
	best := Candidate{Index: -1}
	for i, cand := range secondary {
		if cand.Name == "" {
			continue
		}
		score := Score(primary, cand)
		if score > best.Score {
			best = Candidate{Index: i, Event: cand, Score: score}
		}
	}

	if best.Index < 0 || best.Score < threshold {
		return Candidate{}, false
	}
	return best, true
}

// ConfidenceFor maps a match score to a confidence tier.
func ConfidenceFor(score float64) model.Confidence {
	if score > HighConfidenceScore {
		return model.ConfidenceHigh
	}
	return model.ConfidenceMedium
}
