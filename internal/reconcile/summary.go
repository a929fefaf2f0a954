package reconcile

import (
	"math"

	"github.com/sells-group/marathon-cli/internal/model"
)

// Summary tallies a reconciled batch.
type Summary struct {
	Total          int     `json:"total_events" yaml:"total_events"`
	CrossValidated int     `json:"cross_validated" yaml:"cross_validated"`
	HighConfidence int     `json:"high_confidence" yaml:"high_confidence"`
	PrimaryOnly    int     `json:"primary_only" yaml:"primary_only"`
	SecondaryOnly  int     `json:"secondary_only" yaml:"secondary_only"`
	ValidationRate float64 `json:"validation_rate" yaml:"validation_rate"` // percent, one decimal
}

// Summarize counts validation outcomes across events.
func Summarize(events []model.Event) Summary {
	s := Summary{Total: len(events)}
	for _, e := range events {
		if e.Validation.CrossValidated {
			s.CrossValidated++
		}
		if e.Validation.Confidence == model.ConfidenceHigh {
			s.HighConfidence++
		}
		switch e.Validation.Source {
		case model.ValidationSourcePrimary:
			s.PrimaryOnly++
		case model.ValidationSourceSecondaryOnly:
			s.SecondaryOnly++
		}
	}
	if s.Total > 0 {
		s.ValidationRate = math.Round(float64(s.CrossValidated)/float64(s.Total)*1000) / 10
	}
	return s
}
