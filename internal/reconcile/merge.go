package reconcile

import (
	"math"

	"github.com/sells-group/marathon-cli/internal/model"
)

// Reconciler merges the primary and secondary feeds.
type Reconciler struct {
	Threshold float64
}

// New returns a Reconciler using threshold, or DefaultThreshold when threshold <= 0.
func New(threshold float64) *Reconciler {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Reconciler{Threshold: threshold}
}

// Reconcile merges both feeds with DefaultThreshold.
func Reconcile(primary, secondary []model.RawEvent) []model.Event {
	return New(DefaultThreshold).Reconcile(primary, secondary)
}

// Reconcile builds one event per primary listing, enriched from its matched
// secondary listing, followed by every secondary listing no primary claimed.
// Both groups keep their input order.
func (r *Reconciler) Reconcile(primary, secondary []model.RawEvent) []model.Event {
	out := make([]model.Event, 0, len(primary)+len(secondary))
	consumed := make(map[int]bool, len(secondary))

	for _, p := range primary {
		ev := model.FromRaw(p)
		ev.Validation = model.Validation{
			Source:     model.ValidationSourcePrimary,
			Confidence: model.ConfidenceLow,
		}

		if cand, ok := Match(p, secondary, r.Threshold); ok {
			consumed[cand.Index] = true
			ev.Validation = model.Validation{
				Source:         model.ValidationSourceBoth,
				CrossValidated: true,
				Confidence:     ConfidenceFor(cand.Score),
				MatchScore:     round2(cand.Score),
			}
			enrich(&ev, cand.Event)
		}
		out = append(out, ev)
	}

	for i, s := range secondary {
		if consumed[i] {
			continue
		}
		out = append(out, secondaryOnly(s))
	}
	return out
}

// enrich fills gaps in a primary-derived event from its secondary match.
func enrich(ev *model.Event, sec model.RawEvent) {
	if ev.Location == "" && sec.Location != "" {
		ev.Location = sec.Location
		ev.LocationSource = model.SecondarySourceName
	}
	if sec.Date != "" {
		ev.SecondaryDate = sec.Date
	}
	if status := secondaryStatus(sec); status != "" {
		ev.RegistrationStatus = status
	}
}

func secondaryOnly(s model.RawEvent) model.Event {
	return model.Event{
		Name:               s.Name,
		Date:               s.Date,
		Location:           s.Location,
		RegistrationStatus: secondaryStatus(s),
		ScrapedAt:          s.ScrapedAt,
		Validation: model.Validation{
			Source:     model.ValidationSourceSecondaryOnly,
			Confidence: model.ConfidenceMedium,
		},
	}
}

func secondaryStatus(s model.RawEvent) string {
	if s.Status != "" {
		return s.Status
	}
	return s.RegistrationStatus
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
