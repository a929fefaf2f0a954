package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/marathon-cli/internal/model"
)

func TestMatch_NamelessPrimary(t *testing.T) {
	_, ok := Match(model.RawEvent{Date: "2026-04-20"}, []model.RawEvent{{Name: "부산 마라톤", Date: "2026-04-20"}}, DefaultThreshold)
	assert.False(t, ok)
}

func TestMatch_SkipsNamelessCandidates(t *testing.T) {
	secondary := []model.RawEvent{
		{Date: "2026-04-20"},
		{Name: "부산 마라톤", Date: "2026-04-20"},
	}
	cand, ok := Match(model.RawEvent{Name: "부산 마라톤", Date: "2026-04-20"}, secondary, DefaultThreshold)
	require.True(t, ok)
	assert.Equal(t, 1, cand.Index)
}

func TestMatch_EditionMarkerAndSpacing(t *testing.T) {
	primary := model.RawEvent{Name: "제22회 부산 국제 마라톤", Date: "2026-04-20"}
	secondary := []model.RawEvent{{Name: "부산국제마라톤대회", Date: "2026-04-20"}}

	cand, ok := Match(primary, secondary, DefaultThreshold)
	require.True(t, ok)
	assert.GreaterOrEqual(t, cand.Score, DefaultThreshold)
	assert.Equal(t, 0, cand.Index)
}

func TestMatch_BelowThreshold(t *testing.T) {
	primary := model.RawEvent{Name: "서울 마라톤", Date: "2026-03-15"}
	secondary := []model.RawEvent{{Name: "제주 트레일 러닝", Date: "2026-10-01"}}
	_, ok := Match(primary, secondary, DefaultThreshold)
	assert.False(t, ok)
}

func TestMatch_DateBonusCanCrossThreshold(t *testing.T) {
	primary := model.RawEvent{Name: "abcd", Date: "2026-05-01"}
	secondary := []model.RawEvent{{Name: "abxy", Date: "2026-05-02"}}

	// Name ratio alone is 0.5.
	cand, ok := Match(primary, secondary, DefaultThreshold)
	require.True(t, ok)
	assert.InDelta(t, 0.7, cand.Score, 1e-9)

	secondary[0].Date = "2026-06-01"
	_, ok = Match(primary, secondary, DefaultThreshold)
	assert.False(t, ok)
}

func TestMatch_FirstSeenWinsTies(t *testing.T) {
	primary := model.RawEvent{Name: "대구 마라톤"}
	secondary := []model.RawEvent{
		{Name: "대구 마라톤", Location: "first"},
		{Name: "대구 마라톤", Location: "second"},
	}
	cand, ok := Match(primary, secondary, DefaultThreshold)
	require.True(t, ok)
	assert.Equal(t, 0, cand.Index)
	assert.Equal(t, "first", cand.Event.Location)
}

func TestMatch_PicksHighestScore(t *testing.T) {
	primary := model.RawEvent{Name: "서울 국제 마라톤", Date: "2026-03-15"}
	secondary := []model.RawEvent{
		{Name: "서울 마라톤", Date: "2026-09-01"},
		{Name: "서울국제마라톤", Date: "2026-03-15"},
	}
	cand, ok := Match(primary, secondary, DefaultThreshold)
	require.True(t, ok)
	assert.Equal(t, 1, cand.Index)
}

func TestMatch_ThresholdMonotonic(t *testing.T) {
	primaries := []model.RawEvent{
		{Name: "2026 서울 마라톤", Date: "2026-03-15"},
		{Name: "제22회 부산 국제 마라톤", Date: "2026-04-20"},
		{Name: "춘천 마라톤", Date: "2026-10-25"},
		{Name: "abcd", Date: "2026-05-01"},
	}
	secondary := []model.RawEvent{
		{Name: "서울 마라톤 2026", Date: "2026-03-15"},
		{Name: "부산국제마라톤대회", Date: "2026-04-20"},
		{Name: "abxy", Date: "2026-05-02"},
	}

	accepted := func(threshold float64) map[int]bool {
		out := map[int]bool{}
		for i, p := range primaries {
			if _, ok := Match(p, secondary, threshold); ok {
				out[i] = true
			}
		}
		return out
	}

	thresholds := []float64{0.1, 0.3, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0, 1.1, 1.3}
	prev := accepted(thresholds[0])
	for _, th := range thresholds[1:] {
		cur := accepted(th)
		for i := range cur {
			assert.True(t, prev[i], "threshold %.2f accepted %d which a lower threshold rejected", th, i)
		}
		prev = cur
	}
}

func TestConfidenceFor(t *testing.T) {
	assert.Equal(t, model.ConfidenceHigh, ConfidenceFor(0.81))
	assert.Equal(t, model.ConfidenceHigh, ConfidenceFor(1.2))
	assert.Equal(t, model.ConfidenceMedium, ConfidenceFor(0.8))
	assert.Equal(t, model.ConfidenceMedium, ConfidenceFor(0.6))
}
