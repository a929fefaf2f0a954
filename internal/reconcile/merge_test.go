package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/marathon-cli/internal/model"
)

func sampleFeeds() ([]model.RawEvent, []model.RawEvent) {
	primary := []model.RawEvent{
		{Name: "2026 서울 마라톤", Date: "2026-03-15", Location: "서울", Link: "http://www.roadrun.co.kr/schedule/view.php?no=1"},
		{Name: "제22회 부산 국제 마라톤", Date: "2026-04-20", Link: "http://www.roadrun.co.kr/schedule/view.php?no=2"},
		{Name: "제주 울트라 트레일", Date: "2026-11-01", Location: "제주"},
	}
	secondary := []model.RawEvent{
		{Name: "서울 마라톤 2026", Date: "2026-03-15", Location: "서울 광장", Status: "접수중"},
		{Name: "부산국제마라톤대회", Date: "2026-04-20", Location: "부산 해운대", Status: "접수마감"},
		{Name: "광주 하프 마라톤", Date: "2026-06-07", Location: "광주", Status: "접수예정"},
	}
	return primary, secondary
}

func TestReconcile_MatchedPairs(t *testing.T) {
	primary, secondary := sampleFeeds()
	out := Reconcile(primary, secondary)
	require.Len(t, out, 4)

	seoul := out[0]
	assert.Equal(t, "2026 서울 마라톤", seoul.Name)
	assert.Equal(t, model.ValidationSourceBoth, seoul.Validation.Source)
	assert.True(t, seoul.Validation.CrossValidated)
	assert.Equal(t, model.ConfidenceHigh, seoul.Validation.Confidence)
	assert.Equal(t, "서울", seoul.Location, "primary location is never replaced")
	assert.Empty(t, seoul.LocationSource)
	assert.Equal(t, "2026-03-15", seoul.SecondaryDate)
	assert.Equal(t, "접수중", seoul.RegistrationStatus)

	busan := out[1]
	assert.Equal(t, "제22회 부산 국제 마라톤", busan.Name)
	assert.Equal(t, "2026-04-20", busan.Date)
	assert.True(t, busan.Validation.CrossValidated)
	assert.GreaterOrEqual(t, busan.Validation.MatchScore, DefaultThreshold)
	assert.Equal(t, "부산 해운대", busan.Location)
	assert.Equal(t, model.SecondarySourceName, busan.LocationSource)
	assert.Equal(t, "접수마감", busan.RegistrationStatus)
}

func TestReconcile_PrimaryOnly(t *testing.T) {
	primary, secondary := sampleFeeds()
	out := Reconcile(primary, secondary)

	jeju := out[2]
	assert.Equal(t, "제주 울트라 트레일", jeju.Name)
	assert.Equal(t, model.Validation{Source: model.ValidationSourcePrimary, Confidence: model.ConfidenceLow}, jeju.Validation)
	assert.Empty(t, jeju.SecondaryDate)
}

func TestReconcile_SecondaryOnlyAppendedLast(t *testing.T) {
	primary, secondary := sampleFeeds()
	out := Reconcile(primary, secondary)

	gwangju := out[3]
	assert.Equal(t, "광주 하프 마라톤", gwangju.Name)
	assert.Equal(t, "2026-06-07", gwangju.Date)
	assert.Equal(t, "광주", gwangju.Location)
	assert.Equal(t, "접수예정", gwangju.RegistrationStatus)
	assert.Empty(t, gwangju.Link)
	assert.Equal(t, model.Validation{Source: model.ValidationSourceSecondaryOnly, Confidence: model.ConfidenceMedium}, gwangju.Validation)
}

func TestReconcile_MatchScoreRounded(t *testing.T) {
	primary, secondary := sampleFeeds()
	out := Reconcile(primary, secondary)
	// 12/17 + 0.2 = 0.90588...
	assert.InDelta(t, 0.91, out[0].Validation.MatchScore, 1e-9)
}

func TestReconcile_EmptyPrimary(t *testing.T) {
	_, secondary := sampleFeeds()
	out := Reconcile(nil, secondary)
	require.Len(t, out, len(secondary))
	for i, ev := range out {
		assert.Equal(t, secondary[i].Name, ev.Name)
		assert.Equal(t, model.ValidationSourceSecondaryOnly, ev.Validation.Source)
		assert.False(t, ev.Validation.CrossValidated)
		assert.InDelta(t, 0.0, ev.Validation.MatchScore, 1e-9)
	}
}

func TestReconcile_EmptySecondary(t *testing.T) {
	primary, _ := sampleFeeds()
	out := Reconcile(primary, nil)
	require.Len(t, out, len(primary))
	for _, ev := range out {
		assert.Equal(t, model.ValidationSourcePrimary, ev.Validation.Source)
		assert.Equal(t, model.ConfidenceLow, ev.Validation.Confidence)
	}
}

func TestReconcile_SecondaryCanMatchSeveralPrimaries(t *testing.T) {
	primary := []model.RawEvent{
		{Name: "대구 마라톤", Date: "2026-04-05"},
		{Name: "2026 대구 마라톤", Date: "2026-04-05"},
	}
	secondary := []model.RawEvent{{Name: "대구 마라톤", Date: "2026-04-05", Status: "접수중"}}

	out := Reconcile(primary, secondary)
	require.Len(t, out, 2, "consumed secondary is not re-emitted")
	assert.True(t, out[0].Validation.CrossValidated)
	assert.True(t, out[1].Validation.CrossValidated)
}

func TestReconcile_IdenticalSecondariesTrackedByPosition(t *testing.T) {
	primary := []model.RawEvent{{Name: "대구 마라톤"}}
	secondary := []model.RawEvent{
		{Name: "대구 마라톤", Location: "대구"},
		{Name: "대구 마라톤", Location: "대구"},
	}

	out := Reconcile(primary, secondary)
	require.Len(t, out, 2)
	assert.Equal(t, model.ValidationSourceBoth, out[0].Validation.Source)
	assert.Equal(t, model.ValidationSourceSecondaryOnly, out[1].Validation.Source)
}

func TestReconcile_UsesRegistrationStatusFallback(t *testing.T) {
	primary := []model.RawEvent{{Name: "대구 마라톤", RegistrationStatus: "unknown"}}
	secondary := []model.RawEvent{{Name: "대구 마라톤", RegistrationStatus: "접수중"}}

	out := Reconcile(primary, secondary)
	assert.Equal(t, "접수중", out[0].RegistrationStatus)
}

func TestReconciler_CustomThreshold(t *testing.T) {
	primary := []model.RawEvent{{Name: "abcd", Date: "2026-05-01"}}
	secondary := []model.RawEvent{{Name: "abxy", Date: "2026-05-02"}}

	assert.True(t, New(0.6).Reconcile(primary, secondary)[0].Validation.CrossValidated)
	assert.False(t, New(0.75).Reconcile(primary, secondary)[0].Validation.CrossValidated)
	assert.InDelta(t, DefaultThreshold, New(0).Threshold, 1e-9)
}

func TestSummarize(t *testing.T) {
	primary, secondary := sampleFeeds()
	s := Summarize(Reconcile(primary, secondary))

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.CrossValidated)
	assert.Equal(t, 2, s.HighConfidence)
	assert.Equal(t, 1, s.PrimaryOnly)
	assert.Equal(t, 1, s.SecondaryOnly)
	assert.InDelta(t, 50.0, s.ValidationRate, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Total)
	assert.InDelta(t, 0.0, s.ValidationRate, 1e-9)
}
