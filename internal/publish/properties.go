package publish

import (
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/sells-group/marathon-cli/internal/model"
)

// Database property names.
const (
	PropTitle              = "대회명"
	PropAIManaged          = "AI자동생성여부"
	PropLocation           = "장소"
	PropRegistrationPeriod = "(예상) 접수 시기"
	PropHomepage           = "홈페이지"
	PropCrossValidated     = "교차검증여부"
	PropEventDate          = "대회날짜"
	PropRegistrationStart  = "접수 시작일"
	PropRegistrationEnd    = "접수 종료일"
	PropReminder           = "[알림용] 접수 시작"
)

const (
	selectYes         = "Y"
	maxSelectRunes    = 100
	periodDateLayout  = "2006.01.02"
	reminderHourOfDay = 9
)

var kst = time.FixedZone("KST", 9*60*60)

// ParseRegistrationPeriod splits "YYYY.MM.DD ~ YYYY.MM.DD" into start and
// end dates. Either side that does not parse is returned as nil.
func ParseRegistrationPeriod(period string) (start, end *time.Time) {
	left, right, ok := strings.Cut(period, "~")
	if !ok {
		return nil, nil
	}
	parse := func(s string) *time.Time {
		t, err := time.Parse(periodDateLayout, strings.TrimSpace(s))
		if err != nil {
			return nil
		}
		return &t
	}
	return parse(left), parse(right)
}

// Properties maps an event onto database page properties. Empty optional
// fields are omitted rather than sent as nulls.
func Properties(ev model.Event) notionapi.Properties {
	props := notionapi.Properties{
		PropTitle: notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: ev.Name}}},
		},
		PropAIManaged: notionapi.SelectProperty{Select: notionapi.Option{Name: selectYes}},
	}

	if ev.Location != "" {
		props[PropLocation] = notionapi.SelectProperty{Select: notionapi.Option{Name: truncateRunes(ev.Location, maxSelectRunes)}}
	}
	if ev.RegistrationPeriod != "" {
		props[PropRegistrationPeriod] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: ev.RegistrationPeriod}}},
		}
	}
	if ev.Link != "" {
		props[PropHomepage] = notionapi.URLProperty{URL: ev.Link}
	}
	if ev.Validation.CrossValidated {
		props[PropCrossValidated] = notionapi.SelectProperty{Select: notionapi.Option{Name: selectYes}}
	}
	if d, err := time.Parse("2006-01-02", ev.Date); err == nil {
		props[PropEventDate] = dateProperty(d)
	}

	start, end := ParseRegistrationPeriod(ev.RegistrationPeriod)
	if start != nil {
		props[PropRegistrationStart] = dateProperty(*start)
		reminder := time.Date(start.Year(), start.Month(), start.Day(), reminderHourOfDay, 0, 0, 0, kst)
		props[PropReminder] = dateProperty(reminder)
	}
	if end != nil {
		props[PropRegistrationEnd] = dateProperty(*end)
	}
	return props
}

func dateProperty(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(t)
	return notionapi.DateProperty{Date: &notionapi.DateObject{Start: &d}}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
