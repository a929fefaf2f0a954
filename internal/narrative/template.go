package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/marathon-cli/internal/model"
)

const (
	templateHeader = "오늘의 상세한 마라톤 대회 소식입니다!\n\n"
	templateFooter = "\n위 내용을 참고하여 참가를 신청해보세요!"

	maxDescriptionRunes = 500
)

// Template renders events without an LLM.
type Template struct{}

func (Template) Generate(_ context.Context, events []model.Event) (string, error) {
	if len(events) == 0 {
		return EmptyScript, nil
	}
	return templateHeader + EventsText(events) + templateFooter, nil
}

// EventsText renders one labelled block per event, each followed by a
// blank line. Optional fields are written only when set.
func EventsText(events []model.Event) string {
	var b strings.Builder
	for _, ev := range events {
		status := string(ev.DataStatus)
		if status == "" {
			status = string(model.DataStatusNew)
		}
		fmt.Fprintf(&b, "--- Event (%s) ---\n", strings.ToUpper(status))
		fmt.Fprintf(&b, "Title: %s\n", orNA(ev.Name))
		date := ev.DateTime
		if date == "" {
			date = ev.Date
		}
		fmt.Fprintf(&b, "Date: %s\n", orNA(date))
		fmt.Fprintf(&b, "Location: %s\n", orNA(ev.Location))
		optional(&b, "Category", ev.Category)
		optional(&b, "Organizer", ev.Organizer)
		optional(&b, "Registration", ev.RegistrationPeriod)
		optional(&b, "Website", ev.Website)
		optional(&b, "Changes", ev.ChangeLog)
		if ev.Description != "" {
			optional(&b, "Details", truncateDescription(ev.Description))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func optional(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func truncateDescription(s string) string {
	r := []rune(s)
	if len(r) <= maxDescriptionRunes {
		return s
	}
	return string(r[:maxDescriptionRunes]) + "..."
}
