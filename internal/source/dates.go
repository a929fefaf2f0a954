package source

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	fullDateRe  = regexp.MustCompile(`^(\d{4})\s*[-./년]\s*(\d{1,2})\s*[-./월]\s*(\d{1,2})`)
	monthDayRe  = regexp.MustCompile(`^(\d{1,2})\s*[/.]\s*(\d{1,2})`)
	koreanMDRe  = regexp.MustCompile(`(\d{1,2})\s*월\s*(\d{1,2})\s*일`)
	shortDateRe = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{2})$`)
)

// normalizeListDate converts a listing date cell to YYYY-MM-DD. Cells that
// omit the year take it from now. Unrecognized text yields "".
func normalizeListDate(raw string, now time.Time) string {
	if m := fullDateRe.FindStringSubmatch(raw); m != nil {
		return isoDate(m[1], m[2], m[3])
	}
	year := strconv.Itoa(now.Year())
	if m := monthDayRe.FindStringSubmatch(raw); m != nil {
		return isoDate(year, m[1], m[2])
	}
	if m := koreanMDRe.FindStringSubmatch(raw); m != nil {
		return isoDate(year, m[1], m[2])
	}
	return ""
}

// normalizeShortDate converts "YY.MM.DD" to "20YY-MM-DD".
func normalizeShortDate(raw string) string {
	m := shortDateRe.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return isoDate("20"+m[1], m[2], m[3])
}

func isoDate(y, m, d string) string {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}
