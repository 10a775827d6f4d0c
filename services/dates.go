package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO calendar format used for review dates.
const DateLayout = "2006-01-02"

// relativeDateRegexp captures phrases like "a month ago" or "3 weeks ago".
var relativeDateRegexp = regexp.MustCompile(`(?i)\b(an?|\d+)\s+(year|month|week|day)s?\s+ago\b`)

// NormalizeDate converts a relative review date ("3 months ago") into an
// absolute date, taking now as the reference point.
//
// Month and year phrases land on the 1st of the resulting month; week and day
// phrases subtract exact days. Unrecognised phrases return now's date.
func NormalizeDate(phrase string, now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	m := relativeDateRegexp.FindStringSubmatch(strings.TrimSpace(phrase))
	if m == nil {
		return today
	}

	n := 1
	if m[1][0] >= '0' && m[1][0] <= '9' {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			return today
		}
		n = v
	}

	switch strings.ToLower(m[2]) {
	case "year":
		return monthsBefore(today, n*12)
	case "month":
		return monthsBefore(today, n)
	case "week":
		return today.AddDate(0, 0, -7*n)
	default:
		return today.AddDate(0, 0, -n)
	}
}

// FormatReviewDate normalises phrase and renders it as YYYY-MM-DD.
func FormatReviewDate(phrase string, now time.Time) string {
	return NormalizeDate(phrase, now).Format(DateLayout)
}

// monthsBefore steps back n months from t and pins the day to the 1st.
func monthsBefore(t time.Time, n int) time.Time {
	total := t.Year()*12 + int(t.Month()) - 1 - n
	year := total / 12
	month := total%12 + 1
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, t.Location())
}
