package extract

import (
	"regexp"
	"strings"
	"time"
)

var (
	numericDateRe   = regexp.MustCompile(`\b(\d{1,4})[-/](\d{1,2})(?:[-/](\d{2,4}))?\b`)
	monthNameDateRe = regexp.MustCompile(`(?i)\b(?:(\d{1,2})(?:st|nd|rd|th)?\s+([a-z]{3,9})|([a-z]{3,9})\s+(\d{1,2})(?:st|nd|rd|th)?)(?:,?\s+(\d{4}))?\b`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Date extracts a travel date from the message and returns it in YYYY-MM-DD
// form. Relative phrases resolve against now; a date without a year is placed
// on the next occurrence of that calendar day, so extracted dates are never
// in the past.
func Date(message string, now time.Time) (string, bool) {
	lower := strings.ToLower(message)

	switch {
	case containsWord(lower, "today"):
		return formatDate(now), true
	case containsWord(lower, "tomorrow"):
		return formatDate(now.AddDate(0, 0, 1)), true
	case strings.Contains(lower, "next week"):
		return formatDate(now.AddDate(0, 0, 7)), true
	case strings.Contains(lower, "next month"):
		return formatDate(now.AddDate(0, 1, 0)), true
	}

	if m := numericDateRe.FindStringSubmatch(message); m != nil {
		if d, ok := parseNumericDate(m[1], m[2], m[3], now); ok {
			return formatDate(d), true
		}
	}

	if m := monthNameDateRe.FindStringSubmatch(message); m != nil {
		dayStr, monthStr := m[1], m[2]
		if dayStr == "" {
			dayStr, monthStr = m[4], m[3]
		}
		if month, ok := monthsByPrefix[prefix3(monthStr)]; ok {
			day := atoiSafe(dayStr)
			if day >= 1 && day <= 31 {
				year := atoiSafe(m[5])
				d := dateWithDefaultYear(year, month, day, now)
				return formatDate(d), true
			}
		}
	}

	return "", false
}

// parseNumericDate handles YYYY-MM-DD and DD/MM[/YYYY] forms.
func parseNumericDate(a, b, c string, now time.Time) (time.Time, bool) {
	first, second, third := atoiSafe(a), atoiSafe(b), atoiSafe(c)

	// Four-digit leading year: YYYY-MM-DD.
	if len(a) == 4 {
		if c == "" || second < 1 || second > 12 || third < 1 || third > 31 {
			return time.Time{}, false
		}
		return time.Date(first, time.Month(second), third, 0, 0, 0, 0, now.Location()), true
	}

	// Day-first form: DD/MM or DD/MM/YYYY.
	day, month, year := first, second, third
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	if year != 0 && year < 100 {
		year += 2000
	}
	return dateWithDefaultYear(year, time.Month(month), day, now), true
}

// dateWithDefaultYear builds a date, choosing the next future occurrence when
// no year was given.
func dateWithDefaultYear(year int, month time.Month, day int, now time.Time) time.Time {
	if year != 0 {
		return time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	}
	d := time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Before(today) {
		d = d.AddDate(1, 0, 0)
	}
	return d
}

// IsFutureDate reports whether a YYYY-MM-DD string is strictly after today.
func IsFutureDate(dateStr string, now time.Time) bool {
	d, err := time.ParseInLocation("2006-01-02", dateStr, now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return d.After(today)
}

// FormatDateForDisplay renders YYYY-MM-DD as "July 15, 2026" for prompts.
func FormatDateForDisplay(dateStr string) string {
	d, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return dateStr
	}
	return d.Format("January 2, 2006")
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func prefix3(s string) string {
	s = strings.ToLower(s)
	if len(s) < 3 {
		return s
	}
	return s[:3]
}
