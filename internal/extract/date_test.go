package extract

import (
	"testing"
	"time"
)

var dateNow = time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)

func TestDate(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
		found   bool
	}{
		{"today", "I need to fly today", "2026-06-01", true},
		{"tomorrow", "tomorrow please", "2026-06-02", true},
		{"next week", "sometime next week", "2026-06-08", true},
		{"next month", "next month works", "2026-07-01", true},
		{"iso date", "on 2026-09-15", "2026-09-15", true},
		{"day month name", "15 July", "2026-07-15", true},
		{"ordinal day", "on the 3rd August", "2026-08-03", true},
		{"month name day", "July 15", "2026-07-15", true},
		{"month day with year", "July 15, 2027", "2027-07-15", true},
		{"slash date no year rolls forward", "15/03", "2027-03-15", true},
		{"slash date with year", "15/03/2027", "2027-03-15", true},
		{"past month rolls to next year", "10 January", "2027-01-10", true},
		{"no date", "whenever is fine", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, found := Date(tc.message, dateNow)
			if found != tc.found {
				t.Fatalf("Date(%q) found=%v, want %v", tc.message, found, tc.found)
			}
			if found && got != tc.want {
				t.Errorf("Date(%q) = %s, want %s", tc.message, got, tc.want)
			}
		})
	}
}

func TestIsFutureDate(t *testing.T) {
	tests := []struct {
		date string
		want bool
	}{
		{"2026-06-02", true},
		{"2026-06-01", false}, // today is not strictly future
		{"2026-05-31", false},
		{"not-a-date", false},
	}
	for _, tc := range tests {
		if got := IsFutureDate(tc.date, dateNow); got != tc.want {
			t.Errorf("IsFutureDate(%q) = %v, want %v", tc.date, got, tc.want)
		}
	}
}

func TestFormatDateForDisplay(t *testing.T) {
	if got := FormatDateForDisplay("2026-07-15"); got != "July 15, 2026" {
		t.Errorf("FormatDateForDisplay = %q, want %q", got, "July 15, 2026")
	}
	// Unparseable input passes through untouched.
	if got := FormatDateForDisplay("soon"); got != "soon" {
		t.Errorf("FormatDateForDisplay(\"soon\") = %q", got)
	}
}
