// Package extract implements rule-based slot extraction from free text.
//
// It is the fallback behind the LLM extractor: every function is pure
// (message text in, optional value out) and safe to call with arbitrary user
// input. Matching is deliberately forgiving about case, typos, and phrasing.
package extract

import (
	"regexp"
	"strings"

	"github.com/voyagehq/farebot/internal/models"
)

var (
	wordRe      = regexp.MustCompile(`[a-zA-Z0-9]+`)
	iataRe      = regexp.MustCompile(`\b[A-Z]{3}\b`)
	countRe     = regexp.MustCompile(`(\d+)\s*(adult|child|infant|passenger|people|pax|person)`)
	bareNumRe   = regexp.MustCompile(`\b(\d+)\b`)
	selectionRe = regexp.MustCompile(`(?i)option\s*(\d+)`)
)

// Booking intent keywords, matched as substrings of the lower-cased message.
var bookingKeywords = []string{
	"book flight", "flight booking", "book a flight", "reserve flight",
	"fly to", "going to", "trip to", "want to fly", "need flight",
	"flight ticket", "air ticket", "flight search", "find flight", "check flight",
	"travel",
}

var resetKeywords = []string{
	"start over", "start again", "new booking", "new search", "restart", "reset",
}

var affirmativeWords = []string{"yes", "ok", "okay", "sure", "confirm", "proceed", "book it", "go ahead", "yep", "yeah"}

var negativeWords = []string{"no", "cancel", "stop", "quit", "exit", "abort", "nope"}

// DetectBookingIntent reports whether the message looks like a flight-booking
// request: either a direct keyword, or a known city next to a travel word.
func DetectBookingIntent(message string, cities []models.City) bool {
	lower := strings.ToLower(message)
	for _, kw := range bookingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	if len(Cities(message, cities)) > 0 {
		for _, w := range []string{"to", "from", "going", "visiting", "travel"} {
			if containsWord(lower, w) {
				return true
			}
		}
	}
	return false
}

// IsReset reports whether the message asks to abandon the current booking and
// start from scratch.
func IsReset(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range resetKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IsAffirmative reports whether the message reads as a yes.
func IsAffirmative(message string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, w := range affirmativeWords {
		if strings.Contains(w, " ") {
			if strings.Contains(lower, w) {
				return true
			}
		} else if containsWord(lower, w) {
			return true
		}
	}
	return false
}

// IsNegative reports whether the message reads as a no.
func IsNegative(message string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, w := range negativeWords {
		if containsWord(lower, w) {
			return true
		}
	}
	return false
}

// MatchCity resolves a single free-text city reference (name, alias, or IATA
// code) against the city table. Matching is case-insensitive and tolerates a
// one-character edit for references of five characters or more.
func MatchCity(query string, cities []models.City) (models.City, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return models.City{}, false
	}
	for _, c := range cities {
		for _, key := range cityKeys(c) {
			if q == key {
				return c, true
			}
		}
	}
	if len(q) < 5 {
		return models.City{}, false
	}
	for _, c := range cities {
		for _, key := range cityKeys(c) {
			if len(key) >= 5 && editDistanceAtMostOne(q, key) {
				return c, true
			}
		}
	}
	return models.City{}, false
}

// Cities extracts city references from a message in order of appearance, so
// "delhi to dubai" yields Delhi before Dubai. Each city appears at most once.
func Cities(message string, cities []models.City) []models.City {
	lower := strings.ToLower(message)
	words := wordRe.FindAllStringIndex(lower, -1)

	type hit struct {
		pos  int
		city models.City
	}
	var hits []hit
	seen := make(map[string]bool)

	add := func(pos int, c models.City) {
		if seen[c.IATA] {
			return
		}
		seen[c.IATA] = true
		hits = append(hits, hit{pos: pos, city: c})
	}

	for i, span := range words {
		word := lower[span[0]:span[1]]
		// Two-word names first (abu dhabi, new york) so the single-word pass
		// does not swallow their halves.
		if i+1 < len(words) {
			next := words[i+1]
			pair := word + " " + lower[next[0]:next[1]]
			if c, ok := MatchCity(pair, cities); ok {
				add(span[0], c)
				continue
			}
		}
		if len(word) < 3 {
			continue
		}
		if c, ok := MatchCity(word, cities); ok {
			add(span[0], c)
		}
	}

	// Exact upper-case IATA codes anywhere in the original message.
	for _, loc := range iataRe.FindAllStringIndex(message, -1) {
		if c, ok := MatchCity(message[loc[0]:loc[1]], cities); ok {
			add(loc[0], c)
		}
	}

	// Preserve order of appearance.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	out := make([]models.City, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.city)
	}
	return out
}

func cityKeys(c models.City) []string {
	keys := []string{strings.ToLower(c.Name), strings.ToLower(c.IATA)}
	for _, a := range c.Aliases {
		keys = append(keys, strings.ToLower(a))
	}
	return keys
}

// PassengerCounts extracts adult/child/infant counts. The second return is
// false when the message contains no recognizable count at all.
func PassengerCounts(message string) (models.PassengerCounts, bool) {
	lower := strings.ToLower(message)
	counts := models.PassengerCounts{}
	found := false

	for _, m := range countRe.FindAllStringSubmatch(lower, -1) {
		n := atoiSafe(m[1])
		switch m[2] {
		case "adult":
			counts.Adults = n
		case "child":
			counts.Children = n
		case "infant":
			counts.Infants = n
		case "passenger", "people", "pax", "person":
			counts.Adults = n
		}
		found = true
	}

	if !found {
		if strings.Contains(lower, "just me") || strings.Contains(lower, "only me") || strings.Contains(lower, "myself") || containsWord(lower, "solo") || containsWord(lower, "alone") {
			return models.PassengerCounts{Adults: 1}, true
		}
		for word, n := range numberWords {
			if containsWord(lower, word) {
				return models.PassengerCounts{Adults: n}, true
			}
		}
		if m := bareNumRe.FindStringSubmatch(lower); m != nil {
			n := atoiSafe(m[1])
			if n >= 1 && n <= models.MaxPassengersPerBooking {
				return models.PassengerCounts{Adults: n}, true
			}
		}
		return counts, false
	}
	return counts, true
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9,
}

// Selection extracts a numbered flight choice: "2", "option 2", "second".
func Selection(message string) (int, bool) {
	trimmed := strings.TrimSpace(strings.Trim(strings.TrimSpace(message), "*"))
	if m := selectionRe.FindStringSubmatch(trimmed); m != nil {
		return atoiSafe(m[1]), true
	}
	if n := atoiSafe(trimmed); n > 0 {
		return n, true
	}
	ordinals := map[string]int{
		"first": 1, "1st": 1, "second": 2, "2nd": 2, "third": 3, "3rd": 3,
		"fourth": 4, "4th": 4, "fifth": 5, "5th": 5,
	}
	lower := strings.ToLower(trimmed)
	for word, n := range ordinals {
		if containsWord(lower, word) {
			return n, true
		}
	}
	return 0, false
}

func containsWord(lower, word string) bool {
	for _, w := range wordRe.FindAllString(lower, -1) {
		if w == word {
			return true
		}
	}
	return false
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// editDistanceAtMostOne reports whether a and b differ by at most one
// substitution, insertion, or deletion.
func editDistanceAtMostOne(a, b string) bool {
	if a == b {
		return true
	}
	la, lb := len(a), len(b)
	if la > lb {
		a, b, la, lb = b, a, lb, la
	}
	if lb-la > 1 {
		return false
	}
	for i := 0; i < la; i++ {
		if a[i] != b[i] {
			if la == lb {
				return a[i+1:] == b[i+1:]
			}
			return a[i:] == b[i+1:]
		}
	}
	return true
}
