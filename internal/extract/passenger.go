package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/voyagehq/farebot/internal/models"
)

var passportRe = regexp.MustCompile(`^[A-Za-z0-9]{6,12}$`)

// Date-of-birth layouts accepted in passenger detail lines.
var dobLayouts = []string{
	"2-Jan-2006", "02-Jan-2006", "2 Jan 2006", "2 January 2006",
	"2006-01-02", "02/01/2006", "2/1/2006", "02-01-2006",
}

// PassengerDetails parses a "Full Name, Date of Birth, Passport, Nationality"
// line into a passenger record. The returned bool is false when the line does
// not follow the expected comma-separated shape.
func PassengerDetails(message string) (models.Passenger, bool) {
	parts := strings.Split(message, ",")
	if len(parts) < 4 {
		return models.Passenger{}, false
	}

	nameParts := strings.Fields(strings.TrimSpace(parts[0]))
	if len(nameParts) < 2 {
		return models.Passenger{}, false
	}
	firstName := nameParts[0]
	lastName := strings.Join(nameParts[1:], " ")

	dob, ok := parseDOB(strings.TrimSpace(parts[1]))
	if !ok {
		return models.Passenger{}, false
	}

	passport := strings.ToUpper(strings.TrimSpace(parts[2]))
	if !passportRe.MatchString(passport) {
		return models.Passenger{}, false
	}

	nationality := strings.TrimSpace(parts[3])
	if nationality == "" {
		return models.Passenger{}, false
	}

	return models.Passenger{
		FirstName:   firstName,
		LastName:    lastName,
		DateOfBirth: dob,
		Passport:    passport,
		Nationality: nationality,
	}, true
}

// SSRRequest is a recognized special-service keyword before catalog resolution.
type SSRRequest struct {
	Type       models.SSRType
	Preference string
}

// SSRRequests extracts special-service keywords from the message.
func SSRRequests(message string) []SSRRequest {
	lower := strings.ToLower(message)
	var requests []SSRRequest

	mealKeywords := []struct{ keyword, preference string }{
		{"vegetarian", "vegetarian"}, {"veg", "vegetarian"}, {"vegan", "vegan"},
		{"halal", "halal"}, {"kosher", "kosher"}, {"diabetic", "diabetic"},
		{"child meal", "child"},
	}
	for _, mk := range mealKeywords {
		match := strings.Contains(lower, mk.keyword)
		if mk.keyword == "veg" {
			// Bare "veg" must not double-fire on "vegan".
			match = containsWord(lower, "veg")
		}
		if match {
			requests = append(requests, SSRRequest{Type: models.SSRTypeMeal, Preference: mk.preference})
			break
		}
	}

	switch {
	case strings.Contains(lower, "legroom"):
		requests = append(requests, SSRRequest{Type: models.SSRTypeSeat, Preference: "extra_legroom"})
	case strings.Contains(lower, "window"):
		requests = append(requests, SSRRequest{Type: models.SSRTypeSeat, Preference: "window"})
	case strings.Contains(lower, "aisle"):
		requests = append(requests, SSRRequest{Type: models.SSRTypeSeat, Preference: "aisle"})
	}

	if strings.Contains(lower, "wheelchair") {
		requests = append(requests, SSRRequest{Type: models.SSRTypeAssistance, Preference: "wheelchair"})
	}
	if strings.Contains(lower, "extra baggage") || strings.Contains(lower, "additional baggage") {
		requests = append(requests, SSRRequest{Type: models.SSRTypeBaggage, Preference: "extra"})
	}
	if strings.Contains(lower, "sports equipment") {
		requests = append(requests, SSRRequest{Type: models.SSRTypeBaggage, Preference: "sports"})
	}

	return requests
}

func parseDOB(s string) (string, bool) {
	for _, layout := range dobLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format("2006-01-02"), true
		}
	}
	return "", false
}
