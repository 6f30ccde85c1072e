package models

// Intent classifies what the user is trying to do with a message.
type Intent string

const (
	IntentBooking Intent = "flight_booking"
	IntentReset   Intent = "reset"
	IntentOther   Intent = "other"
)

// Analysis is the result of running a message through an extractor. Empty
// string or zero fields mean the extractor found nothing for that slot;
// Confidence below the manager's threshold causes the next extractor in the
// priority chain to be consulted.
type Analysis struct {
	Intent          Intent  `json:"intent"`
	SourceCity      string  `json:"source_city,omitempty"`
	DestinationCity string  `json:"destination_city,omitempty"`
	DepartureDate   string  `json:"departure_date,omitempty"`
	Adults          int     `json:"adults,omitempty"`
	Children        int     `json:"children,omitempty"`
	Infants         int     `json:"infants,omitempty"`
	CountsFound     bool    `json:"counts_found,omitempty"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning,omitempty"`
}
