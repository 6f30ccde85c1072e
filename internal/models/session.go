// Package models defines session state structures for FareBot conversations.
package models

import "time"

// ConversationState identifies where a session is in the linear booking flow.
type ConversationState string

const (
	StateGreeting                ConversationState = "greeting"
	StateCollectSource           ConversationState = "collect_source"
	StateCollectDestination      ConversationState = "collect_destination"
	StateCollectDate             ConversationState = "collect_date"
	StateCollectPassengers       ConversationState = "collect_passengers"
	StateShowFlights             ConversationState = "show_flights"
	StateCollectSelection        ConversationState = "collect_selection"
	StateCollectPassengerDetails ConversationState = "collect_passenger_details"
	StateCollectSSR              ConversationState = "collect_ssr"
	StateConfirmBooking          ConversationState = "confirm_booking"
	StateCompleted               ConversationState = "completed"
)

// SlotData holds the booking slots collected over a conversation.
type SlotData struct {
	SourceCity       *City       `json:"source_city,omitempty"`
	DestinationCity  *City       `json:"destination_city,omitempty"`
	DepartureDate    string      `json:"departure_date,omitempty"`
	ReturnDate       string      `json:"return_date,omitempty"`
	Counts           PassengerCounts `json:"counts"`
	CountsSet        bool        `json:"counts_set"`
	SelectedFlight   *Flight     `json:"selected_flight,omitempty"`
	AvailableFlights []Flight    `json:"available_flights,omitempty"`
	Passengers       []Passenger `json:"passengers,omitempty"`
	SSRs             []SSR       `json:"ssrs,omitempty"`
	PNR              string      `json:"pnr,omitempty"`
	BookingConfirmed bool        `json:"booking_confirmed"`
}

// Session tracks one user's progress through the booking conversation.
// Sessions are keyed by phone number and expire after a fixed inactivity
// window; a session has exactly one active booking attempt at a time.
type Session struct {
	Phone        string            `json:"phone"`
	State        ConversationState `json:"state"`
	Data         SlotData          `json:"data"`
	RetryCount   int               `json:"retry_count"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActivity time.Time         `json:"last_activity"`
}

// NewSession creates a fresh session in the greeting state.
func NewSession(phone string, now time.Time) *Session {
	return &Session{
		Phone:        phone,
		State:        StateGreeting,
		Data:         SlotData{Counts: PassengerCounts{Adults: 1}},
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Touch updates the last-activity timestamp.
func (s *Session) Touch(now time.Time) {
	s.LastActivity = now
}

// IsExpired reports whether the session has been inactive longer than timeout.
func (s *Session) IsExpired(now time.Time, timeout time.Duration) bool {
	return now.After(s.LastActivity.Add(timeout))
}

// SetState moves the session to a new state and clears the retry counter.
func (s *Session) SetState(state ConversationState) {
	s.State = state
	s.RetryCount = 0
}

// IncrementRetry bumps the retry counter for the current state.
func (s *Session) IncrementRetry() {
	s.RetryCount++
}

// ResetSlots discards all collected booking data and returns the session to
// the greeting state. Starting a new search always drops any partially
// completed booking attempt.
func (s *Session) ResetSlots() {
	s.Data = SlotData{Counts: PassengerCounts{Adults: 1}}
	s.SetState(StateGreeting)
}
