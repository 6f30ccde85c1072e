// Package models defines the core data structures for FareBot.
//
// It includes the flight, booking, and messaging types shared across modules.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation constants for booking input validation
const (
	// MaxPassengersPerBooking defines the maximum total passenger count per booking
	MaxPassengersPerBooking = 9
	// PNRLength defines the length of generated booking references
	PNRLength = 6
)

// Error variables for better error handling and testability
var (
	ErrEmptyRecipient      = errors.New("recipient cannot be empty")
	ErrUnknownCity         = errors.New("city could not be resolved")
	ErrSameCity            = errors.New("source and destination cannot be the same")
	ErrPastDate            = errors.New("departure date must be in the future")
	ErrNoAdults            = errors.New("at least one adult passenger is required")
	ErrTooManyPassengers   = errors.New("too many passengers for one booking")
	ErrFlightNotFound      = errors.New("flight not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrSelectionOutOfRange = errors.New("flight selection out of range")
)

// City is a read-only entry from the city lookup table.
type City struct {
	Name    string   `json:"name"`
	IATA    string   `json:"iata"`
	Country string   `json:"country"`
	Aliases []string `json:"aliases,omitempty"`
}

// Flight is a static record from the flight table. Price is the per-adult fare
// in minor units of Currency; search results carry the computed total instead.
type Flight struct {
	FlightID      string `json:"flight_id"`
	Airline       string `json:"airline"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
	Price         int    `json:"price"`
	Currency      string `json:"currency"`
	Duration      string `json:"duration"`
	Aircraft      string `json:"aircraft"`
}

// FormatForDisplay renders a flight as a numbered WhatsApp option.
func (f Flight) FormatForDisplay(index int) string {
	return fmt.Sprintf("✈️ *Option %d*\n🛫 %s - %s\n🕐 %s → %s\n💰 %s\n⏱️ Duration: %s\n✈️ Aircraft: %s",
		index, f.Airline, f.FlightID, f.DepartureTime, f.ArrivalTime, FormatCurrency(f.Price, f.Currency), f.Duration, f.Aircraft)
}

// FormatCurrency formats an amount with a thousands separator and symbol.
func FormatCurrency(amount int, currency string) string {
	formatted := groupDigits(amount)
	switch currency {
	case "INR":
		return "₹" + formatted
	case "USD":
		return "$" + formatted
	case "EUR":
		return "€" + formatted
	default:
		return formatted + " " + currency
	}
}

func groupDigits(amount int) string {
	s := fmt.Sprintf("%d", amount)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// Passenger holds the details collected for one traveller. Fields are
// validated with validator/v10 before a booking is created.
type Passenger struct {
	FirstName   string `json:"first_name" validate:"required,min=1,max=60"`
	LastName    string `json:"last_name" validate:"required,min=1,max=60"`
	DateOfBirth string `json:"dob" validate:"required,datetime=2006-01-02"`
	Passport    string `json:"passport_number" validate:"required,alphanum,min=6,max=12"`
	Nationality string `json:"nationality" validate:"required,min=2,max=40"`
}

// FullName returns the passenger's display name.
func (p Passenger) FullName() string {
	return p.FirstName + " " + p.LastName
}

// PassengerCounts groups the adult/child/infant counts for a search.
type PassengerCounts struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

// Total returns the combined passenger count.
func (c PassengerCounts) Total() int {
	return c.Adults + c.Children + c.Infants
}

// Validate enforces the booking passenger policy: adults >= 1 and no more
// than MaxPassengersPerBooking travellers in total.
func (c PassengerCounts) Validate() error {
	if c.Adults < 1 {
		return ErrNoAdults
	}
	if c.Total() > MaxPassengersPerBooking {
		return ErrTooManyPassengers
	}
	return nil
}

// SSRType categorizes special service requests.
type SSRType string

const (
	SSRTypeMeal       SSRType = "MEAL"
	SSRTypeSeat       SSRType = "SEAT"
	SSRTypeAssistance SSRType = "ASSISTANCE"
	SSRTypeBaggage    SSRType = "BAGGAGE"
)

// SSR is a special service request attached to a booking, identified by an
// industry code (VGML, WCHR, XBAG, ...).
type SSR struct {
	Type        SSRType `json:"type"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
}

// BookingStatus tracks the lifecycle of a booking.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking is created once a flight is selected and passenger details are
// complete. It transitions created -> services added -> ticketed.
type Booking struct {
	ID              string        `json:"id"`
	PNR             string        `json:"pnr"`
	Flight          Flight        `json:"flight"`
	Passengers      []Passenger   `json:"passengers"`
	ContactEmail    string        `json:"contact_email"`
	ContactPhone    string        `json:"contact_phone"`
	SpecialRequests []SSR         `json:"special_requests,omitempty"`
	BookedAt        time.Time     `json:"booked_at"`
	Status          BookingStatus `json:"status"`
	TicketIssued    bool          `json:"ticket_issued"`
}

// ConfirmationMessage renders the booking confirmation sent to the user.
func (b Booking) ConfirmationMessage() string {
	var sb strings.Builder
	sb.WriteString("🎫 *BOOKING CONFIRMED!*\n\n")
	sb.WriteString(fmt.Sprintf("📋 *PNR:* %s\n", b.PNR))
	sb.WriteString(fmt.Sprintf("✈️ *Flight:* %s %s\n", b.Flight.Airline, b.Flight.FlightID))
	sb.WriteString(fmt.Sprintf("🛫 *Route:* %s → %s\n", b.Flight.Origin, b.Flight.Destination))
	sb.WriteString(fmt.Sprintf("🕐 *Time:* %s - %s\n", b.Flight.DepartureTime, b.Flight.ArrivalTime))
	sb.WriteString(fmt.Sprintf("💰 *Price:* %s\n\n", FormatCurrency(b.Flight.Price, b.Flight.Currency)))

	if len(b.Passengers) == 1 {
		sb.WriteString(fmt.Sprintf("👤 *Passenger:* %s\n", b.Passengers[0].FullName()))
	} else {
		sb.WriteString("👥 *Passengers:*\n")
		for _, p := range b.Passengers {
			sb.WriteString(fmt.Sprintf("• %s\n", p.FullName()))
		}
	}

	if len(b.SpecialRequests) > 0 {
		sb.WriteString("\n🍽️ *Special Requests:*\n")
		for _, ssr := range b.SpecialRequests {
			sb.WriteString(fmt.Sprintf("• %s\n", ssr.Description))
		}
	}

	sb.WriteString(fmt.Sprintf("\n📧 Confirmation sent to: %s\n", b.ContactEmail))
	sb.WriteString(fmt.Sprintf("📱 SMS sent to: %s\n\n", b.ContactPhone))
	sb.WriteString(fmt.Sprintf("✅ *Status:* %s\n", b.Status))
	if b.TicketIssued {
		sb.WriteString("🎟️ *Ticket:* Issued\n")
	} else {
		sb.WriteString("🎟️ *Ticket:* Will be issued shortly\n")
	}
	sb.WriteString("\nThank you for booking with us! 🙏")
	return sb.String()
}

// StatusType represents the delivery status of an outbound message.
type StatusType string

const (
	StatusTypeSent      StatusType = "sent"
	StatusTypeDelivered StatusType = "delivered"
	StatusTypeRead      StatusType = "read"
)

// Receipt records a delivery or read event for an outbound message.
type Receipt struct {
	To     string     `json:"to"`
	Status StatusType `json:"status"`
	Time   int64      `json:"time"`
}

// Response is an incoming user message from any messaging channel.
type Response struct {
	From        string `json:"from"`
	Body        string `json:"body"`
	ContactName string `json:"contact_name,omitempty"`
	Time        int64  `json:"time"`
}
