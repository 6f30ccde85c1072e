// Package airline booking lifecycle: create, attach special requests, ticket.
package airline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/voyagehq/farebot/internal/models"
	"github.com/voyagehq/farebot/internal/util"
)

var validate = validator.New()

// now is stubbed in tests.
var now = time.Now

// CreateBooking creates a confirmed booking for the given flight and
// passengers and returns it with a freshly generated PNR. Passenger details
// are validated before the booking is accepted.
func (s *Service) CreateBooking(ctx context.Context, flight models.Flight, passengers []models.Passenger, contactEmail, contactPhone string) (*models.Booking, error) {
	if len(passengers) == 0 {
		return nil, models.ErrNoAdults
	}
	for i, p := range passengers {
		if err := validate.Struct(p); err != nil {
			return nil, fmt.Errorf("invalid details for passenger %d: %w", i+1, err)
		}
	}

	s.mu.Lock()

	pnr := util.GeneratePNR()
	for s.bookings[pnr] != nil {
		pnr = util.GeneratePNR()
	}

	booking := &models.Booking{
		ID:           uuid.NewString(),
		PNR:          pnr,
		Flight:       flight,
		Passengers:   passengers,
		ContactEmail: contactEmail,
		ContactPhone: contactPhone,
		BookedAt:     now(),
		Status:       models.BookingStatusConfirmed,
	}
	s.bookings[pnr] = booking
	event := newBookingEvent("booking.created", booking)
	s.mu.Unlock()

	slog.Info("airline.CreateBooking: booking created", "pnr", pnr, "flight", flight.FlightID, "passengers", len(passengers))
	s.publishEvent(ctx, event)
	return booking, nil
}

// AddSpecialRequests attaches SSR selections to an existing booking.
func (s *Service) AddSpecialRequests(ctx context.Context, pnr string, requests []models.SSR) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.bookings[pnr]
	if !ok {
		return fmt.Errorf("add special requests for %s: %w", pnr, models.ErrBookingNotFound)
	}
	booking.SpecialRequests = append(booking.SpecialRequests, requests...)

	slog.Debug("airline.AddSpecialRequests", "pnr", pnr, "count", len(requests))
	return nil
}

// IssueTicket marks the booking ticketed. Issuing a ticket twice is a no-op,
// so replayed confirmations never produce a second ticket.
func (s *Service) IssueTicket(ctx context.Context, pnr string) error {
	s.mu.Lock()

	booking, ok := s.bookings[pnr]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("issue ticket for %s: %w", pnr, models.ErrBookingNotFound)
	}
	if booking.TicketIssued {
		s.mu.Unlock()
		slog.Debug("airline.IssueTicket: ticket already issued", "pnr", pnr)
		return nil
	}
	booking.TicketIssued = true
	event := newBookingEvent("booking.ticketed", booking)
	s.mu.Unlock()

	slog.Info("airline.IssueTicket: ticket issued", "pnr", pnr)
	s.publishEvent(ctx, event)
	return nil
}

// GetBooking returns the booking for a PNR, or nil if it does not exist.
func (s *Service) GetBooking(pnr string) *models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bookings[pnr]; ok {
		copied := *b
		return &copied
	}
	return nil
}

// newBookingEvent snapshots a booking into an event payload. Callers must
// hold s.mu.
func newBookingEvent(eventType string, booking *models.Booking) BookingEvent {
	return BookingEvent{
		Type:         eventType,
		BookingID:    booking.ID,
		PNR:          booking.PNR,
		FlightID:     booking.Flight.FlightID,
		Passengers:   len(booking.Passengers),
		ContactPhone: booking.ContactPhone,
		Status:       string(booking.Status),
		Time:         now(),
	}
}

// publishEvent emits a booking lifecycle event when a publisher is configured.
// Event failures are logged and swallowed: the booking flow never depends on
// the event stream. The publisher may do network I/O, so callers must not
// hold s.mu.
func (s *Service) publishEvent(ctx context.Context, event BookingEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, s.topic, event.PNR, event); err != nil {
		slog.Warn("airline.publishEvent: failed to publish booking event", "error", err, "type", event.Type, "pnr", event.PNR)
	}
}
