package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/voyagehq/farebot/internal/airline"
	"github.com/voyagehq/farebot/internal/extract"
	"github.com/voyagehq/farebot/internal/models"
	"github.com/voyagehq/farebot/internal/util"
)

// handleGreeting detects booking intent and harvests any slots already present
// in the first message, then jumps to the first missing slot's state.
func (m *Manager) handleGreeting(ctx context.Context, sess *models.Session, msg string) string {
	analysis := m.analyze(ctx, msg, sess.Data)

	switch analysis.Intent {
	case models.IntentReset:
		sess.ResetSlots()
		return promptResetDone
	case models.IntentBooking:
		m.applySlots(sess, analysis)
		return m.advance(sess)
	default:
		return promptWelcome
	}
}

func (m *Manager) handleCollectSource(ctx context.Context, sess *models.Session, msg string) string {
	analysis := m.analyze(ctx, msg, sess.Data)
	if analysis.Intent == models.IntentReset {
		sess.ResetSlots()
		return promptResetDone
	}

	name := analysis.SourceCity
	if name == "" {
		name = analysis.DestinationCity
	}
	if name == "" {
		name = msg
	}
	city, ok := m.airline.LookupCity(name)
	if !ok {
		return m.retryOrHandoff(sess, promptUnknownCity)
	}

	sess.Data.SourceCity = &city
	m.applySlots(sess, analysis)
	return m.advance(sess)
}

func (m *Manager) handleCollectDestination(ctx context.Context, sess *models.Session, msg string) string {
	analysis := m.analyze(ctx, msg, sess.Data)
	if analysis.Intent == models.IntentReset {
		sess.ResetSlots()
		return promptResetDone
	}

	name := analysis.DestinationCity
	if name == "" {
		name = analysis.SourceCity
	}
	if name == "" {
		name = msg
	}
	city, ok := m.airline.LookupCity(name)
	if !ok {
		return m.retryOrHandoff(sess, promptUnknownCity)
	}
	if sess.Data.SourceCity != nil && city.IATA == sess.Data.SourceCity.IATA {
		return m.retryOrHandoff(sess, promptSameCity)
	}
	if sess.Data.SourceCity != nil && !m.airline.ValidateRoute(sess.Data.SourceCity.IATA, city.IATA) {
		return m.retryOrHandoff(sess, m.noRouteMessage(*sess.Data.SourceCity, city))
	}

	sess.Data.DestinationCity = &city
	m.applySlots(sess, analysis)
	return m.advance(sess)
}

func (m *Manager) handleCollectDate(ctx context.Context, sess *models.Session, msg string) string {
	analysis := m.analyze(ctx, msg, sess.Data)
	if analysis.Intent == models.IntentReset {
		sess.ResetSlots()
		return promptResetDone
	}

	date := analysis.DepartureDate
	if date == "" {
		if d, ok := extract.Date(msg, m.nowFunc()); ok {
			date = d
		}
	}
	if date == "" {
		return m.retryOrHandoff(sess, promptInvalidDate)
	}
	if !extract.IsFutureDate(date, m.nowFunc()) {
		return m.retryOrHandoff(sess, promptPastDate)
	}

	sess.Data.DepartureDate = date
	m.applySlots(sess, analysis)
	return m.advance(sess)
}

func (m *Manager) handleCollectPassengers(ctx context.Context, sess *models.Session, msg string) string {
	analysis := m.analyze(ctx, msg, sess.Data)
	if analysis.Intent == models.IntentReset {
		sess.ResetSlots()
		return promptResetDone
	}

	var counts models.PassengerCounts
	found := false
	if analysis.CountsFound {
		counts = models.PassengerCounts{Adults: analysis.Adults, Children: analysis.Children, Infants: analysis.Infants}
		found = true
	} else if c, ok := extract.PassengerCounts(msg); ok {
		counts = c
		found = true
	}
	if !found {
		return m.retryOrHandoff(sess, promptInvalidPassengers)
	}

	switch counts.Validate() {
	case models.ErrNoAdults:
		return m.retryOrHandoff(sess, promptNoAdults)
	case models.ErrTooManyPassengers:
		return m.retryOrHandoff(sess, promptTooManyPassengers)
	}

	sess.Data.Counts = counts
	sess.Data.CountsSet = true
	return m.advance(sess)
}

func (m *Manager) handleCollectSelection(ctx context.Context, sess *models.Session, msg string) string {
	if len(sess.Data.AvailableFlights) == 0 {
		// Nothing shown yet, re-run the search instead of parsing a choice.
		return m.advance(sess)
	}

	n, ok := extract.Selection(msg)
	if !ok {
		return m.retryOrHandoff(sess, promptInvalidSelection)
	}
	if n < 1 || n > len(sess.Data.AvailableFlights) {
		return m.retryOrHandoff(sess, promptSelectionOutOfRange)
	}

	flight := sess.Data.AvailableFlights[n-1]
	sess.Data.SelectedFlight = &flight
	sess.SetState(models.StateCollectPassengerDetails)

	return fmt.Sprintf("✅ Great choice! You've selected:\n\n%s\n\n👤 Now I need details for passenger 1 of %d.\n\n%s",
		flight.FormatForDisplay(n), sess.Data.Counts.Adults, promptPassengerDetailsFormat)
}

func (m *Manager) handleCollectPassengerDetails(sess *models.Session, msg string) string {
	passenger, ok := extract.PassengerDetails(msg)
	if !ok {
		return m.retryOrHandoff(sess, promptInvalidPassengerDetails)
	}

	sess.Data.Passengers = append(sess.Data.Passengers, passenger)
	needed := sess.Data.Counts.Adults

	if len(sess.Data.Passengers) < needed {
		sess.SetState(models.StateCollectPassengerDetails)
		return fmt.Sprintf("✅ Got it, %s!\n\n👤 Now details for passenger %d of %d.\n\n%s",
			passenger.FullName(), len(sess.Data.Passengers)+1, needed, promptPassengerDetailsFormat)
	}

	sess.SetState(models.StateCollectSSR)
	return "✅ All passenger details received!\n\n" + promptAskSSR
}

func (m *Manager) handleCollectSSR(sess *models.Session, msg string) string {
	lower := strings.ToLower(msg)
	if extract.IsNegative(msg) || strings.Contains(lower, "skip") || strings.Contains(lower, "none") || strings.Contains(lower, "nothing") {
		sess.SetState(models.StateConfirmBooking)
		return m.confirmationSummary(sess)
	}

	requests := extract.SSRRequests(msg)
	if len(requests) == 0 {
		return m.retryOrHandoff(sess, promptInvalidSSR)
	}

	var added []string
	for _, r := range requests {
		if ssr, ok := airline.ResolveSSR(r.Type, r.Preference); ok {
			sess.Data.SSRs = append(sess.Data.SSRs, ssr)
			added = append(added, ssr.Description)
		}
	}
	if len(added) == 0 {
		return m.retryOrHandoff(sess, promptInvalidSSR)
	}

	sess.SetState(models.StateConfirmBooking)
	return fmt.Sprintf("✅ Added: %s\n\n%s", strings.Join(added, ", "), m.confirmationSummary(sess))
}

// handleConfirmBooking reads yes/no before anything else, so "cancel" here
// declines the booking rather than restarting the conversation.
func (m *Manager) handleConfirmBooking(ctx context.Context, sess *models.Session, msg string) string {
	switch {
	case extract.IsAffirmative(msg):
		return m.performBooking(ctx, sess)
	case extract.IsNegative(msg), extract.IsReset(msg):
		sess.ResetSlots()
		sess.SetState(models.StateCompleted)
		return promptBookingCancelled
	default:
		return m.retryOrHandoff(sess, promptConfirmHint)
	}
}

func (m *Manager) handleCompleted(ctx context.Context, sess *models.Session, msg string) string {
	lower := strings.ToLower(msg)
	if sess.Data.BookingConfirmed && strings.Contains(lower, "thank") {
		return promptCompletedThanks
	}
	sess.ResetSlots()
	return m.handleGreeting(ctx, sess, msg)
}

// applySlots fills any still-missing slots from an analysis. Values that fail
// validation are ignored so the dedicated state can re-ask with guidance.
func (m *Manager) applySlots(sess *models.Session, a models.Analysis) {
	data := &sess.Data

	if data.SourceCity == nil && a.SourceCity != "" {
		if c, ok := m.airline.LookupCity(a.SourceCity); ok {
			data.SourceCity = &c
		}
	}
	if data.DestinationCity == nil && a.DestinationCity != "" {
		if c, ok := m.airline.LookupCity(a.DestinationCity); ok {
			if data.SourceCity == nil || c.IATA != data.SourceCity.IATA {
				data.DestinationCity = &c
			}
		}
	}
	if data.DepartureDate == "" && a.DepartureDate != "" && extract.IsFutureDate(a.DepartureDate, m.nowFunc()) {
		data.DepartureDate = a.DepartureDate
	}
	if !data.CountsSet && a.CountsFound {
		counts := models.PassengerCounts{Adults: a.Adults, Children: a.Children, Infants: a.Infants}
		if counts.Validate() == nil {
			data.Counts = counts
			data.CountsSet = true
		}
	}
}

// advance moves the session to the first state whose slot is still missing,
// or shows flights once every search slot is filled.
func (m *Manager) advance(sess *models.Session) string {
	data := &sess.Data

	if data.SourceCity == nil {
		sess.SetState(models.StateCollectSource)
		return promptAskSource
	}
	if data.DestinationCity == nil {
		sess.SetState(models.StateCollectDestination)
		return promptAskDestination
	}
	if !m.airline.ValidateRoute(data.SourceCity.IATA, data.DestinationCity.IATA) {
		src, dst := *data.SourceCity, *data.DestinationCity
		data.DestinationCity = nil
		sess.SetState(models.StateCollectDestination)
		return m.noRouteMessage(src, dst)
	}
	if data.DepartureDate == "" {
		sess.SetState(models.StateCollectDate)
		return promptAskDate
	}
	if !data.CountsSet {
		sess.SetState(models.StateCollectPassengers)
		return promptAskPassengers
	}
	return m.showFlights(sess)
}

// showFlights runs the search. An empty result returns the session to the
// date step with the city slots intact.
func (m *Manager) showFlights(sess *models.Session) string {
	data := &sess.Data
	flights := m.airline.SearchFlights(data.SourceCity.IATA, data.DestinationCity.IATA, data.DepartureDate, data.Counts)
	if len(flights) == 0 {
		data.AvailableFlights = nil
		data.DepartureDate = ""
		sess.SetState(models.StateCollectDate)
		return promptNoFlights
	}

	data.AvailableFlights = flights
	sess.SetState(models.StateCollectSelection)

	header := fmt.Sprintf("🔍 *%s → %s* on %s for %d passenger(s)\n\n",
		data.SourceCity.Name, data.DestinationCity.Name,
		extract.FormatDateForDisplay(data.DepartureDate), data.Counts.Total())
	return header + airline.FormatFlightList(flights)
}

func (m *Manager) noRouteMessage(src, dst models.City) string {
	destinations := m.airline.DestinationsFrom(src.IATA)
	if len(destinations) == 0 {
		return fmt.Sprintf("❌ Sorry, we have no flights departing from %s at the moment. Which other city could you fly from?", src.Name)
	}
	names := make([]string, 0, len(destinations))
	for _, d := range destinations {
		names = append(names, d.Name)
	}
	return fmt.Sprintf("❌ Sorry, we don't fly %s → %s.\n\n✈️ From %s you can fly to: %s.\n\nWhich destination would you like?",
		src.Name, dst.Name, src.Name, strings.Join(names, ", "))
}

// confirmationSummary renders the booking review shown before confirmation.
func (m *Manager) confirmationSummary(sess *models.Session) string {
	data := sess.Data
	var sb strings.Builder
	sb.WriteString("📋 *Booking Summary*\n\n")
	if f := data.SelectedFlight; f != nil {
		sb.WriteString(fmt.Sprintf("✈️ *Flight:* %s %s\n", f.Airline, f.FlightID))
		sb.WriteString(fmt.Sprintf("🛫 *Route:* %s → %s\n", data.SourceCity.Name, data.DestinationCity.Name))
		sb.WriteString(fmt.Sprintf("📅 *Date:* %s\n", extract.FormatDateForDisplay(data.DepartureDate)))
		sb.WriteString(fmt.Sprintf("🕐 *Time:* %s - %s\n", f.DepartureTime, f.ArrivalTime))
		sb.WriteString(fmt.Sprintf("💰 *Total:* %s\n", models.FormatCurrency(f.Price, f.Currency)))
	}
	sb.WriteString("\n👥 *Passengers:*\n")
	for _, p := range data.Passengers {
		sb.WriteString(fmt.Sprintf("• %s\n", p.FullName()))
	}
	if len(data.SSRs) > 0 {
		sb.WriteString("\n🛎️ *Special requests:*\n")
		for _, ssr := range data.SSRs {
			sb.WriteString(fmt.Sprintf("• %s\n", ssr.Description))
		}
	}
	sb.WriteString("\n" + promptConfirmHint)
	return sb.String()
}

// performBooking runs the create, special-request, and ticketing calls in
// strict order. A failure at any step stops the sequence and reports a support
// reference; completed steps are not rolled back.
func (m *Manager) performBooking(ctx context.Context, sess *models.Session) string {
	flight := sess.Data.SelectedFlight
	if flight == nil {
		return m.bookingFailure(sess, "no flight selected", nil)
	}
	contactEmail := sess.Phone + "@customers.farebot.example"

	booking, err := m.airline.CreateBooking(ctx, *flight, sess.Data.Passengers, contactEmail, sess.Phone)
	if err != nil {
		return m.bookingFailure(sess, "create booking", err)
	}
	if len(sess.Data.SSRs) > 0 {
		if err := m.airline.AddSpecialRequests(ctx, booking.PNR, sess.Data.SSRs); err != nil {
			return m.bookingFailure(sess, "add special requests", err)
		}
	}
	if err := m.airline.IssueTicket(ctx, booking.PNR); err != nil {
		return m.bookingFailure(sess, "issue ticket", err)
	}

	sess.Data.PNR = booking.PNR
	sess.Data.BookingConfirmed = true
	sess.SetState(models.StateCompleted)

	if final := m.airline.GetBooking(booking.PNR); final != nil {
		return final.ConfirmationMessage()
	}
	return booking.ConfirmationMessage()
}

func (m *Manager) bookingFailure(sess *models.Session, step string, err error) string {
	ref := util.GenerateSupportReference()
	slog.Error("Manager.performBooking: booking step failed",
		"phone", sess.Phone, "step", step, "error", err, "reference", ref)
	sess.SetState(models.StateCompleted)
	return fmt.Sprintf(promptBookingFailed, ref)
}
