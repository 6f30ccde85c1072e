package flow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/voyagehq/farebot/internal/airline"
	"github.com/voyagehq/farebot/internal/models"
	"github.com/voyagehq/farebot/internal/session"
)

var flowNow = time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return flowNow }

// countingPublisher tallies booking events per type.
type countingPublisher struct {
	counts map[string]int
}

func (p *countingPublisher) Publish(ctx context.Context, topic, key string, payload any) error {
	if p.counts == nil {
		p.counts = make(map[string]int)
	}
	if event, ok := payload.(airline.BookingEvent); ok {
		p.counts[event.Type]++
	}
	return nil
}

func (p *countingPublisher) Close() error { return nil }

func newTestManager(t *testing.T) (*Manager, *session.InMemoryStore, *countingPublisher) {
	t.Helper()
	pub := &countingPublisher{}
	svc, err := airline.New(airline.WithEventPublisher(pub))
	if err != nil {
		t.Fatalf("failed to create airline service: %v", err)
	}
	sessions := session.NewInMemoryStore(session.WithClock(fixedClock))
	mgr, err := NewManager(sessions, svc,
		WithExtractor(NewRuleExtractor(svc.Cities(), fixedClock)),
		WithClock(fixedClock),
	)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	return mgr, sessions, pub
}

func send(t *testing.T, mgr *Manager, phone, msg string) string {
	t.Helper()
	reply, err := mgr.HandleMessage(context.Background(), phone, msg)
	if err != nil {
		t.Fatalf("HandleMessage(%q) failed: %v", msg, err)
	}
	return reply
}

func getState(t *testing.T, sessions *session.InMemoryStore, phone string) models.ConversationState {
	t.Helper()
	sess, err := sessions.GetSession(phone)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if sess == nil {
		t.Fatal("session not found")
	}
	return sess.State
}

func TestNewManagerRequiresExtractor(t *testing.T) {
	svc, err := airline.New()
	if err != nil {
		t.Fatalf("failed to create airline service: %v", err)
	}
	if _, err := NewManager(session.NewInMemoryStore(), svc); err == nil {
		t.Error("expected error when no extractors are configured")
	}
}

// failingExtractor always errors, like an LLM backend that is down.
type failingExtractor struct {
	calls int
}

func (e *failingExtractor) Analyze(ctx context.Context, message string, data models.SlotData) (models.Analysis, error) {
	e.calls++
	return models.Analysis{}, context.DeadlineExceeded
}

// hesitantExtractor returns a fixed analysis below the confidence cutoff.
type hesitantExtractor struct {
	calls    int
	analysis models.Analysis
}

func (e *hesitantExtractor) Analyze(ctx context.Context, message string, data models.SlotData) (models.Analysis, error) {
	e.calls++
	return e.analysis, nil
}

func TestFailingExtractorFallsBackToRules(t *testing.T) {
	pub := &countingPublisher{}
	svc, err := airline.New(airline.WithEventPublisher(pub))
	if err != nil {
		t.Fatalf("failed to create airline service: %v", err)
	}
	sessions := session.NewInMemoryStore(session.WithClock(fixedClock))
	failing := &failingExtractor{}
	mgr, err := NewManager(sessions, svc,
		WithExtractor(failing),
		WithExtractor(NewRuleExtractor(svc.Cities(), fixedClock)),
		WithClock(fixedClock),
	)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	phone := "919876543210"
	send(t, mgr, phone, "book a flight from Delhi to Dubai on 15 July for 1 adult")
	if got := getState(t, sessions, phone); got != models.StateCollectSelection {
		t.Errorf("state = %s, want %s", got, models.StateCollectSelection)
	}
	if failing.calls == 0 {
		t.Error("first extractor was never consulted")
	}

	sess, _ := sessions.GetSession(phone)
	if sess.Data.SourceCity == nil || sess.Data.SourceCity.IATA != "DEL" ||
		sess.Data.DestinationCity == nil || sess.Data.DestinationCity.IATA != "DXB" {
		t.Errorf("slots = %+v->%+v, want DEL->DXB from the fallback extractor", sess.Data.SourceCity, sess.Data.DestinationCity)
	}
}

func TestLowConfidenceExtractorIsSkipped(t *testing.T) {
	pub := &countingPublisher{}
	svc, err := airline.New(airline.WithEventPublisher(pub))
	if err != nil {
		t.Fatalf("failed to create airline service: %v", err)
	}
	sessions := session.NewInMemoryStore(session.WithClock(fixedClock))
	hesitant := &hesitantExtractor{analysis: models.Analysis{
		Intent:          models.IntentBooking,
		SourceCity:      "BOM",
		DestinationCity: "SIN",
		Confidence:      0.1,
	}}
	mgr, err := NewManager(sessions, svc,
		WithExtractor(hesitant),
		WithExtractor(NewRuleExtractor(svc.Cities(), fixedClock)),
		WithClock(fixedClock),
	)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	phone := "919876543210"
	send(t, mgr, phone, "book a flight from Delhi to Dubai")
	if hesitant.calls == 0 {
		t.Fatal("first extractor was never consulted")
	}

	sess, _ := sessions.GetSession(phone)
	if sess.Data.SourceCity == nil || sess.Data.SourceCity.IATA != "DEL" ||
		sess.Data.DestinationCity == nil || sess.Data.DestinationCity.IATA != "DXB" {
		t.Errorf("slots = %+v->%+v, want DEL->DXB; low-confidence cities must not stick", sess.Data.SourceCity, sess.Data.DestinationCity)
	}
}

func TestLastExtractorAcceptedRegardlessOfConfidence(t *testing.T) {
	pub := &countingPublisher{}
	svc, err := airline.New(airline.WithEventPublisher(pub))
	if err != nil {
		t.Fatalf("failed to create airline service: %v", err)
	}
	sessions := session.NewInMemoryStore(session.WithClock(fixedClock))
	hesitant := &hesitantExtractor{analysis: models.Analysis{
		Intent:     models.IntentBooking,
		SourceCity: "DEL",
		Confidence: 0.1,
	}}
	mgr, err := NewManager(sessions, svc,
		WithExtractor(hesitant),
		WithClock(fixedClock),
	)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	phone := "919876543210"
	send(t, mgr, phone, "book a flight from Delhi")
	if got := getState(t, sessions, phone); got != models.StateCollectDestination {
		t.Errorf("state = %s, want %s; the only extractor's answer should be used", got, models.StateCollectDestination)
	}
}

func TestGreetingWelcomesOnSmallTalk(t *testing.T) {
	mgr, sessions, _ := newTestManager(t)

	reply := send(t, mgr, "919876543210", "Hi")
	if !strings.Contains(reply, "Welcome to FareBot") {
		t.Errorf("greeting reply = %q, want welcome message", reply)
	}
	if got := getState(t, sessions, "919876543210"); got != models.StateGreeting {
		t.Errorf("state = %s, want %s", got, models.StateGreeting)
	}
}

func TestSlotBySlotReachesSelection(t *testing.T) {
	mgr, sessions, _ := newTestManager(t)
	phone := "919876543210"

	send(t, mgr, phone, "I want to book a flight")
	if got := getState(t, sessions, phone); got != models.StateCollectSource {
		t.Fatalf("after intent, state = %s, want %s", got, models.StateCollectSource)
	}

	send(t, mgr, phone, "Delhi")
	if got := getState(t, sessions, phone); got != models.StateCollectDestination {
		t.Fatalf("after source, state = %s, want %s", got, models.StateCollectDestination)
	}

	send(t, mgr, phone, "Dubai")
	if got := getState(t, sessions, phone); got != models.StateCollectDate {
		t.Fatalf("after destination, state = %s, want %s", got, models.StateCollectDate)
	}

	send(t, mgr, phone, "July 15")
	if got := getState(t, sessions, phone); got != models.StateCollectPassengers {
		t.Fatalf("after date, state = %s, want %s", got, models.StateCollectPassengers)
	}

	reply := send(t, mgr, phone, "1 adult")
	if got := getState(t, sessions, phone); got != models.StateCollectSelection {
		t.Fatalf("after passengers, state = %s, want %s", got, models.StateCollectSelection)
	}
	if !strings.Contains(reply, "Option 1") {
		t.Errorf("flight list reply = %q, want options", reply)
	}

	sess, _ := sessions.GetSession(phone)
	if len(sess.Data.AvailableFlights) == 0 {
		t.Error("expected available flights to be stored on the session")
	}
}

func TestCityFirstMessageStartsBooking(t *testing.T) {
	mgr, sessions, _ := newTestManager(t)
	phone := "919876543210"

	send(t, mgr, phone, "Delhi")
	send(t, mgr, phone, "Dubai")
	send(t, mgr, phone, "July 15")
	reply := send(t, mgr, phone, "1 adult")

	if got := getState(t, sessions, phone); got != models.StateCollectSelection {
		t.Fatalf("state = %s, want %s", got, models.StateCollectSelection)
	}
	if !strings.Contains(reply, "Option 1") {
		t.Errorf("reply = %q, want flight options", reply)
	}
}

func TestEmptySearchReturnsToDate(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	sess := models.NewSession("919876543210", flowNow)
	src, _ := mgr.airline.LookupCity("Delhi")
	dst, _ := mgr.airline.LookupCity("Abu Dhabi")
	sess.Data.SourceCity = &src
	sess.Data.DestinationCity = &dst
	sess.Data.DepartureDate = "2026-07-15"
	sess.Data.Counts = models.PassengerCounts{Adults: 1}
	sess.Data.CountsSet = true

	reply := mgr.showFlights(sess)
	if !strings.Contains(reply, "no flights") {
		t.Errorf("reply = %q, want no-flights message", reply)
	}
	if sess.State != models.StateCollectDate {
		t.Errorf("state = %s, want %s", sess.State, models.StateCollectDate)
	}
	if sess.Data.SourceCity == nil || sess.Data.DestinationCity == nil {
		t.Error("city slots should survive an empty search")
	}
	if len(sess.Data.AvailableFlights) != 0 {
		t.Error("no flights should be stored after an empty search")
	}
}

func TestOneShotMessageHarvestsAllSlots(t *testing.T) {
	mgr, sessions, _ := newTestManager(t)
	phone := "919876543210"

	reply := send(t, mgr, phone, "book a flight from Delhi to Dubai tomorrow for 2 adults")
	if got := getState(t, sessions, phone); got != models.StateCollectSelection {
		t.Fatalf("state = %s, want %s", got, models.StateCollectSelection)
	}
	if !strings.Contains(reply, "Delhi → Dubai") {
		t.Errorf("reply = %q, want route header", reply)
	}
	if !strings.Contains(reply, "2 passenger(s)") {
		t.Errorf("reply = %q, want passenger count in header", reply)
	}
}

func TestUnknownCityRetriesWithoutAdvancing(t *testing.T) {
	mgr, sessions, _ := newTestManager(t)
	phone := "447700900123"

	send(t, mgr, phone, "book a flight")
	reply := send(t, mgr, phone, "Gotham")

	if !strings.Contains(reply, "couldn't find that city") {
		t.Errorf("reply = %q, want unknown-city prompt", reply)
	}
	sess, _ := sessions.GetSession(phone)
	if sess.State != models.StateCollectSource {
		t.Errorf("state = %s, want %s", sess.State, models.StateCollectSource)
	}
	if sess.RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", sess.RetryCount)
	}
}

func TestRetriesExhaustedHandsOffToAgent(t *testing.T) {
	mgr, sessions, _ := newTestManager(t)
	phone := "447700900123"

	send(t, mgr, phone, "book a flight")
	send(t, mgr, phone, "Gotham")
	send(t, mgr, phone, "Metropolis")
	reply := send(t, mgr, phone, "Asgard")

	if !strings.Contains(reply, "support team") || !strings.Contains(reply, "FB-") {
		t.Errorf("reply = %q, want handoff with support reference", reply)
	}
	if got := getState(t, sessions, phone); got != models.StateCompleted {
		t.Errorf("state = %s, want %s", got, models.StateCompleted)
	}
}

func TestResetMidFlowClearsSlots(t *testing.T) {
	mgr, sessions, _ := newTestManager(t)
	phone := "919876543210"

	send(t, mgr, phone, "book a flight from Delhi")
	send(t, mgr, phone, "Dubai")
	reply := send(t, mgr, phone, "start over")

	if !strings.Contains(reply, "start fresh") {
		t.Errorf("reply = %q, want reset acknowledgement", reply)
	}
	sess, _ := sessions.GetSession(phone)
	if sess.State != models.StateGreeting {
		t.Errorf("state = %s, want %s", sess.State, models.StateGreeting)
	}
	if sess.Data.SourceCity != nil || sess.Data.DestinationCity != nil {
		t.Error("expected city slots to be cleared after reset")
	}
}

func TestSameCityDestinationRejected(t *testing.T) {
	mgr, sessions, _ := newTestManager(t)
	phone := "919876543210"

	send(t, mgr, phone, "book a flight")
	send(t, mgr, phone, "Delhi")
	reply := send(t, mgr, phone, "Delhi")

	if !strings.Contains(reply, "can't be the same") {
		t.Errorf("reply = %q, want same-city prompt", reply)
	}
	if got := getState(t, sessions, phone); got != models.StateCollectDestination {
		t.Errorf("state = %s, want %s", got, models.StateCollectDestination)
	}
}

func TestUnservedRouteSuggestsDestinations(t *testing.T) {
	mgr, sessions, _ := newTestManager(t)
	phone := "919876543210"

	send(t, mgr, phone, "book a flight")
	send(t, mgr, phone, "Dubai")
	// Dubai only serves Delhi, so Mumbai is not bookable from there.
	reply := send(t, mgr, phone, "Mumbai")

	if !strings.Contains(reply, "we don't fly") {
		t.Errorf("reply = %q, want no-route message", reply)
	}
	if !strings.Contains(reply, "you can fly to") {
		t.Errorf("reply = %q, want destination suggestions", reply)
	}
	if got := getState(t, sessions, phone); got != models.StateCollectDestination {
		t.Errorf("state = %s, want %s", got, models.StateCollectDestination)
	}
}

func TestPastDateRejected(t *testing.T) {
	mgr, sessions, _ := newTestManager(t)
	phone := "919876543210"

	send(t, mgr, phone, "book a flight from Delhi to Dubai")
	reply := send(t, mgr, phone, "2026-01-15")

	if !strings.Contains(reply, "already passed") {
		t.Errorf("reply = %q, want past-date prompt", reply)
	}
	if got := getState(t, sessions, phone); got != models.StateCollectDate {
		t.Errorf("state = %s, want %s", got, models.StateCollectDate)
	}
}

func TestPassengerCountValidation(t *testing.T) {
	mgr, sessions, _ := newTestManager(t)
	phone := "919876543210"

	send(t, mgr, phone, "book a flight from Delhi to Dubai on 15 July")

	reply := send(t, mgr, phone, "6 adults and 4 children")
	if !strings.Contains(reply, "at most 9 passengers") {
		t.Errorf("reply = %q, want group-size prompt", reply)
	}
	if got := getState(t, sessions, phone); got != models.StateCollectPassengers {
		t.Errorf("state = %s, want %s", got, models.StateCollectPassengers)
	}
}

func TestSelectionOutOfRange(t *testing.T) {
	mgr, sessions, _ := newTestManager(t)
	phone := "919876543210"

	send(t, mgr, phone, "book a flight from Delhi to Dubai tomorrow for 1 adult")
	reply := send(t, mgr, phone, "99")

	if !strings.Contains(reply, "isn't on the list") {
		t.Errorf("reply = %q, want out-of-range prompt", reply)
	}
	if got := getState(t, sessions, phone); got != models.StateCollectSelection {
		t.Errorf("state = %s, want %s", got, models.StateCollectSelection)
	}
}

// driveToConfirm walks a session to the confirmation step with one adult,
// one passenger record, and a vegetarian meal request.
func driveToConfirm(t *testing.T, mgr *Manager, sessions *session.InMemoryStore, phone string) {
	t.Helper()

	send(t, mgr, phone, "book a flight from Delhi to Dubai on 15 July for 1 adult")
	if got := getState(t, sessions, phone); got != models.StateCollectSelection {
		t.Fatalf("state = %s, want %s", got, models.StateCollectSelection)
	}

	send(t, mgr, phone, "1")
	if got := getState(t, sessions, phone); got != models.StateCollectPassengerDetails {
		t.Fatalf("state = %s, want %s", got, models.StateCollectPassengerDetails)
	}

	send(t, mgr, phone, "John Doe, 15-Mar-1990, A1234567, Indian")
	if got := getState(t, sessions, phone); got != models.StateCollectSSR {
		t.Fatalf("state = %s, want %s", got, models.StateCollectSSR)
	}

	reply := send(t, mgr, phone, "vegetarian meal")
	if !strings.Contains(reply, "Booking Summary") {
		t.Fatalf("reply = %q, want booking summary", reply)
	}
	if got := getState(t, sessions, phone); got != models.StateConfirmBooking {
		t.Fatalf("state = %s, want %s", got, models.StateConfirmBooking)
	}
}

func TestFullBookingConversation(t *testing.T) {
	mgr, sessions, pub := newTestManager(t)
	phone := "919876543210"

	driveToConfirm(t, mgr, sessions, phone)

	reply := send(t, mgr, phone, "yes")
	if !strings.Contains(reply, "BOOKING CONFIRMED") {
		t.Fatalf("reply = %q, want confirmation", reply)
	}
	if !strings.Contains(reply, "PNR") {
		t.Errorf("reply = %q, want PNR in confirmation", reply)
	}
	if !strings.Contains(reply, "John Doe") {
		t.Errorf("reply = %q, want passenger name", reply)
	}

	sess, _ := sessions.GetSession(phone)
	if sess.State != models.StateCompleted {
		t.Errorf("state = %s, want %s", sess.State, models.StateCompleted)
	}
	if !sess.Data.BookingConfirmed || sess.Data.PNR == "" {
		t.Errorf("session booking flags = confirmed %v, pnr %q", sess.Data.BookingConfirmed, sess.Data.PNR)
	}

	if pub.counts["booking.created"] != 1 || pub.counts["booking.ticketed"] != 1 {
		t.Errorf("event counts = %v, want one created and one ticketed", pub.counts)
	}
}

func TestDeclineAtConfirmCancels(t *testing.T) {
	mgr, sessions, pub := newTestManager(t)
	phone := "919876543210"

	driveToConfirm(t, mgr, sessions, phone)

	reply := send(t, mgr, phone, "no")
	if !strings.Contains(reply, "cancelled") {
		t.Errorf("reply = %q, want cancellation message", reply)
	}
	sess, _ := sessions.GetSession(phone)
	if sess.State != models.StateCompleted {
		t.Errorf("state = %s, want %s", sess.State, models.StateCompleted)
	}
	if sess.Data.SelectedFlight != nil {
		t.Error("expected slots to be cleared after decline")
	}
	if pub.counts["booking.created"] != 0 {
		t.Errorf("booking.created published %d times, want 0", pub.counts["booking.created"])
	}
}

func TestAmbiguousReplyAtConfirmReprompts(t *testing.T) {
	mgr, sessions, _ := newTestManager(t)
	phone := "919876543210"

	driveToConfirm(t, mgr, sessions, phone)

	reply := send(t, mgr, phone, "hmm what is the baggage allowance")
	if !strings.Contains(reply, "Reply *YES*") {
		t.Errorf("reply = %q, want confirm hint", reply)
	}
	if got := getState(t, sessions, phone); got != models.StateConfirmBooking {
		t.Errorf("state = %s, want %s", got, models.StateConfirmBooking)
	}
}

func TestCompletedBookingIsNotTicketedTwice(t *testing.T) {
	mgr, sessions, pub := newTestManager(t)
	phone := "919876543210"

	driveToConfirm(t, mgr, sessions, phone)
	send(t, mgr, phone, "yes")
	send(t, mgr, phone, "yes")

	if pub.counts["booking.ticketed"] != 1 {
		t.Errorf("booking.ticketed published %d times, want 1", pub.counts["booking.ticketed"])
	}
	if got := getState(t, sessions, phone); got == models.StateConfirmBooking {
		t.Error("completed session should not return to confirmation")
	}
}

func TestThanksAfterBooking(t *testing.T) {
	mgr, sessions, _ := newTestManager(t)
	phone := "919876543210"

	driveToConfirm(t, mgr, sessions, phone)
	send(t, mgr, phone, "yes")

	reply := send(t, mgr, phone, "thank you!")
	if !strings.Contains(reply, "Safe travels") {
		t.Errorf("reply = %q, want thanks acknowledgement", reply)
	}
	if got := getState(t, sessions, phone); got != models.StateCompleted {
		t.Errorf("state = %s, want %s", got, models.StateCompleted)
	}
}

func TestNewBookingAfterCompletion(t *testing.T) {
	mgr, sessions, _ := newTestManager(t)
	phone := "919876543210"

	driveToConfirm(t, mgr, sessions, phone)
	send(t, mgr, phone, "yes")

	send(t, mgr, phone, "book a flight from Mumbai to London")
	sess, _ := sessions.GetSession(phone)
	if sess.State != models.StateCollectDate {
		t.Errorf("state = %s, want %s", sess.State, models.StateCollectDate)
	}
	if sess.Data.PNR != "" || sess.Data.BookingConfirmed {
		t.Error("expected previous booking data to be cleared")
	}
	if sess.Data.SourceCity == nil || sess.Data.SourceCity.IATA != "BOM" {
		t.Errorf("source = %+v, want Mumbai", sess.Data.SourceCity)
	}
}

func TestExpiredSessionStartsOver(t *testing.T) {
	pub := &countingPublisher{}
	svc, err := airline.New(airline.WithEventPublisher(pub))
	if err != nil {
		t.Fatalf("failed to create airline service: %v", err)
	}

	current := flowNow
	clock := func() time.Time { return current }
	sessions := session.NewInMemoryStore(session.WithClock(clock))
	mgr, err := NewManager(sessions, svc,
		WithExtractor(NewRuleExtractor(svc.Cities(), clock)),
		WithClock(clock),
	)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	phone := "919876543210"
	send(t, mgr, phone, "book a flight from Delhi to Dubai")
	if got := getState(t, sessions, phone); got != models.StateCollectDate {
		t.Fatalf("state = %s, want %s", got, models.StateCollectDate)
	}

	current = current.Add(31 * time.Minute)

	reply := send(t, mgr, phone, "hello")
	if !strings.Contains(reply, "Welcome to FareBot") {
		t.Errorf("reply = %q, want fresh welcome after expiry", reply)
	}
	sess, _ := sessions.GetSession(phone)
	if sess.State != models.StateGreeting {
		t.Errorf("state = %s, want %s", sess.State, models.StateGreeting)
	}
	if sess.Data.SourceCity != nil {
		t.Error("expected slots from the expired session to be gone")
	}
}

func TestSkipSSRGoesStraightToConfirm(t *testing.T) {
	mgr, sessions, _ := newTestManager(t)
	phone := "919876543210"

	send(t, mgr, phone, "book a flight from Delhi to Dubai on 15 July for 1 adult")
	send(t, mgr, phone, "1")
	send(t, mgr, phone, "John Doe, 15-Mar-1990, A1234567, Indian")

	reply := send(t, mgr, phone, "skip")
	if !strings.Contains(reply, "Booking Summary") {
		t.Errorf("reply = %q, want booking summary", reply)
	}
	if got := getState(t, sessions, phone); got != models.StateConfirmBooking {
		t.Errorf("state = %s, want %s", got, models.StateConfirmBooking)
	}
}

func TestMultiplePassengerDetailsCollected(t *testing.T) {
	mgr, sessions, _ := newTestManager(t)
	phone := "919876543210"

	send(t, mgr, phone, "book a flight from Delhi to Dubai on 15 July for 2 adults")
	send(t, mgr, phone, "1")

	reply := send(t, mgr, phone, "John Doe, 15-Mar-1990, A1234567, Indian")
	if !strings.Contains(reply, "passenger 2 of 2") {
		t.Errorf("reply = %q, want prompt for second passenger", reply)
	}
	if got := getState(t, sessions, phone); got != models.StateCollectPassengerDetails {
		t.Fatalf("state = %s, want %s", got, models.StateCollectPassengerDetails)
	}

	send(t, mgr, phone, "Jane Doe, 20-Jan-1992, B7654321, Indian")
	sess, _ := sessions.GetSession(phone)
	if sess.State != models.StateCollectSSR {
		t.Errorf("state = %s, want %s", sess.State, models.StateCollectSSR)
	}
	if len(sess.Data.Passengers) != 2 {
		t.Errorf("passengers collected = %d, want 2", len(sess.Data.Passengers))
	}
}
