// Package flow implements the booking conversation state machine.
//
// A Manager drives one linear dialogue per phone number: greet, collect the
// route, date, and passenger slots, show flights, collect a selection and
// passenger details, offer special services, confirm, book. Slot values come
// from an extractor priority chain, usually the LLM extractor backed by the
// rule-based fallback.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/voyagehq/farebot/internal/airline"
	"github.com/voyagehq/farebot/internal/extract"
	"github.com/voyagehq/farebot/internal/models"
	"github.com/voyagehq/farebot/internal/session"
	"github.com/voyagehq/farebot/internal/util"
)

// DefaultMaxRetries is how many failed attempts a collection state tolerates
// before the conversation is handed to a human agent.
const DefaultMaxRetries = 3

// minExtractorConfidence is the confidence below which the manager falls
// through to the next extractor in the chain.
const minExtractorConfidence = 0.4

// Opts holds configuration options for the Manager.
type Opts struct {
	Extractors     []Extractor
	NowFunc        func() time.Time
	MaxRetries     int
	SessionTimeout time.Duration
}

// Option defines a configuration option for the Manager.
type Option func(*Opts)

// WithExtractor appends an extractor to the priority chain. Extractors are
// consulted in the order they are added.
func WithExtractor(e Extractor) Option {
	return func(o *Opts) { o.Extractors = append(o.Extractors, e) }
}

// WithClock injects the time source, for tests.
func WithClock(nowFunc func() time.Time) Option {
	return func(o *Opts) { o.NowFunc = nowFunc }
}

// WithMaxRetries overrides the per-state retry budget.
func WithMaxRetries(n int) Option {
	return func(o *Opts) { o.MaxRetries = n }
}

// WithSessionTimeout overrides the session inactivity window.
func WithSessionTimeout(d time.Duration) Option {
	return func(o *Opts) { o.SessionTimeout = d }
}

// Manager routes each inbound message through the session's current state
// handler and persists the updated session.
type Manager struct {
	sessions   session.Store
	airline    *airline.Service
	extractors []Extractor

	nowFunc        func() time.Time
	maxRetries     int
	sessionTimeout time.Duration
}

// NewManager creates a conversation manager. At least one extractor must be
// configured; the last one should be the always-succeeding rule extractor.
func NewManager(sessions session.Store, airlineSvc *airline.Service, opts ...Option) (*Manager, error) {
	cfg := Opts{
		NowFunc:        time.Now,
		MaxRetries:     DefaultMaxRetries,
		SessionTimeout: session.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.Extractors) == 0 {
		return nil, fmt.Errorf("no extractors configured")
	}

	return &Manager{
		sessions:       sessions,
		airline:        airlineSvc,
		extractors:     cfg.Extractors,
		nowFunc:        cfg.NowFunc,
		maxRetries:     cfg.MaxRetries,
		sessionTimeout: cfg.SessionTimeout,
	}, nil
}

// HandleMessage processes one inbound message for a phone number and returns
// the reply to send. Expired sessions are replaced with a fresh one, so a user
// returning after the inactivity window starts from the greeting.
func (m *Manager) HandleMessage(ctx context.Context, phone, text string) (string, error) {
	now := m.nowFunc()

	sess, err := m.sessions.GetSession(phone)
	if err != nil {
		return "", fmt.Errorf("failed to load session for %s: %w", phone, err)
	}
	if sess == nil {
		sess = models.NewSession(phone, now)
		slog.Info("Manager.HandleMessage: new session", "phone", phone)
	} else if sess.IsExpired(now, m.sessionTimeout) {
		slog.Info("Manager.HandleMessage: session expired, starting over", "phone", phone)
		sess = models.NewSession(phone, now)
	}

	reply := m.dispatch(ctx, sess, strings.TrimSpace(text))

	sess.Touch(now)
	if err := m.sessions.SaveSession(*sess); err != nil {
		return "", fmt.Errorf("failed to save session for %s: %w", phone, err)
	}

	slog.Debug("Manager.HandleMessage: handled", "phone", phone, "state", sess.State, "retries", sess.RetryCount)
	return reply, nil
}

// dispatch routes the message to the handler for the session's current state.
// Reset keywords work everywhere except CONFIRM_BOOKING, where a bare "no" or
// "cancel" must read as declining the booking instead.
func (m *Manager) dispatch(ctx context.Context, sess *models.Session, msg string) string {
	if sess.State != models.StateGreeting && sess.State != models.StateConfirmBooking && extract.IsReset(msg) {
		sess.ResetSlots()
		return promptResetDone
	}

	switch sess.State {
	case models.StateGreeting:
		return m.handleGreeting(ctx, sess, msg)
	case models.StateCollectSource:
		return m.handleCollectSource(ctx, sess, msg)
	case models.StateCollectDestination:
		return m.handleCollectDestination(ctx, sess, msg)
	case models.StateCollectDate:
		return m.handleCollectDate(ctx, sess, msg)
	case models.StateCollectPassengers:
		return m.handleCollectPassengers(ctx, sess, msg)
	case models.StateShowFlights, models.StateCollectSelection:
		return m.handleCollectSelection(ctx, sess, msg)
	case models.StateCollectPassengerDetails:
		return m.handleCollectPassengerDetails(sess, msg)
	case models.StateCollectSSR:
		return m.handleCollectSSR(sess, msg)
	case models.StateConfirmBooking:
		return m.handleConfirmBooking(ctx, sess, msg)
	case models.StateCompleted:
		return m.handleCompleted(ctx, sess, msg)
	default:
		slog.Error("Manager.dispatch: unknown state, resetting", "phone", sess.Phone, "state", sess.State)
		sess.ResetSlots()
		return promptWelcome
	}
}

// analyze runs the extractor chain and returns the first confident analysis.
func (m *Manager) analyze(ctx context.Context, msg string, data models.SlotData) models.Analysis {
	for i, e := range m.extractors {
		analysis, err := e.Analyze(ctx, msg, data)
		if err != nil {
			slog.Warn("Manager.analyze: extractor failed, falling back", "index", i, "error", err)
			continue
		}
		if analysis.Confidence < minExtractorConfidence && i < len(m.extractors)-1 {
			continue
		}
		return analysis
	}
	return models.Analysis{Intent: models.IntentOther}
}

// retryOrHandoff re-prompts after a failed attempt, or hands the conversation
// to a human once the retry budget is exhausted.
func (m *Manager) retryOrHandoff(sess *models.Session, prompt string) string {
	sess.IncrementRetry()
	if sess.RetryCount >= m.maxRetries {
		ref := util.GenerateSupportReference()
		slog.Warn("Manager.retryOrHandoff: retries exhausted, handing off",
			"phone", sess.Phone, "state", sess.State, "reference", ref)
		sess.SetState(models.StateCompleted)
		return fmt.Sprintf(promptHandoff, ref)
	}
	return prompt
}
