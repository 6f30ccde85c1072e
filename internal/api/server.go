// Package api exposes the FareBot HTTP surface: the WhatsApp Cloud API
// webhook (verification handshake and inbound notifications), health and
// session inspection endpoints, and a manual test endpoint that drives the
// conversation manager without a live channel.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/voyagehq/farebot/internal/messaging"
	"github.com/voyagehq/farebot/internal/session"
)

// Constants for server configuration
const (
	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"
	// DefaultSweepInterval is how often expired sessions are cleaned up.
	DefaultSweepInterval = 5 * time.Minute
	// maxWebhookBodySize caps inbound webhook payloads.
	maxWebhookBodySize = 1 << 20
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr           string
	CloudService   *messaging.CloudAPIService
	TwilioService  *messaging.TwilioService
	SweepInterval  time.Duration
	SessionTimeout time.Duration
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithCloudService attaches the Cloud API service, enabling webhook
// verification and inbound notification parsing.
func WithCloudService(s *messaging.CloudAPIService) Option {
	return func(o *Opts) { o.CloudService = s }
}

// WithTwilioService mounts the Twilio inbound webhook at /webhook/twilio.
func WithTwilioService(s *messaging.TwilioService) Option {
	return func(o *Opts) { o.TwilioService = s }
}

// WithSweepInterval overrides the expired-session cleanup interval.
func WithSweepInterval(d time.Duration) Option {
	return func(o *Opts) { o.SweepInterval = d }
}

// WithSessionTimeout overrides the inactivity window used by the sweeper.
func WithSessionTimeout(d time.Duration) Option {
	return func(o *Opts) { o.SessionTimeout = d }
}

// Server hosts the HTTP endpoints and the background session sweeper.
type Server struct {
	msgService messaging.Service
	manager    messaging.ConversationHandler
	sessions   session.Store
	cloud      *messaging.CloudAPIService

	mux            *http.ServeMux
	httpServer     *http.Server
	sweepInterval  time.Duration
	sessionTimeout time.Duration
}

// NewServer wires the endpoints onto a fresh mux.
func NewServer(msgService messaging.Service, manager messaging.ConversationHandler, sessions session.Store, opts ...Option) *Server {
	cfg := Opts{
		Addr:           DefaultAddr,
		SweepInterval:  DefaultSweepInterval,
		SessionTimeout: session.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{
		msgService:     msgService,
		manager:        manager,
		sessions:       sessions,
		cloud:          cfg.CloudService,
		mux:            http.NewServeMux(),
		sweepInterval:  cfg.SweepInterval,
		sessionTimeout: cfg.SessionTimeout,
	}

	s.mux.HandleFunc("/health", s.healthHandler)
	s.mux.HandleFunc("/webhook", s.webhookHandler)
	s.mux.HandleFunc("/sessions", s.sessionsHandler)
	s.mux.HandleFunc("/sessions/", s.sessionHandler)
	s.mux.HandleFunc("/messages/test", s.testMessageHandler)
	if cfg.TwilioService != nil {
		s.mux.HandleFunc("/webhook/twilio", cfg.TwilioService.WebhookHandler)
	}

	s.httpServer = &http.Server{Addr: cfg.Addr, Handler: s.mux}
	return s
}

// Handler returns the server's mux, for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run starts the HTTP server and the session sweeper, blocking until the
// server stops.
func (s *Server) Run(ctx context.Context) error {
	go s.runSessionSweeper(ctx)

	slog.Info("Server.Run: listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// runSessionSweeper deletes expired sessions on a fixed interval until the
// context is cancelled.
func (s *Server) runSessionSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-s.sessionTimeout)
			removed, err := s.sessions.DeleteExpiredSessions(cutoff)
			if err != nil {
				slog.Error("Server.runSessionSweeper: cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("Server.runSessionSweeper: expired sessions removed", "count", removed)
			}
		}
	}
}

// healthHandler reports service health and the active session count.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, errorBody("Method not allowed"))
		return
	}

	sessions, err := s.sessions.ListSessions()
	if err != nil {
		slog.Error("Server.healthHandler: failed to list sessions", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, errorBody("Failed to read sessions"))
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"active_sessions": len(sessions),
	})
}

// webhookHandler serves both halves of the Cloud API webhook: the GET
// verification handshake and POST inbound notifications. Notifications are
// always acknowledged with 200 so the platform does not retry; processing
// happens asynchronously.
func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.verifyWebhook(w, r)
	case http.MethodPost:
		s.receiveWebhook(w, r)
	default:
		writeJSONResponse(w, http.StatusMethodNotAllowed, errorBody("Method not allowed"))
	}
}

func (s *Server) verifyWebhook(w http.ResponseWriter, r *http.Request) {
	if s.cloud == nil {
		writeJSONResponse(w, http.StatusNotFound, errorBody("Webhook verification not configured"))
		return
	}

	q := r.URL.Query()
	challenge, err := s.cloud.VerifyWebhook(q.Get("hub.mode"), q.Get("hub.verify_token"), q.Get("hub.challenge"))
	if err != nil {
		slog.Warn("Server.verifyWebhook: verification rejected", "error", err)
		writeJSONResponse(w, http.StatusForbidden, errorBody("Verification failed"))
		return
	}

	slog.Info("Server.verifyWebhook: webhook verified")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, challenge)
}

func (s *Server) receiveWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		slog.Error("Server.receiveWebhook: failed to read body", "error", err)
		writeJSONResponse(w, http.StatusOK, okBody("received"))
		return
	}

	responses, err := messaging.ParseWebhook(body)
	if err != nil {
		slog.Warn("Server.receiveWebhook: unparseable payload", "error", err)
		writeJSONResponse(w, http.StatusOK, okBody("received"))
		return
	}

	for _, response := range responses {
		if s.cloud != nil {
			s.cloud.EnqueueResponse(response)
			continue
		}
		// No queue available, process directly on a goroutine.
		go s.processDirect(response.From, response.Body)
	}

	writeJSONResponse(w, http.StatusOK, okBody("received"))
}

func (s *Server) processDirect(from, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reply, err := s.manager.HandleMessage(ctx, from, body)
	if err != nil {
		slog.Error("Server.processDirect: conversation failed", "error", err, "from", from)
		return
	}
	if reply == "" {
		return
	}
	if err := s.msgService.SendMessage(ctx, from, reply); err != nil {
		slog.Error("Server.processDirect: failed to send reply", "error", err, "from", from)
	}
}

// sessionsHandler lists all active sessions.
func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, errorBody("Method not allowed"))
		return
	}

	sessions, err := s.sessions.ListSessions()
	if err != nil {
		slog.Error("Server.sessionsHandler: failed to list sessions", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, errorBody("Failed to read sessions"))
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

// sessionHandler deletes the session for one phone number.
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSONResponse(w, http.StatusMethodNotAllowed, errorBody("Method not allowed"))
		return
	}

	phone := strings.TrimPrefix(r.URL.Path, "/sessions/")
	if phone == "" {
		writeJSONResponse(w, http.StatusBadRequest, errorBody("Phone number required"))
		return
	}

	if err := s.sessions.DeleteSession(phone); err != nil {
		slog.Error("Server.sessionHandler: failed to delete session", "error", err, "phone", phone)
		writeJSONResponse(w, http.StatusInternalServerError, errorBody("Failed to delete session"))
		return
	}

	slog.Info("Server.sessionHandler: session deleted", "phone", phone)
	writeJSONResponse(w, http.StatusOK, okBody("session deleted"))
}

// testMessageRequest is the body for the manual test endpoint.
type testMessageRequest struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// testMessageHandler runs one message through the conversation manager
// synchronously and returns the reply, for driving conversations without a
// live channel.
func (s *Server) testMessageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, errorBody("Method not allowed"))
		return
	}

	var req testMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, errorBody("Invalid JSON body"))
		return
	}
	if req.From == "" || req.Message == "" {
		writeJSONResponse(w, http.StatusBadRequest, errorBody("Fields 'from' and 'message' are required"))
		return
	}

	reply, err := s.manager.HandleMessage(r.Context(), req.From, req.Message)
	if err != nil {
		slog.Error("Server.testMessageHandler: conversation failed", "error", err, "from", req.From)
		writeJSONResponse(w, http.StatusInternalServerError, errorBody("Failed to process message"))
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"from":  req.From,
		"reply": reply,
	})
}
