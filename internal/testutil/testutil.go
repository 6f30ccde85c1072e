// Package testutil provides common test utilities and helpers for FareBot tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/voyagehq/farebot/internal/airline"
	"github.com/voyagehq/farebot/internal/api"
	"github.com/voyagehq/farebot/internal/flow"
	"github.com/voyagehq/farebot/internal/messaging"
	"github.com/voyagehq/farebot/internal/session"
)

// FixedTime is the reference clock used by test managers, a Monday well
// before any of the relative-date test inputs.
var FixedTime = time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)

// FixedClock returns FixedTime, for injecting into stores and managers.
func FixedClock() time.Time {
	return FixedTime
}

// NewTestManager creates a conversation manager with an in-memory store, the
// embedded airline tables, and rule-based extraction only.
func NewTestManager(t *testing.T) (*flow.Manager, *session.InMemoryStore) {
	t.Helper()

	sessions := session.NewInMemoryStore(session.WithClock(FixedClock))
	airlineSvc, err := airline.New()
	if err != nil {
		t.Fatalf("failed to create airline service: %v", err)
	}
	manager, err := flow.NewManager(sessions, airlineSvc,
		flow.WithExtractor(flow.NewRuleExtractor(airlineSvc.Cities(), FixedClock)),
		flow.WithClock(FixedClock),
	)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	return manager, sessions
}

// NewTestServer creates a test API server with in-memory dependencies and
// returns the mock messaging service for assertions.
func NewTestServer(t *testing.T) (*api.Server, *messaging.MockService, *session.InMemoryStore) {
	t.Helper()

	manager, sessions := NewTestManager(t)
	msgService := messaging.NewMockService()
	server := api.NewServer(msgService, manager, sessions)
	return server, msgService, sessions
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it
// doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes a JSON response body into a generic map.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
	return response
}

// CreateHTTPRequest creates an HTTP request with an optional JSON body.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}
