package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/voyagehq/farebot/internal/api"
	"github.com/voyagehq/farebot/internal/messaging"
	"github.com/voyagehq/farebot/internal/models"
	"github.com/voyagehq/farebot/internal/testutil"
)

func TestHealthHandler(t *testing.T) {
	server, _, sessions := testutil.NewTestServer(t)
	sessions.SaveSession(*models.NewSession("919876543210", testutil.FixedTime))

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, testutil.CreateHTTPRequest(t, http.MethodGet, "/health", nil))

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "health check")
	response := testutil.AssertJSONResponse(t, rr)
	if response["status"] != "ok" {
		t.Errorf("status = %v, want ok", response["status"])
	}
	if response["active_sessions"] != float64(1) {
		t.Errorf("active_sessions = %v, want 1", response["active_sessions"])
	}
}

func TestHealthHandlerMethodNotAllowed(t *testing.T) {
	server, _, _ := testutil.NewTestServer(t)

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, testutil.CreateHTTPRequest(t, http.MethodPost, "/health", nil))

	testutil.AssertHTTPStatus(t, http.StatusMethodNotAllowed, rr.Code, "health check with POST")
}

func newServerWithCloud(t *testing.T) (*api.Server, *messaging.MockService) {
	t.Helper()
	manager, sessions := testutil.NewTestManager(t)
	mock := messaging.NewMockService()
	cloud, err := messaging.NewCloudAPIService(
		messaging.WithAccessToken("test-token"),
		messaging.WithPhoneNumberID("10987654321"),
		messaging.WithVerifyToken("verify-secret"),
	)
	if err != nil {
		t.Fatalf("failed to create cloud API service: %v", err)
	}
	return api.NewServer(mock, manager, sessions, api.WithCloudService(cloud)), mock
}

func TestWebhookVerification(t *testing.T) {
	server, _ := newServerWithCloud(t)

	rr := httptest.NewRecorder()
	req := testutil.CreateHTTPRequest(t, http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=verify-secret&hub.challenge=12345", nil)
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "webhook verification")
	if got := rr.Body.String(); got != "12345" {
		t.Errorf("challenge echo = %q, want 12345", got)
	}
}

func TestWebhookVerificationRejected(t *testing.T) {
	server, _ := newServerWithCloud(t)

	rr := httptest.NewRecorder()
	req := testutil.CreateHTTPRequest(t, http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusForbidden, rr.Code, "webhook verification with bad token")
}

func TestWebhookVerificationWithoutCloudService(t *testing.T) {
	server, _, _ := testutil.NewTestServer(t)

	rr := httptest.NewRecorder()
	req := testutil.CreateHTTPRequest(t, http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=verify-secret&hub.challenge=12345", nil)
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "webhook verification without cloud service")
}

func TestWebhookNotificationAlwaysAcknowledged(t *testing.T) {
	server, _ := newServerWithCloud(t)

	payload := `{
		"entry": [{"changes": [{"value": {
			"messages": [{"from": "919876543210", "type": "text", "text": {"body": "hi"}}]
		}}]}]
	}`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	server.Handler().ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "webhook notification")

	// Malformed payloads are acknowledged too, so the platform never retries.
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("not json"))
	server.Handler().ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "malformed webhook notification")
}

func TestSessionsList(t *testing.T) {
	server, _, sessions := testutil.NewTestServer(t)
	sessions.SaveSession(*models.NewSession("111111111", testutil.FixedTime))
	sessions.SaveSession(*models.NewSession("222222222", testutil.FixedTime))

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, testutil.CreateHTTPRequest(t, http.MethodGet, "/sessions", nil))

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "sessions list")
	response := testutil.AssertJSONResponse(t, rr)
	if response["count"] != float64(2) {
		t.Errorf("count = %v, want 2", response["count"])
	}
}

func TestSessionDelete(t *testing.T) {
	server, _, sessions := testutil.NewTestServer(t)
	sessions.SaveSession(*models.NewSession("919876543210", testutil.FixedTime))

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, testutil.CreateHTTPRequest(t, http.MethodDelete, "/sessions/919876543210", nil))

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "session delete")
	if sess, _ := sessions.GetSession("919876543210"); sess != nil {
		t.Error("session still present after delete")
	}
}

func TestSessionDeleteRequiresPhone(t *testing.T) {
	server, _, _ := testutil.NewTestServer(t)

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, testutil.CreateHTTPRequest(t, http.MethodDelete, "/sessions/", nil))

	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "session delete without phone")
}

func TestTestMessageEndpoint(t *testing.T) {
	server, _, sessions := testutil.NewTestServer(t)

	body := map[string]string{"from": "919876543210", "message": "book a flight from Delhi to Dubai"}
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, testutil.CreateHTTPRequest(t, http.MethodPost, "/messages/test", body))

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "test message")
	response := testutil.AssertJSONResponse(t, rr)
	reply, _ := response["reply"].(string)
	if !strings.Contains(reply, "When would you like to travel") {
		t.Errorf("reply = %q, want date prompt", reply)
	}

	if sess, _ := sessions.GetSession("919876543210"); sess == nil {
		t.Error("expected a session to be created for the sender")
	}
}

func TestTestMessageEndpointValidation(t *testing.T) {
	server, _, _ := testutil.NewTestServer(t)

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, testutil.CreateHTTPRequest(t, http.MethodPost, "/messages/test", map[string]string{"from": "123"}))
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "test message missing fields")

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/messages/test", strings.NewReader("not json"))
	server.Handler().ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "test message bad JSON")
}
