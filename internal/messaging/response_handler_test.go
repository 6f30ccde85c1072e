package messaging

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/voyagehq/farebot/internal/models"
)

// echoHandler replies with a fixed transformation of the inbound text.
type echoHandler struct {
	err error
}

func (h *echoHandler) HandleMessage(ctx context.Context, phone, text string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "echo: " + text, nil
}

// waitForSent polls the mock until n messages were sent or the deadline hits.
func waitForSent(t *testing.T, mock *MockService, n int) []SentMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sent := mock.Sent(); len(sent) >= n {
			return sent
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d sent messages, got %d", n, len(mock.Sent()))
	return nil
}

func TestResponseHandlerRoundtrip(t *testing.T) {
	mock := NewMockService()
	rh := NewResponseHandler(mock, &echoHandler{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rh.Start(ctx)

	mock.EnqueueResponse(models.Response{From: "+91 98765 43210", Body: "hello"})

	sent := waitForSent(t, mock, 1)
	if sent[0].To != "919876543210" {
		t.Errorf("reply sent to %s, want canonical 919876543210", sent[0].To)
	}
	if sent[0].Body != "echo: hello" {
		t.Errorf("reply body = %q, want echo", sent[0].Body)
	}
}

func TestResponseHandlerSendsApologyOnFailure(t *testing.T) {
	mock := NewMockService()
	rh := NewResponseHandler(mock, &echoHandler{err: fmt.Errorf("extraction blew up")})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rh.Start(ctx)

	mock.EnqueueResponse(models.Response{From: "919876543210", Body: "hello"})

	sent := waitForSent(t, mock, 1)
	if sent[0].Body != errorMessage {
		t.Errorf("reply body = %q, want error message", sent[0].Body)
	}
}

func TestResponseHandlerIgnoresInvalidSender(t *testing.T) {
	mock := NewMockService()
	rh := NewResponseHandler(mock, &echoHandler{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rh.Start(ctx)

	mock.EnqueueResponse(models.Response{From: "???", Body: "hello"})
	mock.EnqueueResponse(models.Response{From: "919876543210", Body: "hi"})

	sent := waitForSent(t, mock, 1)
	for _, msg := range sent {
		if msg.To != "919876543210" {
			t.Errorf("unexpected send to %s", msg.To)
		}
	}
}
