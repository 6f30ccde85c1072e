package messaging

import (
	"context"
	"sync"

	"github.com/voyagehq/farebot/internal/models"
)

// MockService is a recording Service implementation for tests. Sends are
// captured in order; inbound responses are injected with EnqueueResponse.
type MockService struct {
	mu   sync.Mutex
	sent []SentMessage

	receipts  chan models.Receipt
	responses chan models.Response

	// SendErr, when set, is returned from SendMessage.
	SendErr error
}

// NewMockService creates an empty mock messaging service.
func NewMockService() *MockService {
	return &MockService{
		receipts:  make(chan models.Receipt, DefaultChannelBufferSize),
		responses: make(chan models.Response, DefaultChannelBufferSize),
	}
}

// ValidateAndCanonicalizeRecipient applies the shared phone rules.
func (m *MockService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizePhone(recipient)
}

// SendMessage records the message.
func (m *MockService) SendMessage(ctx context.Context, to string, body string) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMessage{To: to, Body: body})
	return nil
}

// Start is a no-op.
func (m *MockService) Start(ctx context.Context) error { return nil }

// Stop closes the channels.
func (m *MockService) Stop() error {
	close(m.receipts)
	close(m.responses)
	return nil
}

// Receipts returns the receipt channel.
func (m *MockService) Receipts() <-chan models.Receipt { return m.receipts }

// Responses returns the response channel.
func (m *MockService) Responses() <-chan models.Response { return m.responses }

// EnqueueResponse injects an inbound message.
func (m *MockService) EnqueueResponse(response models.Response) {
	m.responses <- response
}

// Sent returns a copy of the recorded outbound messages.
func (m *MockService) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
