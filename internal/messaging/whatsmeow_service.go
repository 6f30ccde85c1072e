package messaging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.mau.fi/whatsmeow/types/events"

	"github.com/voyagehq/farebot/internal/models"
	"github.com/voyagehq/farebot/internal/whatsapp"
)

// WhatsmeowService implements Service using a live whatsmeow connection.
type WhatsmeowService struct {
	client    whatsapp.Sender
	waClient  *whatsapp.Client // nil when constructed with a mock sender
	receipts  chan models.Receipt
	responses chan models.Response
	done      chan struct{}
	mu        sync.RWMutex
	stopped   bool
}

// NewWhatsmeowService creates a service wrapping the given sender. Event
// handling is only available when the sender is a full whatsapp.Client.
func NewWhatsmeowService(client whatsapp.Sender) *WhatsmeowService {
	service := &WhatsmeowService{
		client:    client,
		receipts:  make(chan models.Receipt, DefaultChannelBufferSize),
		responses: make(chan models.Response, DefaultChannelBufferSize),
		done:      make(chan struct{}),
	}

	if waClient, ok := client.(*whatsapp.Client); ok {
		service.waClient = waClient
		slog.Debug("WhatsmeowService created with full client for event handling")
	} else {
		slog.Debug("WhatsmeowService created with interface client (likely mock)")
	}

	return service
}

// ValidateAndCanonicalizeRecipient validates a WhatsApp phone number.
func (s *WhatsmeowService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizePhone(recipient)
}

// Start registers the inbound event handler when a full client is available.
func (s *WhatsmeowService) Start(ctx context.Context) error {
	if s.waClient != nil {
		go s.handleEvents(ctx)
		slog.Debug("WhatsmeowService event handler started")
	}
	return nil
}

// Stop closes the channels and rejects further sends.
func (s *WhatsmeowService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.done)

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(s.receipts)
		close(s.responses)
	}()

	slog.Info("WhatsmeowService stopping")
	return nil
}

// SendMessage sends a message and emits a sent receipt.
func (s *WhatsmeowService) SendMessage(ctx context.Context, to string, body string) error {
	s.mu.RLock()
	if s.stopped {
		s.mu.RUnlock()
		return ErrServiceStopped
	}
	s.mu.RUnlock()

	canonical, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("WhatsmeowService.SendMessage: invalid recipient", "error", err, "to", to)
		return err
	}
	if err := s.client.SendMessage(ctx, canonical, body); err != nil {
		slog.Error("WhatsmeowService.SendMessage: send failed", "error", err, "to", canonical)
		return err
	}
	s.safeEmitReceipt(models.Receipt{To: canonical, Status: models.StatusTypeSent, Time: time.Now().Unix()})
	return nil
}

// Receipts returns the channel of delivery receipts.
func (s *WhatsmeowService) Receipts() <-chan models.Receipt {
	return s.receipts
}

// Responses returns the channel of inbound messages.
func (s *WhatsmeowService) Responses() <-chan models.Response {
	return s.responses
}

// handleEvents forwards whatsmeow message and receipt events into the
// channels until the context is cancelled.
func (s *WhatsmeowService) handleEvents(ctx context.Context) {
	if s.waClient == nil || s.waClient.GetClient() == nil {
		slog.Error("WhatsmeowService.handleEvents: no client available")
		return
	}

	s.waClient.GetClient().AddEventHandler(func(evt interface{}) {
		switch v := evt.(type) {
		case *events.Message:
			s.handleIncomingMessage(v)
		case *events.Receipt:
			s.handleMessageReceipt(v)
		}
	})

	<-ctx.Done()
	slog.Debug("WhatsmeowService.handleEvents: stopping, context cancelled")
}

// handleIncomingMessage extracts text content from an inbound message event.
// Non-text messages (images, audio, ...) are skipped.
func (s *WhatsmeowService) handleIncomingMessage(evt *events.Message) {
	if evt.Message == nil {
		return
	}

	var messageText string
	if evt.Message.Conversation != nil {
		messageText = *evt.Message.Conversation
	} else if evt.Message.ExtendedTextMessage != nil && evt.Message.ExtendedTextMessage.Text != nil {
		messageText = *evt.Message.ExtendedTextMessage.Text
	} else {
		slog.Debug("WhatsmeowService ignoring non-text message", "from", evt.Info.Sender.String())
		return
	}

	s.safeEmitResponse(models.Response{
		From:        jidToPhone(evt.Info.Sender.User),
		Body:        messageText,
		ContactName: evt.Info.PushName,
		Time:        evt.Info.Timestamp.Unix(),
	})
}

// handleMessageReceipt forwards delivery and read receipts.
func (s *WhatsmeowService) handleMessageReceipt(evt *events.Receipt) {
	var status models.StatusType
	switch evt.Type {
	case events.ReceiptTypeDelivered:
		status = models.StatusTypeDelivered
	case events.ReceiptTypeRead:
		status = models.StatusTypeRead
	default:
		return
	}

	s.safeEmitReceipt(models.Receipt{
		To:     jidToPhone(evt.MessageSource.Sender.User),
		Status: status,
		Time:   evt.Timestamp.Unix(),
	})
}

func (s *WhatsmeowService) safeEmitReceipt(receipt models.Receipt) {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case s.receipts <- receipt:
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("WhatsmeowService receipts channel blocked, dropping receipt", "to", receipt.To)
	}
}

func (s *WhatsmeowService) safeEmitResponse(response models.Response) {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		slog.Warn("WhatsmeowService dropping inbound response (service stopped)", "from", response.From)
		return
	}

	select {
	case s.responses <- response:
		slog.Debug("WhatsmeowService inbound message forwarded", "from", response.From)
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("WhatsmeowService responses channel blocked, dropping message", "from", response.From)
	}
}

// jidToPhone converts a JID user part to a bare phone number.
func jidToPhone(user string) string {
	return strings.TrimPrefix(user, "+")
}
