package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/voyagehq/farebot/internal/models"
)

// DefaultGraphBaseURL is the WhatsApp Cloud API endpoint prefix.
const DefaultGraphBaseURL = "https://graph.facebook.com/v18.0"

const defaultSendTimeout = 10 * time.Second

// CloudAPIOpts holds configuration options for the Cloud API service.
type CloudAPIOpts struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	BaseURL       string
	HTTPClient    *http.Client
}

// CloudAPIOption defines a configuration option for the Cloud API service.
type CloudAPIOption func(*CloudAPIOpts)

// WithAccessToken sets the Graph API bearer token.
func WithAccessToken(token string) CloudAPIOption {
	return func(o *CloudAPIOpts) { o.AccessToken = token }
}

// WithPhoneNumberID sets the business phone number ID messages are sent from.
func WithPhoneNumberID(id string) CloudAPIOption {
	return func(o *CloudAPIOpts) { o.PhoneNumberID = id }
}

// WithVerifyToken sets the webhook verification token.
func WithVerifyToken(token string) CloudAPIOption {
	return func(o *CloudAPIOpts) { o.VerifyToken = token }
}

// WithGraphBaseURL overrides the Graph API endpoint, for tests.
func WithGraphBaseURL(url string) CloudAPIOption {
	return func(o *CloudAPIOpts) { o.BaseURL = url }
}

// WithHTTPClient overrides the HTTP client used for outbound sends.
func WithHTTPClient(c *http.Client) CloudAPIOption {
	return func(o *CloudAPIOpts) { o.HTTPClient = c }
}

// CloudAPIService implements Service over the WhatsApp Cloud API. Outbound
// messages go through the Graph HTTP endpoint; inbound messages arrive via
// the webhook and are pushed in with EnqueueResponse.
type CloudAPIService struct {
	httpClient    *http.Client
	baseURL       string
	accessToken   string
	phoneNumberID string
	verifyToken   string

	receipts  chan models.Receipt
	responses chan models.Response
	done      chan struct{}
	mu        sync.RWMutex
	stopped   bool
}

// NewCloudAPIService creates a Cloud API messaging service, falling back to
// the WHATSAPP_TOKEN, WHATSAPP_PHONE_NUMBER_ID, and WHATSAPP_VERIFY_TOKEN
// environment variables for unset options.
func NewCloudAPIService(opts ...CloudAPIOption) (*CloudAPIService, error) {
	var cfg CloudAPIOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccessToken == "" {
		cfg.AccessToken = os.Getenv("WHATSAPP_TOKEN")
	}
	if cfg.PhoneNumberID == "" {
		cfg.PhoneNumberID = os.Getenv("WHATSAPP_PHONE_NUMBER_ID")
	}
	if cfg.VerifyToken == "" {
		cfg.VerifyToken = os.Getenv("WHATSAPP_VERIFY_TOKEN")
	}
	if cfg.AccessToken == "" || cfg.PhoneNumberID == "" {
		return nil, fmt.Errorf("access token and phone number ID must be provided")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGraphBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultSendTimeout}
	}

	slog.Debug("CloudAPIService configured", "base_url", cfg.BaseURL, "verify_token_set", cfg.VerifyToken != "")
	return &CloudAPIService{
		httpClient:    cfg.HTTPClient,
		baseURL:       cfg.BaseURL,
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		verifyToken:   cfg.VerifyToken,
		receipts:      make(chan models.Receipt, DefaultChannelBufferSize),
		responses:     make(chan models.Response, DefaultChannelBufferSize),
		done:          make(chan struct{}),
	}, nil
}

// ValidateAndCanonicalizeRecipient validates a WhatsApp phone number.
func (s *CloudAPIService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizePhone(recipient)
}

// sendPayload is the Cloud API text message request body.
type sendPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

// SendMessage posts a text message to the Graph API and emits a sent receipt.
func (s *CloudAPIService) SendMessage(ctx context.Context, to string, body string) error {
	s.mu.RLock()
	if s.stopped {
		s.mu.RUnlock()
		return ErrServiceStopped
	}
	s.mu.RUnlock()

	canonical, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("CloudAPIService.SendMessage: invalid recipient", "error", err, "to", to)
		return err
	}

	payload, err := json.Marshal(sendPayload{
		MessagingProduct: "whatsapp",
		To:               canonical,
		Type:             "text",
		Text:             textBody{Body: body},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Error("CloudAPIService.SendMessage: request failed", "error", err, "to", canonical)
		return fmt.Errorf("failed to send message to %s: %w", canonical, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Error("CloudAPIService.SendMessage: API error", "status", resp.StatusCode, "to", canonical, "body", string(respBody))
		return fmt.Errorf("cloud API returned status %d for %s", resp.StatusCode, canonical)
	}

	s.safeEmitReceipt(models.Receipt{To: canonical, Status: models.StatusTypeSent, Time: time.Now().Unix()})
	slog.Debug("CloudAPIService.SendMessage: message sent", "to", canonical, "body_length", len(body))
	return nil
}

// VerifyWebhook checks the Cloud API verification handshake parameters and
// returns the challenge to echo back on success.
func (s *CloudAPIService) VerifyWebhook(mode, token, challenge string) (string, error) {
	if mode != "subscribe" {
		return "", fmt.Errorf("unsupported hub.mode %q", mode)
	}
	if s.verifyToken == "" || token != s.verifyToken {
		return "", fmt.Errorf("verify token mismatch")
	}
	return challenge, nil
}

// webhookEnvelope mirrors the Cloud API inbound notification shape.
type webhookEnvelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Contacts []struct {
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
					WaID string `json:"wa_id"`
				} `json:"contacts"`
				Messages []struct {
					From      string `json:"from"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ParseWebhook extracts text messages from a Cloud API webhook payload.
// Non-text messages are skipped; status-only notifications yield no responses.
func ParseWebhook(body []byte) ([]models.Response, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	var responses []models.Response
	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			contactNames := make(map[string]string)
			for _, c := range change.Value.Contacts {
				contactNames[c.WaID] = c.Profile.Name
			}
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.Text.Body == "" {
					slog.Debug("ParseWebhook: skipping non-text message", "type", msg.Type, "from", msg.From)
					continue
				}
				responses = append(responses, models.Response{
					From:        msg.From,
					Body:        msg.Text.Body,
					ContactName: contactNames[msg.From],
					Time:        parseUnixString(msg.Timestamp),
				})
			}
		}
	}
	return responses, nil
}

func parseUnixString(s string) int64 {
	var t int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return time.Now().Unix()
		}
		t = t*10 + int64(r-'0')
	}
	if t == 0 {
		return time.Now().Unix()
	}
	return t
}

// EnqueueResponse pushes an inbound message into the responses channel. The
// webhook handler calls this after parsing a notification.
func (s *CloudAPIService) EnqueueResponse(response models.Response) {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		slog.Warn("CloudAPIService dropping inbound response (service stopped)", "from", response.From)
		return
	}

	select {
	case s.responses <- response:
		slog.Debug("CloudAPIService inbound response queued", "from", response.From)
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("CloudAPIService responses channel blocked, dropping message", "from", response.From)
	}
}

// Start is a no-op; inbound traffic arrives through the webhook.
func (s *CloudAPIService) Start(ctx context.Context) error {
	return nil
}

// Stop closes the channels and rejects further sends.
func (s *CloudAPIService) Stop() error {
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

	return nil
}

// Receipts returns the channel of delivery receipts.
func (s *CloudAPIService) Receipts() <-chan models.Receipt {
	return s.receipts
}

// Responses returns the channel of inbound messages.
func (s *CloudAPIService) Responses() <-chan models.Response {
	return s.responses
}

func (s *CloudAPIService) safeEmitReceipt(receipt models.Receipt) {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case s.receipts <- receipt:
	case <-time.After(DefaultChannelTimeout):
	}
}
