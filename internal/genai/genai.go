// Package genai provides LLM-backed slot extraction using the OpenAI-compatible
// chat completions API. The default configuration targets Google Gemini through
// its OpenAI-compatible endpoint.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/voyagehq/farebot/internal/models"
)

// Default configuration constants
const (
	// DefaultBaseURL is the Gemini OpenAI-compatible endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	// DefaultModel is the extraction model used when none is configured.
	DefaultModel = "gemini-2.0-flash"
)

// chatCompleter is the minimal chat-completions surface, so tests can
// substitute a mock for the real API client.
type chatCompleter interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the API key for the hosted model.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithBaseURL overrides the OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// WithModel overrides the extraction model name.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// Client wraps the chat-completions service for booking slot extraction.
type Client struct {
	chat  chatCompleter
	model string
}

// NewClient initializes a GenAI client, falling back to the GEMINI_API_KEY
// environment variable when no key option is provided.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey), option.WithBaseURL(cfg.BaseURL))
	slog.Debug("genai.NewClient: client configured", "base_url", cfg.BaseURL, "model", cfg.Model)
	return &Client{chat: &cli.Chat.Completions, model: cfg.Model}, nil
}

// AnalyzeBookingMessage sends the message plus current slot data to the model
// and parses the structured reply. Any transport or parse failure returns an
// error so the caller can fall back to rule-based extraction.
func (c *Client) AnalyzeBookingMessage(ctx context.Context, message string, data models.SlotData) (models.Analysis, error) {
	current, err := json.Marshal(slotSummary(data))
	if err != nil {
		return models.Analysis{}, fmt.Errorf("failed to marshal slot data: %w", err)
	}

	userPrompt := fmt.Sprintf("Current booking data: %s\nUser message: %q\n\nAnalyze the message and extract any flight booking information.", current, message)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(extractionSystemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(0.2),
	}

	resp, err := c.chat.New(ctx, params)
	if err != nil {
		slog.Warn("genai.AnalyzeBookingMessage: completion failed", "error", err)
		return models.Analysis{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.Analysis{}, fmt.Errorf("no choices returned")
	}

	analysis, err := parseAnalysis(resp.Choices[0].Message.Content)
	if err != nil {
		slog.Warn("genai.AnalyzeBookingMessage: unparseable reply", "error", err)
		return models.Analysis{}, err
	}

	slog.Debug("genai.AnalyzeBookingMessage: analysis parsed", "intent", analysis.Intent, "confidence", analysis.Confidence)
	return analysis, nil
}

// analysisReply mirrors the JSON shape the extraction prompt requests.
type analysisReply struct {
	Intent        string `json:"intent"`
	ExtractedData struct {
		SourceCity      string `json:"source_city"`
		DestinationCity string `json:"destination_city"`
		DepartureDate   string `json:"departure_date"`
		Adults          int    `json:"adults"`
		Children        int    `json:"children"`
		Infants         int    `json:"infants"`
	} `json:"extracted_data"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// parseAnalysis decodes the model reply, tolerating markdown-fenced JSON.
func parseAnalysis(content string) (models.Analysis, error) {
	text := stripMarkdownFence(content)

	var reply analysisReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return models.Analysis{}, fmt.Errorf("failed to parse extraction reply: %w", err)
	}

	analysis := models.Analysis{
		SourceCity:      reply.ExtractedData.SourceCity,
		DestinationCity: reply.ExtractedData.DestinationCity,
		DepartureDate:   reply.ExtractedData.DepartureDate,
		Adults:          reply.ExtractedData.Adults,
		Children:        reply.ExtractedData.Children,
		Infants:         reply.ExtractedData.Infants,
		Confidence:      reply.Confidence,
		Reasoning:       reply.Reasoning,
	}
	analysis.CountsFound = reply.ExtractedData.Adults > 0 || reply.ExtractedData.Children > 0 || reply.ExtractedData.Infants > 0

	switch reply.Intent {
	case string(models.IntentBooking):
		analysis.Intent = models.IntentBooking
	case string(models.IntentReset):
		analysis.Intent = models.IntentReset
	default:
		analysis.Intent = models.IntentOther
	}
	return analysis, nil
}

// stripMarkdownFence removes a surrounding ```json ... ``` block if present.
func stripMarkdownFence(content string) string {
	text := strings.TrimSpace(content)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// slotSummary flattens the session slots into the shape the prompt documents.
func slotSummary(data models.SlotData) map[string]any {
	summary := map[string]any{
		"source_city":      nil,
		"destination_city": nil,
		"departure_date":   nil,
		"adults":           data.Counts.Adults,
		"children":         data.Counts.Children,
		"infants":          data.Counts.Infants,
	}
	if data.SourceCity != nil {
		summary["source_city"] = data.SourceCity.Name
	}
	if data.DestinationCity != nil {
		summary["destination_city"] = data.DestinationCity.Name
	}
	if data.DepartureDate != "" {
		summary["departure_date"] = data.DepartureDate
	}
	return summary
}
