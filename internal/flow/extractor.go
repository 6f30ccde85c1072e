package flow

import (
	"context"
	"time"

	"github.com/voyagehq/farebot/internal/extract"
	"github.com/voyagehq/farebot/internal/genai"
	"github.com/voyagehq/farebot/internal/models"
)

// Extractor analyzes one user message against the current slot data. The
// manager consults extractors in priority order and falls through on error or
// low confidence, so the last extractor in the chain should always succeed.
type Extractor interface {
	Analyze(ctx context.Context, message string, data models.SlotData) (models.Analysis, error)
}

// GenAIExtractor adapts the LLM client to the Extractor interface.
type GenAIExtractor struct {
	client *genai.Client
}

// NewGenAIExtractor wraps a genai client.
func NewGenAIExtractor(client *genai.Client) *GenAIExtractor {
	return &GenAIExtractor{client: client}
}

// Analyze delegates to the hosted model.
func (e *GenAIExtractor) Analyze(ctx context.Context, message string, data models.SlotData) (models.Analysis, error) {
	return e.client.AnalyzeBookingMessage(ctx, message, data)
}

// RuleExtractor runs the keyword and pattern extractors. It never fails, which
// makes it the terminal fallback of the chain.
type RuleExtractor struct {
	cities  []models.City
	nowFunc func() time.Time
}

// NewRuleExtractor builds a rule extractor over the given city table.
func NewRuleExtractor(cities []models.City, nowFunc func() time.Time) *RuleExtractor {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &RuleExtractor{cities: cities, nowFunc: nowFunc}
}

// Analyze extracts whatever slots the rule helpers can find. Cities mentioned
// in order fill source then destination; a single city fills the first slot
// the session is still missing.
func (e *RuleExtractor) Analyze(ctx context.Context, message string, data models.SlotData) (models.Analysis, error) {
	if extract.IsReset(message) {
		return models.Analysis{Intent: models.IntentReset, Confidence: 0.9, Reasoning: "reset keyword"}, nil
	}

	analysis := models.Analysis{Intent: models.IntentOther, Confidence: 0.5}
	slots := 0

	cities := extract.Cities(message, e.cities)
	switch {
	case len(cities) >= 2:
		analysis.SourceCity = cities[0].Name
		analysis.DestinationCity = cities[1].Name
		slots += 2
	case len(cities) == 1:
		if data.SourceCity == nil {
			analysis.SourceCity = cities[0].Name
		} else {
			analysis.DestinationCity = cities[0].Name
		}
		slots++
	}

	if date, ok := extract.Date(message, e.nowFunc()); ok {
		analysis.DepartureDate = date
		slots++
	}

	if counts, ok := extract.PassengerCounts(message); ok {
		analysis.Adults = counts.Adults
		analysis.Children = counts.Children
		analysis.Infants = counts.Infants
		analysis.CountsFound = true
		slots++
	}

	if extract.DetectBookingIntent(message, e.cities) || slots > 0 {
		analysis.Intent = models.IntentBooking
	}

	analysis.Confidence = 0.5 + 0.1*float64(slots)
	if analysis.Confidence > 0.9 {
		analysis.Confidence = 0.9
	}
	return analysis, nil
}
