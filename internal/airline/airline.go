// Package airline provides the flight-search and booking backend for FareBot.
//
// The flight and city tables are static JSON files embedded at build time,
// standing in for a real airline reservation API. Bookings live in memory for
// the lifetime of the process.
package airline

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/voyagehq/farebot/internal/extract"
	"github.com/voyagehq/farebot/internal/models"
)

//go:embed data/cities.json
var citiesJSON []byte

//go:embed data/flights.json
var flightsJSON []byte

// Child and infant fares as a fraction of the adult fare.
const (
	childFareFactor  = 0.75
	infantFareFactor = 0.10
)

// Opts holds configuration options for the airline service.
type Opts struct {
	Publisher EventPublisher
	Topic     string
}

// Option defines a configuration option for the airline service.
type Option func(*Opts)

// WithEventPublisher sets a publisher that receives booking lifecycle events.
func WithEventPublisher(p EventPublisher) Option {
	return func(o *Opts) { o.Publisher = p }
}

// WithEventTopic overrides the topic booking events are published to.
func WithEventTopic(topic string) Option {
	return func(o *Opts) { o.Topic = topic }
}

// Service answers flight searches against the embedded tables and manages the
// booking lifecycle. All methods are safe for concurrent use.
type Service struct {
	cities    []models.City
	cityIndex map[string]models.City // lower-cased name, alias, and IATA
	flights   []models.Flight

	mu       sync.Mutex
	bookings map[string]*models.Booking

	publisher EventPublisher
	topic     string
}

type cityFile struct {
	Cities []models.City `json:"cities"`
}

type flightFile struct {
	Flights []models.Flight `json:"flights"`
}

// New builds a Service from the embedded city and flight tables.
func New(opts ...Option) (*Service, error) {
	var cfg Opts
	cfg.Topic = DefaultBookingTopic
	for _, opt := range opts {
		opt(&cfg)
	}

	var cf cityFile
	if err := json.Unmarshal(citiesJSON, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse embedded city table: %w", err)
	}
	var ff flightFile
	if err := json.Unmarshal(flightsJSON, &ff); err != nil {
		return nil, fmt.Errorf("failed to parse embedded flight table: %w", err)
	}

	index := make(map[string]models.City)
	for _, c := range cf.Cities {
		index[strings.ToLower(c.Name)] = c
		index[strings.ToLower(c.IATA)] = c
		for _, alias := range c.Aliases {
			index[strings.ToLower(alias)] = c
		}
	}

	slog.Debug("airline.New: tables loaded", "cities", len(cf.Cities), "flights", len(ff.Flights))
	return &Service{
		cities:    cf.Cities,
		cityIndex: index,
		flights:   ff.Flights,
		bookings:  make(map[string]*models.Booking),
		publisher: cfg.Publisher,
		topic:     cfg.Topic,
	}, nil
}

// Cities returns the full city table.
func (s *Service) Cities() []models.City {
	return s.cities
}

// LookupCity resolves a free-text city reference (name, alias, or IATA code)
// against the lookup table.
func (s *Service) LookupCity(query string) (models.City, bool) {
	return extract.MatchCity(query, s.cities)
}

// CityByIATA resolves an exact IATA code.
func (s *Service) CityByIATA(iata string) (models.City, bool) {
	c, ok := s.cityIndex[strings.ToLower(iata)]
	return c, ok
}

// SearchFlights returns flights for the route with totals computed from the
// passenger counts, cheapest first. The date selects the travel day; the
// mocked table runs the same schedule every day.
func (s *Service) SearchFlights(origin, destination, date string, counts models.PassengerCounts) []models.Flight {
	origin = strings.ToUpper(origin)
	destination = strings.ToUpper(destination)

	var results []models.Flight
	for _, f := range s.flights {
		if f.Origin != origin || f.Destination != destination {
			continue
		}
		total := float64(f.Price) * float64(counts.Adults)
		total += float64(f.Price) * childFareFactor * float64(counts.Children)
		total += float64(f.Price) * infantFareFactor * float64(counts.Infants)
		f.Price = int(total)
		results = append(results, f)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Price < results[j].Price })

	slog.Debug("airline.SearchFlights", "origin", origin, "destination", destination, "date", date, "results", len(results))
	return results
}

// ValidateRoute reports whether any flight serves the route.
func (s *Service) ValidateRoute(origin, destination string) bool {
	origin = strings.ToUpper(origin)
	destination = strings.ToUpper(destination)
	for _, f := range s.flights {
		if f.Origin == origin && f.Destination == destination {
			return true
		}
	}
	return false
}

// DestinationsFrom lists the cities reachable from the given origin.
func (s *Service) DestinationsFrom(origin string) []models.City {
	origin = strings.ToUpper(origin)
	seen := make(map[string]bool)
	var out []models.City
	for _, f := range s.flights {
		if f.Origin != origin || seen[f.Destination] {
			continue
		}
		seen[f.Destination] = true
		if c, ok := s.CityByIATA(f.Destination); ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FormatFlightList renders search results as a numbered WhatsApp message.
func FormatFlightList(flights []models.Flight) string {
	if len(flights) == 0 {
		return "❌ No flights found for your search criteria. Please try different dates or destinations."
	}
	var sb strings.Builder
	sb.WriteString("✈️ *Available Flights:*\n\n")
	for i, f := range flights {
		sb.WriteString(f.FormatForDisplay(i + 1))
		if i < len(flights)-1 {
			sb.WriteString("\n\n" + strings.Repeat("─", 30) + "\n\n")
		}
	}
	sb.WriteString("\n\n📝 *How to select:*\nReply with the option number (e.g., type '*1*' or '*Option 1*')")
	return sb.String()
}

