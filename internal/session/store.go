// Package session provides storage backends for conversation sessions.
//
// It includes an in-memory store with injectable clock plus SQLite,
// PostgreSQL, and Redis backends selected by DSN.
package session

import (
	"strings"
	"time"

	"github.com/voyagehq/farebot/internal/models"
)

// DefaultTimeout is the inactivity window after which a session expires.
const DefaultTimeout = 30 * time.Minute

// Store defines the interface for session persistence. A nil session from
// GetSession means no session exists for that phone number.
type Store interface {
	GetSession(phone string) (*models.Session, error)
	SaveSession(s models.Session) error
	DeleteSession(phone string) error
	ListSessions() ([]models.Session, error)
	// DeleteExpiredSessions removes sessions whose last activity is before
	// cutoff and returns how many were removed.
	DeleteExpiredSessions(cutoff time.Time) (int, error)
	Close() error
}

// Opts holds configuration options for session stores.
type Opts struct {
	DSN string
}

// Option defines a configuration option for session stores.
type Option func(*Opts)

// WithSQLiteDSN sets a SQLite file path as the backing store.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets a PostgreSQL connection string as the backing store.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithRedisDSN sets a Redis URL (redis://host:port/db) as the backing store.
func WithRedisDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType classifies a DSN as "postgres", "redis", or "sqlite".
// File paths and anything unrecognized fall through to SQLite.
func DetectDSNType(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		return "postgres"
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return "redis"
	default:
		return "sqlite"
	}
}
