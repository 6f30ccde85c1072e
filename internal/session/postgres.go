// PostgreSQL-backed session store.
package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/voyagehq/farebot/internal/models"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists sessions in a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to PostgreSQL using the DSN and applies
// migrations.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("PostgreSQL ping failed: %w", err)
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Debug("session.NewPostgresStore: store ready")
	return &PostgresStore{db: db}, nil
}

// GetSession returns the session for a phone number, or nil if absent.
func (s *PostgresStore) GetSession(phone string) (*models.Session, error) {
	row := s.db.QueryRow(`SELECT phone, state, data, retry_count, created_at, last_activity FROM sessions WHERE phone = $1`, phone)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session for %s: %w", phone, err)
	}
	return sess, nil
}

// SaveSession upserts the session row.
func (s *PostgresStore) SaveSession(sess models.Session) error {
	data, err := json.Marshal(sess.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO sessions (phone, state, data, retry_count, created_at, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (phone) DO UPDATE SET state = EXCLUDED.state, data = EXCLUDED.data,
			retry_count = EXCLUDED.retry_count, last_activity = EXCLUDED.last_activity`,
		sess.Phone, string(sess.State), string(data), sess.RetryCount, sess.CreatedAt, sess.LastActivity)
	if err != nil {
		return fmt.Errorf("failed to save session for %s: %w", sess.Phone, err)
	}
	return nil
}

// DeleteSession removes the session for a phone number.
func (s *PostgresStore) DeleteSession(phone string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE phone = $1`, phone); err != nil {
		return fmt.Errorf("failed to delete session for %s: %w", phone, err)
	}
	return nil
}

// ListSessions returns all stored sessions.
func (s *PostgresStore) ListSessions() ([]models.Session, error) {
	rows, err := s.db.Query(`SELECT phone, state, data, retry_count, created_at, last_activity FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	return sessions, nil
}

// DeleteExpiredSessions removes sessions whose last activity is before cutoff.
func (s *PostgresStore) DeleteExpiredSessions(cutoff time.Time) (int, error) {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE last_activity < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
