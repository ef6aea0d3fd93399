package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"vcfo/domain/core"
	apperrors "vcfo/internal/errors"
	"vcfo/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// SessionRepositoryImpl implements SessionStore for PostgreSQL
type SessionRepositoryImpl struct {
	db *sqlx.DB
}

// Connect opens a PostgreSQL pool, verifies connectivity and ensures the
// sessions table exists.
func Connect(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, apperrors.ExternalServiceError("postgres", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, "postgres ping failed")
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS chat_sessions (
			id TEXT PRIMARY KEY,
			dataset_path TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, "chat_sessions schema setup failed")
	}
	return db, nil
}

// NewSessionRepository creates a new PostgreSQL session store
func NewSessionRepository(db *sqlx.DB) ports.SessionStore {
	return &SessionRepositoryImpl{db: db}
}

// DatasetPath returns the dataset uploaded for a session
func (r *SessionRepositoryImpl) DatasetPath(ctx context.Context, session core.SessionID) (string, error) {
	var path string
	err := r.db.GetContext(ctx, &path, `
		SELECT dataset_path FROM chat_sessions WHERE id = $1
	`, string(session))
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.NotFound("dataset for session")
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// SetDatasetPath upserts the dataset path for a session
func (r *SessionRepositoryImpl) SetDatasetPath(ctx context.Context, session core.SessionID, path string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, dataset_path)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET dataset_path = $2, updated_at = NOW()
	`, string(session), path)
	return err
}
