// Package store persists per-session chat state. Three backends are
// supported; Postgres wins when configured, then Redis, then JSON files
// on disk. Load of a missing session returns a fresh empty state, never
// an error: session creation is implicit.
package store

import (
	"context"
	"log"

	"github.com/suyashnema0707/MedGraph-Navigator/config"
	"github.com/suyashnema0707/MedGraph-Navigator/models"
)

// Store is the session persistence contract.
type Store interface {
	// Load returns the state for a session, or a fresh empty state when
	// the session is unknown.
	Load(ctx context.Context, sessionID string) (models.ChatState, error)

	// Save persists the full state for a session.
	Save(ctx context.Context, sessionID string, state models.ChatState) error

	// List returns summaries of all sessions, newest first.
	List(ctx context.Context) ([]models.ChatSummary, error)

	// Delete removes a session; it reports whether one existed.
	Delete(ctx context.Context, sessionID string) (bool, error)
}

// New builds the configured backend, preferring Postgres, then Redis,
// then the JSON file store.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	logger := log.New(log.Writer(), "[STORE] ", log.LstdFlags)

	if dsn := cfg.Postgres.DSN(); dsn != "" {
		ps, err := NewPostgresStore(ctx, dsn)
		if err == nil {
			logger.Printf("using postgres session store")
			return ps, nil
		}
		logger.Printf("postgres init failed: %v, falling back", err)
	}
	if cfg.Redis.Host != "" {
		rs, err := NewRedisStore(ctx, cfg.Redis)
		if err == nil {
			logger.Printf("using redis session store")
			return rs, nil
		}
		logger.Printf("redis init failed: %v, falling back", err)
	}
	logger.Printf("using file session store at %s", cfg.SessionsDir)
	return NewFileStore(cfg.SessionsDir)
}
