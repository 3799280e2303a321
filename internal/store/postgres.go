package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/suyashnema0707/MedGraph-Navigator/models"
)

// PostgresStore keeps each session as a jsonb row in the chats table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool and verifies it with a ping.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing handle; used by tests.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context, sessionID string) (models.ChatState, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM chats WHERE session_id = $1`, sessionID).Scan(&raw)
	if err == sql.ErrNoRows {
		return models.NewChatState(sessionID), nil
	}
	if err != nil {
		return models.ChatState{}, fmt.Errorf("load session: %w", err)
	}
	var state models.ChatState
	if err := json.Unmarshal(raw, &state); err != nil {
		return models.NewChatState(sessionID), nil
	}
	if state.Messages == nil {
		state.Messages = []models.Message{}
	}
	state.SessionID = sessionID
	return state, nil
}

func (s *PostgresStore) Save(ctx context.Context, sessionID string, state models.ChatState) error {
	state.SessionID = sessionID
	state.UpdatedAt = time.Now().UTC()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = state.UpdatedAt
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chats (session_id, title, state, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (session_id)
		 DO UPDATE SET title = EXCLUDED.title, state = EXCLUDED.state, updated_at = NOW()`,
		sessionID, models.TitleFor(state), raw)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.ChatSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, title FROM chats ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []models.ChatSummary
	for rows.Next() {
		var sum models.ChatSummary
		if err := rows.Scan(&sum.ID, &sum.Title); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM chats WHERE session_id = $1`, sessionID)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return n > 0, nil
}
