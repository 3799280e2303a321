package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/suyashnema0707/MedGraph-Navigator/models"
)

// FileStore keeps one <session>.json per chat in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "chats"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

// Load reads a session file; a missing or unreadable file yields a
// fresh empty state.
func (s *FileStore) Load(_ context.Context, sessionID string) (models.ChatState, error) {
	raw, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		return models.NewChatState(sessionID), nil
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

// Save writes the session file atomically.
func (s *FileStore) Save(_ context.Context, sessionID string, state models.ChatState) error {
	state.SessionID = sessionID
	state.UpdatedAt = time.Now().UTC()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = state.UpdatedAt
	}
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp := s.path(sessionID) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path(sessionID)); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// List scans the directory and returns summaries, newest first.
func (s *FileStore) List(ctx context.Context) ([]models.ChatSummary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}

	type row struct {
		summary models.ChatSummary
		mtime   time.Time
	}
	var rows []row
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		info, err := e.Info()
		if err != nil {
			continue
		}
		state, err := s.Load(ctx, id)
		if err != nil {
			continue
		}
		rows = append(rows, row{
			summary: models.ChatSummary{ID: id, Title: models.TitleFor(state)},
			mtime:   info.ModTime(),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].mtime.After(rows[j].mtime) })

	out := make([]models.ChatSummary, len(rows))
	for i, r := range rows {
		out[i] = r.summary
	}
	return out, nil
}

// Delete removes the session file.
func (s *FileStore) Delete(_ context.Context, sessionID string) (bool, error) {
	err := os.Remove(s.path(sessionID))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return true, nil
}
