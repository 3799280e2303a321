package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/suyashnema0707/MedGraph-Navigator/config"
	"github.com/suyashnema0707/MedGraph-Navigator/models"
)

const chatKeyPrefix = "chat:"

// RedisStore keeps each session as a JSON value under chat:<id>.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and verifies the server with a ping.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	port := cfg.Port
	if port == "" {
		port = "6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (models.ChatState, error) {
	raw, err := s.client.Get(ctx, chatKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return models.NewChatState(sessionID), nil
	}
	if err != nil {
		return models.ChatState{}, fmt.Errorf("redis get: %w", err)
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

func (s *RedisStore) Save(ctx context.Context, sessionID string, state models.ChatState) error {
	state.SessionID = sessionID
	state.UpdatedAt = time.Now().UTC()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = state.UpdatedAt
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.client.Set(ctx, chatKeyPrefix+sessionID, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]models.ChatSummary, error) {
	type row struct {
		summary models.ChatSummary
		updated time.Time
	}
	var rows []row

	iter := s.client.Scan(ctx, 0, chatKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		id := key[len(chatKeyPrefix):]
		state, err := s.Load(ctx, id)
		if err != nil {
			continue
		}
		rows = append(rows, row{
			summary: models.ChatSummary{ID: id, Title: models.TitleFor(state)},
			updated: state.UpdatedAt,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].updated.After(rows[j].updated) })

	out := make([]models.ChatSummary, len(rows))
	for i, r := range rows {
		out[i] = r.summary
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Del(ctx, chatKeyPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return n > 0, nil
}
