package models

import (
	"strings"
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatState is the full per-session conversational state. It is owned by
// exactly one session and mutated only by the handler that runs each turn.
// Messages is an append-only log: new turns append, never replace.
type ChatState struct {
	SessionID     string    `json:"session_id,omitempty"`
	Messages      []Message `json:"messages"`
	HealthIssue   string    `json:"health_issue"`
	ExtractedText string    `json:"extracted_text"`
	ImagePath     string    `json:"image_path"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// NewChatState returns a fresh state with all optional fields empty.
func NewChatState(sessionID string) ChatState {
	now := time.Now().UTC()
	return ChatState{
		SessionID: sessionID,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append returns a copy of the state with msg added to the history. The
// receiver is not modified, which keeps turn transitions pure.
func (s ChatState) Append(msg Message) ChatState {
	out := s
	out.Messages = make([]Message, 0, len(s.Messages)+1)
	out.Messages = append(out.Messages, s.Messages...)
	out.Messages = append(out.Messages, msg)
	return out
}

// LastUserMessage returns the content of the most recent user message,
// or "" if the history holds none.
func (s ChatState) LastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// ChatSummary is a listing row for a stored session.
type ChatSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

const maxTitleLen = 35

// TitleFor derives a listing title from a state's first user message.
func TitleFor(s ChatState) string {
	for _, m := range s.Messages {
		if m.Role != RoleUser {
			continue
		}
		if strings.HasPrefix(m.Content, "Uploaded report:") {
			return "Medical Report Analysis"
		}
		if len(m.Content) > maxTitleLen {
			return m.Content[:maxTitleLen] + "..."
		}
		return m.Content
	}
	return "New Conversation"
}

// Doctor is one listing returned by the locator service. Listings are
// ephemeral and never persisted beyond the response that carries them.
type Doctor struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Rating  float64 `json:"rating"`
}
