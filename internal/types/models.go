// internal/types/models.go
package types

import (
	"fmt"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ParseRole validates a wire-format role name.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAssistant, RoleSystem:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown message role: %q", s)
}

// MessageMeta carries the known metadata fields of a message plus an open
// extension map for anything a transport adapter wants to record.
type MessageMeta struct {
	Tier   Tier           `json:"authorization_tier"`
	UserID UserID         `json:"user_id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// Message is a single conversation turn. Messages are immutable once
// appended to a session.
type Message struct {
	ID        MessageID    `json:"id"`
	Role      Role         `json:"role"`
	Content   string       `json:"content"`
	Timestamp time.Time    `json:"timestamp"`
	Meta      *MessageMeta `json:"metadata,omitempty"`
}

// Session is a bounded, ordered conversation transcript. The session store
// exclusively owns it; History hands out copies.
type Session struct {
	ID        SessionID `json:"id"`
	UserID    UserID    `json:"user_id,omitempty"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tone is a closed set of response-style preferences.
type Tone string

const (
	ToneConcise  Tone = "concise"
	ToneBalanced Tone = "balanced"
	ToneDetailed Tone = "detailed"
)

// ParseTone validates a wire-format tone name. The empty string maps to
// ToneBalanced.
func ParseTone(s string) (Tone, error) {
	switch Tone(s) {
	case "":
		return ToneBalanced, nil
	case ToneConcise, ToneBalanced, ToneDetailed:
		return Tone(s), nil
	}
	return "", fmt.Errorf("unknown tone preference: %q", s)
}

// UserPreferences is the persistent per-user settings record. One record
// per user; Put replaces the whole record (last complete write wins).
type UserPreferences struct {
	UserID                 UserID         `json:"user_id"`
	TonePreference         Tone           `json:"tone_preference"`
	MaxResponseLength      int            `json:"max_response_length"`
	ClarificationQuestions bool           `json:"enable_clarification_questions"`
	CustomSettings         map[string]any `json:"custom_settings,omitempty"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// DefaultPreferences returns the settings used when a user has never saved
// any.
func DefaultPreferences(userID UserID) *UserPreferences {
	return &UserPreferences{
		UserID:                 userID,
		TonePreference:         ToneBalanced,
		MaxResponseLength:      500,
		ClarificationQuestions: true,
	}
}

// ModelDescriptor is the fixed model metadata surfaced to clients.
type ModelDescriptor struct {
	Designation     string   `json:"designation"`
	Name            string   `json:"name"`
	Version         string   `json:"version"`
	Characteristics []string `json:"characteristics,omitempty"`
	Capabilities    []string `json:"capabilities,omitempty"`
}

// Label returns the descriptor in the form reported by chat responses,
// e.g. "SLM-A1 (Anthroi-1)".
func (d ModelDescriptor) Label() string {
	return fmt.Sprintf("%s (%s)", d.Designation, d.Name)
}

// CanonMemory is the single authoritative knowledge document. It is always
// locked for ordinary callers; only admin-tier requests may write it, and
// every accepted write bumps Version.
type CanonMemory struct {
	SystemKnowledge map[string]any  `json:"system_knowledge"`
	Model           ModelDescriptor `json:"model_info"`
	Locked          bool            `json:"locked"`
	Version         string          `json:"version"`
	LastUpdated     *time.Time      `json:"last_updated,omitempty"`
}
