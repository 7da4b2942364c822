package domain

import (
	"encoding/json"
	"time"
)

type ChatSession struct {
	ID            int64
	SessionID     string
	BookingID     string // external booking id, not the row id
	GuestLanguage string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const (
	MessageUser = "user"
	MessageBot  = "bot"
)

// ChatMessage is append-only; rows are never mutated after insert.
type ChatMessage struct {
	ID        int64
	SessionID string
	Type      string // user|bot
	Content   string
	Metadata  json.RawMessage
	Timestamp time.Time
}
