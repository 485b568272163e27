package journal

import (
	"context"
	"time"
)

// TurnRecord stores one side of a routed turn: what the user said or what
// the companion answered. Records are write-only observability data; the
// core decision flow never reads them back.
type TurnRecord struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	Route       string    `json:"route"`
	Language    string    `json:"language"`
	PIIRedacted bool      `json:"pii_redacted"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists turn records.
type Store interface {
	SaveTurn(ctx context.Context, record TurnRecord) error
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]TurnRecord, error)
	Close() error
}
