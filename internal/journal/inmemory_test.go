package journal

import (
	"context"
	"testing"
)

func TestInMemoryStoreSaveAndRecent(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for _, content := range []string{"first", "second", "third"} {
		if err := s.SaveTurn(ctx, TurnRecord{SessionID: "s1", UserID: "u1", Role: "user", Content: content}); err != nil {
			t.Fatalf("SaveTurn() error = %v", err)
		}
	}

	got, err := s.RecentTurns(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("RecentTurns() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Content != "second" || got[1].Content != "third" {
		t.Fatalf("unexpected order: %q, %q", got[0].Content, got[1].Content)
	}
	if got[0].ID == "" || got[0].CreatedAt.IsZero() {
		t.Fatalf("record defaults not filled: %+v", got[0])
	}
}

func TestInMemoryStoreIsolatesSessions(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	_ = s.SaveTurn(ctx, TurnRecord{SessionID: "s1", Content: "a"})
	got, err := s.RecentTurns(ctx, "s2", 10)
	if err != nil {
		t.Fatalf("RecentTurns() error = %v", err)
	}
	if got != nil {
		t.Fatalf("records leaked across sessions: %+v", got)
	}
}

func TestNewStoreDefaultsToInMemory(t *testing.T) {
	s, err := NewStore(context.Background(), "  ")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, ok := s.(*InMemoryStore); !ok {
		t.Fatalf("store = %T, want *InMemoryStore", s)
	}
}
