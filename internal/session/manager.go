package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jivanlabs/jivanmitra/internal/language"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrEnded          = errors.New("session has ended")
	ErrTurnInProgress = errors.New("a turn is already in progress for this session")
)

// Session is the per-session state of the companion. Reminders and
// LastAudioID are mutated only through Manager methods called by the turn
// orchestrator; everything handed out of the Manager is a copy.
type Session struct {
	ID             string              `json:"session_id"`
	UserID         string              `json:"user_id"`
	Status         Status              `json:"status"`
	Language       language.Preference `json:"language"`
	Reminders      []string            `json:"reminders"`
	LastAudioID    string              `json:"last_audio_id,omitempty"`
	ActiveTurnID   string              `json:"active_turn_id,omitempty"`
	StartedAt      time.Time           `json:"started_at"`
	LastActivityAt time.Time           `json:"last_activity_at"`
}

type Manager struct {
	mu                sync.RWMutex
	sessions          map[string]*Session
	inactivityTimeout time.Duration
	onExpire          func(*Session)
}

func NewManager(inactivityTimeout time.Duration) *Manager {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 10 * time.Minute
	}
	return &Manager{
		sessions:          make(map[string]*Session),
		inactivityTimeout: inactivityTimeout,
	}
}

func (m *Manager) SetExpireHook(hook func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

func (m *Manager) Create(userID string, lang language.Preference) *Session {
	now := time.Now().UTC()
	s := &Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		Status:         StatusActive,
		Language:       lang,
		StartedAt:      now,
		LastActivityAt: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return clone(s)
}

func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

func (m *Manager) Touch(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	s.LastActivityAt = time.Now().UTC()
	return nil
}

// SetLanguage changes the session's spoken language. It takes effect from
// the next turn; an in-flight turn keeps the language it started with.
func (m *Manager) SetLanguage(sessionID string, lang language.Preference) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	s.Language = lang
	s.LastActivityAt = time.Now().UTC()
	return clone(s), nil
}

// StartTurn claims the session for a single in-flight turn. Turns are
// strictly serial per session: a second claim fails with ErrTurnInProgress.
func (m *Manager) StartTurn(sessionID, turnID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	if s.Status != StatusActive {
		return ErrEnded
	}
	if s.ActiveTurnID != "" {
		return ErrTurnInProgress
	}
	s.ActiveTurnID = turnID
	s.LastActivityAt = time.Now().UTC()
	return nil
}

// EndTurn releases the in-flight claim. A stale turnID is ignored so a late
// release cannot clobber a newer turn.
func (m *Manager) EndTurn(sessionID, turnID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	if s.ActiveTurnID != turnID {
		return
	}
	s.ActiveTurnID = ""
	s.LastActivityAt = time.Now().UTC()
}

// AppendReminder adds a task to the session's reminder list and returns the
// updated list. Insertion order is display order.
func (m *Manager) AppendReminder(sessionID, task string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	s.Reminders = append(s.Reminders, task)
	s.LastActivityAt = time.Now().UTC()
	out := make([]string, len(s.Reminders))
	copy(out, s.Reminders)
	return out, nil
}

// MarkAudioProcessed records the identity of the last fully routed audio
// event. A later turn carrying the same id is treated as a duplicate.
func (m *Manager) MarkAudioProcessed(sessionID, audioID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	s.LastAudioID = audioID
	s.LastActivityAt = time.Now().UTC()
	return nil
}

func (m *Manager) End(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	s.Status = StatusEnded
	s.ActiveTurnID = ""
	s.LastActivityAt = time.Now().UTC()
	return clone(s), nil
}

func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive()
			}
		}
	}()
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, s := range m.sessions {
		if s.Status == StatusActive {
			count++
		}
	}
	return count
}

func (m *Manager) expireInactive() {
	now := time.Now().UTC()
	var expired []*Session

	m.mu.Lock()
	for _, s := range m.sessions {
		if s.Status != StatusActive {
			continue
		}
		if now.Sub(s.LastActivityAt) < m.inactivityTimeout {
			continue
		}
		s.Status = StatusEnded
		s.ActiveTurnID = ""
		s.LastActivityAt = now
		expired = append(expired, clone(s))
	}
	hook := m.onExpire
	m.mu.Unlock()

	if hook != nil {
		for _, s := range expired {
			hook(s)
		}
	}
}

func clone(s *Session) *Session {
	c := *s
	if s.Reminders != nil {
		c.Reminders = make([]string, len(s.Reminders))
		copy(c.Reminders, s.Reminders)
	}
	return &c
}
