package speech

import (
	"context"
	"errors"
	"sync"

	"github.com/jivanlabs/jivanmitra/internal/language"
)

// MockSynthesizer is a local fallback synthesizer. It records every call so
// tests can assert which text and language code were requested.
type MockSynthesizer struct {
	mu    sync.Mutex
	calls []MockCall
	fail  bool
}

type MockCall struct {
	Text string
	Code language.Code
}

func NewMock() *MockSynthesizer { return &MockSynthesizer{} }

// SetFail makes every subsequent Synthesize call return an error.
func (m *MockSynthesizer) SetFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

func (m *MockSynthesizer) Format() string { return "mp3" }

func (m *MockSynthesizer) Synthesize(ctx context.Context, text string, code language.Code) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Text: text, Code: code})
	if m.fail {
		return nil, errors.New("mock synthesis failure")
	}
	// A bare MPEG frame header followed by the text keeps payloads sniffable.
	out := append([]byte{0xFF, 0xFB, 0x90, 0x00}, []byte(text)...)
	return out, nil
}

// Calls returns a copy of the recorded synthesis calls.
func (m *MockSynthesizer) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}
