package speech

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jivanlabs/jivanmitra/internal/language"
)

// Synthesizer converts a text string and a language code into encoded audio
// bytes. Failures are recovered by callers: the turn still delivers text.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, code language.Code) ([]byte, error)
	// Format names the audio container produced, e.g. "mp3".
	Format() string
}

// Config controls synthesizer construction.
type Config struct {
	Provider string
	BaseURL  string
	Timeout  time.Duration
	Slow     bool
}

func NewSynthesizer(cfg Config) (Synthesizer, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "auto"
	}

	switch provider {
	case "auto", "gtrans":
		return NewGoogleTranslate(cfg), nil
	case "mock":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unsupported tts provider %q", cfg.Provider)
	}
}
