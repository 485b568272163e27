package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Part is one ordered segment of a generation request: either plain text or
// an inline audio payload.
type Part struct {
	Text       string
	InlineMIME string
	InlineData []byte
}

// TextPart builds an instruction or content segment.
func TextPart(text string) Part {
	return Part{Text: text}
}

// AudioPart builds an inline audio segment.
func AudioPart(mime string, data []byte) Part {
	return Part{InlineMIME: mime, InlineData: data}
}

// Request is the normalized request sent to the text-generation collaborator.
type Request struct {
	Parts []Part
}

// Adapter bridges the companion runtime with a text-generation capability.
// Implementations return the collaborator's free-form text output; callers
// must tolerate extraneous formatting around structured payloads.
type Adapter interface {
	GenerateContent(ctx context.Context, req Request) (string, error)
}

// Config controls adapter construction.
type Config struct {
	Mode    string
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func NewAdapter(cfg Config) (Adapter, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" {
			return NewGeminiAdapter(cfg), nil
		}
		return NewMockAdapter(), nil
	case "gemini":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("GEMINI_API_KEY is required for gemini mode")
		}
		return NewGeminiAdapter(cfg), nil
	case "mock":
		return NewMockAdapter(), nil
	default:
		return nil, fmt.Errorf("unsupported genai adapter mode %q", cfg.Mode)
	}
}
