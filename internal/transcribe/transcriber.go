package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jivanlabs/jivanmitra/internal/genai"
)

const instruction = "Transcribe the following audio recording and provide only the text."

// ErrEmptyTranscript is returned when the collaborator produced no usable
// text for the recording.
var ErrEmptyTranscript = errors.New("transcription produced no text")

// Transcriber converts a recorded utterance into text through the
// text-generation collaborator. Any failure here is fatal for the turn: the
// orchestrator cannot route an utterance it never saw.
type Transcriber struct {
	adapter genai.Adapter
}

func New(adapter genai.Adapter) *Transcriber {
	return &Transcriber{adapter: adapter}
}

func (t *Transcriber) Transcribe(ctx context.Context, audioBytes []byte, mime string) (string, error) {
	if len(audioBytes) == 0 {
		return "", errors.New("empty audio payload")
	}

	out, err := t.adapter.GenerateContent(ctx, genai.Request{Parts: []genai.Part{
		genai.TextPart(instruction),
		genai.AudioPart(mime, audioBytes),
	}})
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}

	text := strings.TrimSpace(out)
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}
