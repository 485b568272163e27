package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jivanlabs/jivanmitra/internal/language"
)

// The endpoint rejects queries longer than this; longer replies are split on
// sentence and space boundaries and the MP3 payloads concatenated.
const maxChunkRunes = 200

// GoogleTranslate synthesizes speech through the Google Translate TTS
// endpoint (the backend gTTS uses). It produces MP3 audio.
type GoogleTranslate struct {
	baseURL string
	slow    bool
	client  *http.Client
}

func NewGoogleTranslate(cfg Config) *GoogleTranslate {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://translate.google.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GoogleTranslate{
		baseURL: baseURL,
		slow:    cfg.Slow,
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *GoogleTranslate) Format() string { return "mp3" }

func (g *GoogleTranslate) Synthesize(ctx context.Context, text string, code language.Code) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty synthesis text")
	}

	chunks := splitChunks(text, maxChunkRunes)
	var out bytes.Buffer
	for idx, chunk := range chunks {
		audio, err := g.fetchChunk(ctx, chunk, code, idx, len(chunks))
		if err != nil {
			return nil, fmt.Errorf("synthesize chunk %d/%d: %w", idx+1, len(chunks), err)
		}
		_, _ = out.Write(audio)
	}
	return out.Bytes(), nil
}

func (g *GoogleTranslate) fetchChunk(ctx context.Context, chunk string, code language.Code, idx, total int) ([]byte, error) {
	speed := "1"
	if g.slow {
		speed = "0.24"
	}
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", string(code))
	q.Set("ttsspeed", speed)
	q.Set("q", chunk)
	q.Set("idx", strconv.Itoa(idx))
	q.Set("total", strconv.Itoa(total))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/translate_tts?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	res, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts http status %d", res.StatusCode)
	}
	return io.ReadAll(res.Body)
}

// splitChunks breaks text into pieces of at most max runes, preferring
// sentence boundaries, then spaces, before cutting mid-word.
func splitChunks(text string, max int) []string {
	if utf8.RuneCountInString(text) <= max {
		return []string{text}
	}

	var chunks []string
	remaining := text
	for utf8.RuneCountInString(remaining) > max {
		window := string([]rune(remaining)[:max])
		cut := lastBoundary(window)
		if cut <= 0 {
			cut = len(window)
		}
		chunks = append(chunks, strings.TrimSpace(remaining[:cut]))
		remaining = strings.TrimSpace(remaining[cut:])
	}
	if remaining != "" {
		chunks = append(chunks, remaining)
	}
	return chunks
}

func lastBoundary(window string) int {
	best := -1
	for _, sep := range []string{". ", "! ", "? ", "।", "\n"} {
		if i := strings.LastIndex(window, sep); i >= 0 && i+len(sep) > best {
			best = i + len(sep)
		}
	}
	if best > 0 {
		return best
	}
	if i := strings.LastIndex(window, " "); i > 0 {
		return i + 1
	}
	return -1
}
