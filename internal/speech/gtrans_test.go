package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jivanlabs/jivanmitra/internal/language"
)

func TestGoogleTranslateSynthesize(t *testing.T) {
	var gotLang []string
	var gotText []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate_tts" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotLang = append(gotLang, r.URL.Query().Get("tl"))
		gotText = append(gotText, r.URL.Query().Get("q"))
		_, _ = w.Write([]byte{0xFF, 0xFB, 0x01, 0x02})
	}))
	defer srv.Close()

	g := NewGoogleTranslate(Config{BaseURL: srv.URL})
	audio, err := g.Synthesize(context.Background(), "Okay, I will remind you to: take medicine", language.CodeHindi)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(audio) != 4 {
		t.Fatalf("len(audio) = %d, want 4", len(audio))
	}
	if len(gotLang) != 1 || gotLang[0] != "hi" {
		t.Fatalf("tl params = %v, want [hi]", gotLang)
	}
	if gotText[0] != "Okay, I will remind you to: take medicine" {
		t.Fatalf("q param = %q", gotText[0])
	}
}

func TestGoogleTranslateChunksLongText(t *testing.T) {
	var served int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served++
		_, _ = w.Write([]byte{0xAA})
	}))
	defer srv.Close()

	long := strings.Repeat("This is a fairly long sentence about daily life. ", 12)
	g := NewGoogleTranslate(Config{BaseURL: srv.URL})
	audio, err := g.Synthesize(context.Background(), long, language.CodeEnglish)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if served < 2 {
		t.Fatalf("served = %d requests, want chunked fetches", served)
	}
	if len(audio) != served {
		t.Fatalf("len(audio) = %d, want one byte per chunk (%d)", len(audio), served)
	}
}

func TestGoogleTranslateSurfacesHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewGoogleTranslate(Config{BaseURL: srv.URL})
	if _, err := g.Synthesize(context.Background(), "hello", language.CodeEnglish); err == nil {
		t.Fatalf("Synthesize() should fail on 503")
	}
}

func TestSplitChunksBoundaries(t *testing.T) {
	text := strings.Repeat("One sentence here. ", 30)
	chunks := splitChunks(strings.TrimSpace(text), maxChunkRunes)
	if len(chunks) < 2 {
		t.Fatalf("len(chunks) = %d, want > 1", len(chunks))
	}
	for i, c := range chunks {
		if utf8.RuneCountInString(c) > maxChunkRunes {
			t.Fatalf("chunk %d has %d runes, exceeds %d", i, utf8.RuneCountInString(c), maxChunkRunes)
		}
		if c == "" {
			t.Fatalf("chunk %d is empty", i)
		}
	}
	if got := strings.Join(chunks, " "); got != strings.TrimSpace(text) {
		t.Fatalf("chunks lose content:\n got %q\nwant %q", got, strings.TrimSpace(text))
	}
}

func TestSplitChunksShortTextUntouched(t *testing.T) {
	chunks := splitChunks("short text", maxChunkRunes)
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestNewSynthesizerProviderSelection(t *testing.T) {
	s, err := NewSynthesizer(Config{Provider: "mock"})
	if err != nil {
		t.Fatalf("NewSynthesizer(mock) error = %v", err)
	}
	if _, ok := s.(*MockSynthesizer); !ok {
		t.Fatalf("provider = %T, want *MockSynthesizer", s)
	}

	s, err = NewSynthesizer(Config{Provider: "auto"})
	if err != nil {
		t.Fatalf("NewSynthesizer(auto) error = %v", err)
	}
	if _, ok := s.(*GoogleTranslate); !ok {
		t.Fatalf("provider = %T, want *GoogleTranslate", s)
	}

	if _, err := NewSynthesizer(Config{Provider: "espeak"}); err == nil {
		t.Fatalf("unknown provider should fail")
	}
}
