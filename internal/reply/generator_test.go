package reply

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jivanlabs/jivanmitra/internal/genai"
	"github.com/jivanlabs/jivanmitra/internal/language"
)

type fakeAdapter struct {
	out string
	err error
	req genai.Request
}

func (f *fakeAdapter) GenerateContent(_ context.Context, req genai.Request) (string, error) {
	f.req = req
	return f.out, f.err
}

func TestGenerateUsesPersonaAndLanguage(t *testing.T) {
	fake := &fakeAdapter{out: "Namaste! Here is a story."}
	g := New(fake, DefaultPersona())

	hindi, _ := language.Parse("hi")
	out, err := g.Generate(context.Background(), "Tell me a story", hindi)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != "Namaste! Here is a story." {
		t.Fatalf("out = %q", out)
	}

	if len(fake.req.Parts) != 2 {
		t.Fatalf("len(Parts) = %d, want 2", len(fake.req.Parts))
	}
	header := fake.req.Parts[0].Text
	if !strings.Contains(header, "JivanMitra") {
		t.Fatalf("header missing persona name: %q", header)
	}
	if !strings.Contains(header, "respond in Hindi only") {
		t.Fatalf("header missing language constraint: %q", header)
	}
	if !strings.Contains(header, "stories, spiritual quotes, or simple health tips") {
		t.Fatalf("header missing cultural content allowance: %q", header)
	}
	if fake.req.Parts[1].Text != "Tell me a story" {
		t.Fatalf("user text = %q", fake.req.Parts[1].Text)
	}
}

func TestGenerateOmitsDisabledPersonaOptions(t *testing.T) {
	fake := &fakeAdapter{out: "ok"}
	g := New(fake, Persona{
		Name:            "JivanMitra",
		ToneDescription: "calm",
	})

	if _, err := g.Generate(context.Background(), "hi", language.Default()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	header := fake.req.Parts[0].Text
	if strings.Contains(header, "respond in") {
		t.Fatalf("language constraint emitted when disabled: %q", header)
	}
	if strings.Contains(header, "culturally relevant") {
		t.Fatalf("cultural content emitted when disabled: %q", header)
	}
}

func TestGeneratePropagatesFailure(t *testing.T) {
	upstream := errors.New("unavailable")
	g := New(&fakeAdapter{err: upstream}, DefaultPersona())

	_, err := g.Generate(context.Background(), "hello", language.Default())
	if !errors.Is(err, upstream) {
		t.Fatalf("error = %v, want wrapped upstream error", err)
	}
}

func TestGenerateRejectsEmptyReply(t *testing.T) {
	g := New(&fakeAdapter{out: "  \n"}, DefaultPersona())
	if _, err := g.Generate(context.Background(), "hello", language.Default()); err == nil {
		t.Fatalf("Generate() should fail on empty reply")
	}
}
