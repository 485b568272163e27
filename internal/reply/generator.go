package reply

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jivanlabs/jivanmitra/internal/genai"
	"github.com/jivanlabs/jivanmitra/internal/language"
)

// Persona is the fixed stylistic and behavioral configuration applied to
// every conversational reply.
type Persona struct {
	Name                   string
	ToneDescription        string
	LanguageConstraint     bool
	CulturalContentAllowed bool
}

// DefaultPersona is the companion's caring-grandchild persona for elderly
// users in India.
func DefaultPersona() Persona {
	return Persona{
		Name:                   "JivanMitra",
		ToneDescription:        "warm, empathetic, and patient",
		LanguageConstraint:     true,
		CulturalContentAllowed: true,
	}
}

// Generator produces the conversational reply for non-reminder utterances.
type Generator struct {
	adapter genai.Adapter
	persona Persona
}

func New(adapter genai.Adapter, persona Persona) *Generator {
	if persona.Name == "" {
		persona = DefaultPersona()
	}
	return &Generator{adapter: adapter, persona: persona}
}

func (g *Generator) Generate(ctx context.Context, userText string, lang language.Preference) (string, error) {
	out, err := g.adapter.GenerateContent(ctx, genai.Request{Parts: []genai.Part{
		genai.TextPart(g.systemHeader(lang)),
		genai.TextPart(userText),
	}})
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}

	text := strings.TrimSpace(out)
	if text == "" {
		return "", errors.New("generator produced no text")
	}
	return text, nil
}

func (g *Generator) systemHeader(lang language.Preference) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are '%s', a %s AI companion for elderly individuals in India.\n", g.persona.Name, g.persona.ToneDescription)
	b.WriteString("Your personality is like a caring grandchild. ")
	if g.persona.LanguageConstraint {
		fmt.Fprintf(&b, "You must respond in %s only.\n", lang.DisplayName)
	}
	b.WriteString("Keep your responses simple, positive, and respectful.\n")
	if g.persona.CulturalContentAllowed {
		b.WriteString("You can share culturally relevant stories, spiritual quotes, or simple health tips if relevant.\n")
	}
	return b.String()
}
