package language

import "fmt"

// Code is a supported spoken-language code.
type Code string

const (
	CodeEnglish Code = "en"
	CodeHindi   Code = "hi"
	CodeTelugu  Code = "te"
)

// Preference pairs a language code with the name used in generation prompts.
type Preference struct {
	Code        Code   `json:"code"`
	DisplayName string `json:"display_name"`
}

var supported = map[Code]Preference{
	CodeEnglish: {Code: CodeEnglish, DisplayName: "English"},
	CodeHindi:   {Code: CodeHindi, DisplayName: "Hindi"},
	CodeTelugu:  {Code: CodeTelugu, DisplayName: "Telugu"},
}

// Parse resolves a raw language code. An unsupported code is a configuration
// error, not a runtime path: callers reject it before any turn is processed.
func Parse(code string) (Preference, error) {
	p, ok := supported[Code(code)]
	if !ok {
		return Preference{}, fmt.Errorf("unsupported language code %q (expected en|hi|te)", code)
	}
	return p, nil
}

// Default is the preference used when a session does not choose one.
func Default() Preference {
	return supported[CodeEnglish]
}

// All lists the supported preferences in a stable order.
func All() []Preference {
	return []Preference{
		supported[CodeEnglish],
		supported[CodeHindi],
		supported[CodeTelugu],
	}
}
