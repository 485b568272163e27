package genai

import (
	"context"
	"fmt"
	"strings"
)

// MockAdapter provides deterministic local replies when no API key is
// configured. It understands the three request shapes the companion issues
// (transcription, reminder classification, reply generation) well enough to
// run the whole pipeline offline.
type MockAdapter struct{}

func NewMockAdapter() *MockAdapter { return &MockAdapter{} }

func (a *MockAdapter) GenerateContent(ctx context.Context, req Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	for _, p := range req.Parts {
		if len(p.InlineData) > 0 {
			return "simulated voice input", nil
		}
	}
	if len(req.Parts) == 0 {
		return "", nil
	}

	instruction := req.Parts[0].Text
	if strings.Contains(instruction, `"reminder_task"`) {
		return mockClassification(instruction), nil
	}

	last := strings.TrimSpace(req.Parts[len(req.Parts)-1].Text)
	if last == "" {
		last = "I am listening."
	}
	return fmt.Sprintf("I heard you: %s", last), nil
}

func mockClassification(prompt string) string {
	// The analyzed utterance is embedded in the prompt between quotes.
	lower := strings.ToLower(prompt)
	marker := "remind me to "
	idx := strings.Index(lower, marker)
	if idx < 0 {
		return "```json\n{\"reminder_task\": null}\n```"
	}
	task := prompt[idx+len(marker):]
	if cut := strings.IndexByte(task, '"'); cut >= 0 {
		task = task[:cut]
	}
	task = strings.TrimSpace(task)
	if task == "" {
		return "```json\n{\"reminder_task\": null}\n```"
	}
	return fmt.Sprintf("```json\n{\"reminder_task\": %q}\n```", task)
}
