package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/jivanlabs/jivanmitra/internal/genai"
	"github.com/jivanlabs/jivanmitra/internal/observability"
)

// Kind is the routing decision for one utterance.
type Kind int

const (
	// KindConversation routes the utterance to the response generator.
	KindConversation Kind = iota
	// KindReminder routes the utterance to reminder capture.
	KindReminder
)

// Decision is a two-variant tagged value: either a reminder with its task
// text, or a plain conversational utterance. ReminderTask is meaningful only
// when Kind is KindReminder.
type Decision struct {
	Kind         Kind
	ReminderTask string
}

const promptFormat = `Analyze the following text to determine if it is a reminder request.
If it is a reminder, extract the core reminder task. Respond ONLY with a JSON object.
The JSON should have one key: "reminder_task".
If a reminder is found, the value should be the string of the task. If not, the value should be null.
Text to analyze: %q`

// Classifier decides whether an utterance is a reminder request.
//
// Classification is fail-open: any invocation or parse failure yields the
// conversational decision so a collaborator hiccup can never block the
// fallback reply path.
type Classifier struct {
	adapter genai.Adapter
	metrics *observability.Metrics
}

func New(adapter genai.Adapter, metrics *observability.Metrics) *Classifier {
	return &Classifier{adapter: adapter, metrics: metrics}
}

func (c *Classifier) Classify(ctx context.Context, userText string) Decision {
	raw, err := c.adapter.GenerateContent(ctx, genai.Request{Parts: []genai.Part{
		genai.TextPart(fmt.Sprintf(promptFormat, userText)),
	}})
	if err != nil {
		c.warn("invoke", err)
		return Decision{Kind: KindConversation}
	}

	var payload struct {
		ReminderTask *string `json:"reminder_task"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &payload); err != nil {
		c.warn("parse", err)
		return Decision{Kind: KindConversation}
	}

	if payload.ReminderTask == nil {
		return Decision{Kind: KindConversation}
	}
	task := strings.TrimSpace(*payload.ReminderTask)
	if task == "" {
		return Decision{Kind: KindConversation}
	}
	return Decision{Kind: KindReminder, ReminderTask: task}
}

func (c *Classifier) warn(stage string, err error) {
	log.Printf("intent classification %s failed, treating as conversation: %v", stage, err)
	if c.metrics != nil {
		c.metrics.ProviderErrors.WithLabelValues("intent_classifier", stage+"_failed").Inc()
	}
}

// stripCodeFences removes markdown code-fence wrapping that generative models
// commonly add around JSON payloads.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
