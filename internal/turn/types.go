package turn

import "fmt"

// AudioEvent is one captured utterance handed over by the capture
// collaborator. ID is an opaque, per-capture-unique token; it is the sole
// deduplication key, payload equality is never checked.
type AudioEvent struct {
	ID    string
	Bytes []byte
	MIME  string
}

// Status is the routing outcome of one handled event.
type Status string

const (
	// StatusReminder means the utterance was captured as a reminder.
	StatusReminder Status = "reminder"
	// StatusConversation means the utterance received a conversational reply.
	StatusConversation Status = "conversation"
	// StatusDuplicate means the event id was already processed; nothing ran.
	StatusDuplicate Status = "duplicate"
	// StatusBusy means another turn was in flight for the session.
	StatusBusy Status = "busy"
)

// Result carries everything the presentation shell renders for one turn.
type Result struct {
	Status        Status   `json:"status"`
	TurnID        string   `json:"turn_id,omitempty"`
	Transcript    string   `json:"transcript,omitempty"`
	ResponseText  string   `json:"response_text,omitempty"`
	Audio         []byte   `json:"-"`
	AudioFormat   string   `json:"audio_format,omitempty"`
	ReminderAdded bool     `json:"reminder_added"`
	Reminders     []string `json:"reminders"`
}

// TranscriptionError is fatal to the turn: the event remains unprocessed and
// may be re-delivered.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("sorry, I could not understand the audio: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// GenerationError is fatal to the turn's reply. The event is still marked
// processed: the utterance was understood, just not answerable.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("error generating response: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
