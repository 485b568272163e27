package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeClientAudioTurn   MessageType = "client_audio_turn"
	TypeClientSetLanguage MessageType = "client_set_language"
	TypeTranscript        MessageType = "transcript"
	TypeAssistantReply    MessageType = "assistant_reply"
	TypeAssistantAudio    MessageType = "assistant_audio"
	TypeReminderList      MessageType = "reminder_list"
	TypeTurnEnd           MessageType = "turn_end"
	TypeSystemEvent       MessageType = "system_event"
	TypeErrorEvent        MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ClientAudioTurn carries one complete recorded utterance. AudioID is the
// client's identity for the recording; re-sending the same id is a no-op.
type ClientAudioTurn struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	AudioID     string      `json:"audio_id"`
	AudioBase64 string      `json:"audio_base64"`
	MIME        string      `json:"mime,omitempty"`
	TSMs        int64       `json:"ts_ms"`
}

type ClientSetLanguage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Language  string      `json:"language"`
}

type Transcript struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	TurnID    string      `json:"turn_id"`
	Text      string      `json:"text"`
	TSMs      int64       `json:"ts_ms"`
}

// AssistantReply carries the response text and the route the turn took,
// either "reminder" or "conversation".
type AssistantReply struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	TurnID    string      `json:"turn_id"`
	Route     string      `json:"route"`
	Text      string      `json:"text"`
}

type AssistantAudio struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	TurnID      string      `json:"turn_id"`
	Format      string      `json:"format"`
	AudioBase64 string      `json:"audio_base64"`
}

type ReminderList struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Reminders []string    `json:"reminders"`
}

type TurnEnd struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	TurnID    string      `json:"turn_id"`
	Reason    string      `json:"reason"`
}

type SystemEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeClientAudioTurn:
		var msg ClientAudioTurn
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.AudioID == "" || msg.AudioBase64 == "" {
			return nil, errors.New("invalid client_audio_turn")
		}
		return msg, nil
	case TypeClientSetLanguage:
		var msg ClientSetLanguage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.Language == "" {
			return nil, errors.New("invalid client_set_language")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
