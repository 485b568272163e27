package httpapi

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jivanlabs/jivanmitra/internal/language"
	"github.com/jivanlabs/jivanmitra/internal/protocol"
	"github.com/jivanlabs/jivanmitra/internal/reliability"
	"github.com/jivanlabs/jivanmitra/internal/session"
	"github.com/jivanlabs/jivanmitra/internal/turn"
)

const (
	wsWriteDeadline = 10 * time.Second
	wsReadDeadline  = 120 * time.Second
)

// handleSessionWS streams turn results over a websocket. Turns are processed
// serially in the read loop, which matches the one-in-flight-turn rule.
func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}
	if _, err := s.sessions.Get(sessionID); err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()
	defer s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()

	ctx := r.Context()

	outbound := make(chan any, 64)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range outbound {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := conn.WriteJSON(msg); err != nil {
				// Drain so the read loop never blocks on a dead peer.
				for range outbound {
				}
				return
			}
			if t, ok := messageTypeOf(msg); ok {
				s.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
			}
		}
	}()

	conn.SetReadLimit(8 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		if msgType != websocket.TextMessage {
			continue
		}

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			send(outbound, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "invalid_client_message",
				Source:    "gateway",
				Retryable: false,
				Detail:    err.Error(),
			})
			continue
		}
		if t, ok := messageTypeOf(parsed); ok {
			s.metrics.WSMessages.WithLabelValues("inbound", string(t)).Inc()
		}

		switch msg := parsed.(type) {
		case protocol.ClientSetLanguage:
			s.wsSetLanguage(outbound, msg)
		case protocol.ClientAudioTurn:
			s.wsAudioTurn(ctx, outbound, msg)
		}
	}

	close(outbound)
	<-writerDone
}

func (s *Server) wsSetLanguage(outbound chan<- any, msg protocol.ClientSetLanguage) {
	lang, err := language.Parse(msg.Language)
	if err != nil {
		send(outbound, protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			SessionID: msg.SessionID,
			Code:      "unsupported_language",
			Source:    "gateway",
			Retryable: false,
			Detail:    err.Error(),
		})
		return
	}
	if _, err := s.sessions.SetLanguage(msg.SessionID, lang); err != nil {
		send(outbound, protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			SessionID: msg.SessionID,
			Code:      "session_not_found",
			Source:    "gateway",
			Retryable: false,
			Detail:    err.Error(),
		})
		return
	}
	s.metrics.SessionEvents.WithLabelValues("language_changed").Inc()
	send(outbound, protocol.SystemEvent{
		Type:      protocol.TypeSystemEvent,
		SessionID: msg.SessionID,
		Code:      "language_changed",
		Detail:    string(lang.Code),
	})
}

func (s *Server) wsAudioTurn(ctx context.Context, outbound chan<- any, msg protocol.ClientAudioTurn) {
	audioBytes, err := base64.StdEncoding.DecodeString(msg.AudioBase64)
	if err != nil || len(audioBytes) == 0 {
		send(outbound, protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			SessionID: msg.SessionID,
			Code:      "invalid_audio",
			Source:    "gateway",
			Retryable: false,
			Detail:    "audio_base64 must be non-empty valid base64",
		})
		return
	}

	res, err := s.orchestrator.Handle(ctx, msg.SessionID, turn.AudioEvent{
		ID:    msg.AudioID,
		Bytes: audioBytes,
		MIME:  msg.MIME,
	})
	if err != nil {
		send(outbound, turnErrorEvent(msg.SessionID, err))
		return
	}

	switch res.Status {
	case turn.StatusDuplicate:
		send(outbound, protocol.SystemEvent{
			Type:      protocol.TypeSystemEvent,
			SessionID: msg.SessionID,
			Code:      "duplicate_audio",
			Detail:    msg.AudioID,
		})
		return
	case turn.StatusBusy:
		send(outbound, protocol.SystemEvent{
			Type:      protocol.TypeSystemEvent,
			SessionID: msg.SessionID,
			Code:      "turn_in_progress",
		})
		return
	}

	send(outbound, protocol.Transcript{
		Type:      protocol.TypeTranscript,
		SessionID: msg.SessionID,
		TurnID:    res.TurnID,
		Text:      res.Transcript,
		TSMs:      time.Now().UnixMilli(),
	})
	send(outbound, protocol.AssistantReply{
		Type:      protocol.TypeAssistantReply,
		SessionID: msg.SessionID,
		TurnID:    res.TurnID,
		Route:     string(res.Status),
		Text:      res.ResponseText,
	})
	if len(res.Audio) > 0 {
		send(outbound, protocol.AssistantAudio{
			Type:        protocol.TypeAssistantAudio,
			SessionID:   msg.SessionID,
			TurnID:      res.TurnID,
			Format:      res.AudioFormat,
			AudioBase64: base64.StdEncoding.EncodeToString(res.Audio),
		})
	}
	if res.ReminderAdded {
		send(outbound, protocol.ReminderList{
			Type:      protocol.TypeReminderList,
			SessionID: msg.SessionID,
			Reminders: res.Reminders,
		})
	}
	send(outbound, protocol.TurnEnd{
		Type:      protocol.TypeTurnEnd,
		SessionID: msg.SessionID,
		TurnID:    res.TurnID,
		Reason:    "completed",
	})
}

func turnErrorEvent(sessionID string, err error) protocol.ErrorEvent {
	ev := protocol.ErrorEvent{
		Type:      protocol.TypeErrorEvent,
		SessionID: sessionID,
		Source:    "turn",
		Detail:    err.Error(),
	}

	var terr *turn.TranscriptionError
	var gerr *turn.GenerationError
	switch {
	case errors.Is(err, session.ErrNotFound):
		ev.Code = "session_not_found"
		ev.Source = "gateway"
	case errors.Is(err, session.ErrEnded):
		ev.Code = "session_ended"
		ev.Source = "gateway"
	case errors.As(err, &terr):
		ev.Code = "transcription_failed"
		ev.Retryable = reliability.IsRetryable(terr.Err)
	case errors.As(err, &gerr):
		ev.Code = "generation_failed"
	default:
		ev.Code = "internal_error"
	}
	return ev
}

// send enqueues without blocking the read loop; a saturated peer loses the
// message rather than stalling turn processing.
func send(outbound chan<- any, msg any) {
	select {
	case outbound <- msg:
	default:
	}
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.ClientAudioTurn:
		return m.Type, true
	case protocol.ClientSetLanguage:
		return m.Type, true
	case protocol.Transcript:
		return m.Type, true
	case protocol.AssistantReply:
		return m.Type, true
	case protocol.AssistantAudio:
		return m.Type, true
	case protocol.ReminderList:
		return m.Type, true
	case protocol.TurnEnd:
		return m.Type, true
	case protocol.SystemEvent:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
