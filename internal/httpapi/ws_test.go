package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jivanlabs/jivanmitra/internal/language"
	"github.com/jivanlabs/jivanmitra/internal/protocol"
	"github.com/jivanlabs/jivanmitra/internal/turn"
)

func dialWS(t *testing.T, httpURL, sessionID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(httpURL, "http") + "/v1/session/ws?session_id=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("ws dial error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) (protocol.MessageType, []byte) {
	t.Helper()
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ws read error = %v", err)
	}
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env.Type, data
}

func TestWSAudioTurnStreamsResult(t *testing.T) {
	orch := &stubOrchestrator{
		result: turn.Result{
			Status:        turn.StatusReminder,
			TurnID:        "t1",
			Transcript:    "remind me to rest",
			ResponseText:  "Okay, I will remind you to: rest",
			Audio:         []byte{0xFF, 0xFB},
			AudioFormat:   "mp3",
			ReminderAdded: true,
			Reminders:     []string{"rest"},
		},
	}
	ts, sessions, _ := newTestServer(t, orch)
	sess := sessions.Create("user-1", language.Default())
	conn := dialWS(t, ts.URL, sess.ID)

	msg := protocol.ClientAudioTurn{
		Type:        protocol.TypeClientAudioTurn,
		SessionID:   sess.ID,
		AudioID:     "a1",
		AudioBase64: base64.StdEncoding.EncodeToString([]byte{1, 2, 3}),
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("ws write error = %v", err)
	}

	seen := map[protocol.MessageType]bool{}
	for !seen[protocol.TypeTurnEnd] {
		mt, data := readEnvelope(t, conn)
		seen[mt] = true
		if mt == protocol.TypeAssistantReply {
			var reply protocol.AssistantReply
			if err := json.Unmarshal(data, &reply); err != nil {
				t.Fatalf("decode reply: %v", err)
			}
			if reply.Route != "reminder" || reply.Text == "" {
				t.Fatalf("unexpected reply: %+v", reply)
			}
		}
	}
	for _, want := range []protocol.MessageType{
		protocol.TypeTranscript,
		protocol.TypeAssistantReply,
		protocol.TypeAssistantAudio,
		protocol.TypeReminderList,
	} {
		if !seen[want] {
			t.Fatalf("missing %s in stream, saw %v", want, seen)
		}
	}
}

func TestWSSetLanguage(t *testing.T) {
	ts, sessions, _ := newTestServer(t, &stubOrchestrator{})
	sess := sessions.Create("user-1", language.Default())
	conn := dialWS(t, ts.URL, sess.ID)

	msg := protocol.ClientSetLanguage{
		Type:      protocol.TypeClientSetLanguage,
		SessionID: sess.ID,
		Language:  "hi",
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("ws write error = %v", err)
	}

	mt, data := readEnvelope(t, conn)
	if mt != protocol.TypeSystemEvent {
		t.Fatalf("message type = %s, want system_event", mt)
	}
	var ev protocol.SystemEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Code != "language_changed" || ev.Detail != "hi" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	got, err := sessions.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Language.Code != language.CodeHindi {
		t.Fatalf("language = %q, want hi", got.Language.Code)
	}
}

func TestWSDuplicateAudioEmitsSystemEvent(t *testing.T) {
	ts, sessions, _ := newTestServer(t, &stubOrchestrator{result: turn.Result{Status: turn.StatusDuplicate}})
	sess := sessions.Create("user-1", language.Default())
	conn := dialWS(t, ts.URL, sess.ID)

	msg := protocol.ClientAudioTurn{
		Type:        protocol.TypeClientAudioTurn,
		SessionID:   sess.ID,
		AudioID:     "a1",
		AudioBase64: base64.StdEncoding.EncodeToString([]byte{1}),
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("ws write error = %v", err)
	}

	mt, data := readEnvelope(t, conn)
	if mt != protocol.TypeSystemEvent {
		t.Fatalf("message type = %s, want system_event", mt)
	}
	var ev protocol.SystemEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Code != "duplicate_audio" {
		t.Fatalf("code = %q, want duplicate_audio", ev.Code)
	}
}

func TestWSInvalidMessageEmitsError(t *testing.T) {
	ts, sessions, _ := newTestServer(t, &stubOrchestrator{})
	sess := sessions.Create("user-1", language.Default())
	conn := dialWS(t, ts.URL, sess.ID)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"wat"}`)); err != nil {
		t.Fatalf("ws write error = %v", err)
	}

	mt, data := readEnvelope(t, conn)
	if mt != protocol.TypeErrorEvent {
		t.Fatalf("message type = %s, want error_event", mt)
	}
	var ev protocol.ErrorEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Code != "invalid_client_message" {
		t.Fatalf("code = %q, want invalid_client_message", ev.Code)
	}
}

func TestWSRejectsUnknownSession(t *testing.T) {
	ts, _, _ := newTestServer(t, &stubOrchestrator{})
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/session/ws?session_id=nope"
	_, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected dial failure for unknown session")
	}
	if res == nil || res.StatusCode != 404 {
		t.Fatalf("response = %+v, want 404", res)
	}
}
