package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/jivanlabs/jivanmitra/internal/config"
	"github.com/jivanlabs/jivanmitra/internal/language"
	"github.com/jivanlabs/jivanmitra/internal/observability"
	"github.com/jivanlabs/jivanmitra/internal/session"
	"github.com/jivanlabs/jivanmitra/internal/turn"
)

// Orchestrator processes one audio event for a session.
type Orchestrator interface {
	Handle(ctx context.Context, sessionID string, event turn.AudioEvent) (turn.Result, error)
}

type Server struct {
	cfg          config.Config
	sessions     *session.Manager
	orchestrator Orchestrator
	metrics      *observability.Metrics
	upgrader     websocket.Upgrader
}

func New(cfg config.Config, sessions *session.Manager, orchestrator Orchestrator, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:          cfg,
		sessions:     sessions,
		orchestrator: orchestrator,
		metrics:      metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so other websites cannot drive a user's session
				// if the service is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/session", s.handleCreateSession)
	r.Get("/v1/session/ws", s.handleSessionWS)
	r.Get("/v1/session/{id}", s.handleGetSession)
	r.Post("/v1/session/{id}/end", s.handleEndSession)
	r.Post("/v1/session/{id}/language", s.handleSetLanguage)
	r.Get("/v1/session/{id}/reminders", s.handleListReminders)
	r.Post("/v1/session/{id}/turn", s.handleTurn)
	r.Get("/v1/languages", s.handleListLanguages)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handleListLanguages(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"languages": language.All()})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req session.CreateRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = "anonymous"
	}

	lang := s.cfg.DefaultLanguage
	if strings.TrimSpace(req.Language) != "" {
		var err error
		lang, err = language.Parse(req.Language)
		if err != nil {
			respondError(w, http.StatusBadRequest, "unsupported_language", err.Error())
			return
		}
	}

	sess := s.sessions.Create(req.UserID, lang)
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("created").Inc()

	respondJSON(w, http.StatusCreated, session.CreateResponse{
		SessionID:       sess.ID,
		UserID:          sess.UserID,
		Status:          sess.Status,
		LanguageCode:    string(sess.Language.Code),
		LanguageName:    sess.Language.DisplayName,
		StartedAt:       sess.StartedAt,
		LastActivityAt:  sess.LastActivityAt,
		InactivityTTLMS: s.cfg.SessionInactivityTimeout.Milliseconds(),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromPath(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	sess, err := s.sessions.End(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("ended").Inc()
	respondJSON(w, http.StatusOK, sess)
}

type setLanguageRequest struct {
	Language string `json:"language"`
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req setLanguageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	lang, err := language.Parse(req.Language)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unsupported_language", err.Error())
		return
	}
	sess, err := s.sessions.SetLanguage(id, lang)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	s.metrics.SessionEvents.WithLabelValues("language_changed").Inc()
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromPath(w, r)
	if !ok {
		return
	}
	reminders := sess.Reminders
	if reminders == nil {
		reminders = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"reminders":  reminders,
	})
}

type turnRequest struct {
	AudioID     string `json:"audio_id"`
	AudioBase64 string `json:"audio_base64"`
	MIME        string `json:"mime"`
}

type turnResponse struct {
	turn.Result
	AudioBase64 string `json:"audio_base64,omitempty"`
}

// handleTurn is the synchronous one-shot shape of the turn pipeline: one
// recorded utterance in, transcript plus routed response out.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req turnRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.AudioID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "audio_id is required")
		return
	}
	audioBytes, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil || len(audioBytes) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_audio", "audio_base64 must be non-empty valid base64")
		return
	}

	res, err := s.orchestrator.Handle(r.Context(), id, turn.AudioEvent{
		ID:    req.AudioID,
		Bytes: audioBytes,
		MIME:  req.MIME,
	})
	if err != nil {
		s.respondTurnError(w, err)
		return
	}
	if res.Status == turn.StatusBusy {
		respondError(w, http.StatusConflict, "turn_in_progress", "another turn is already being processed")
		return
	}

	out := turnResponse{Result: res}
	if len(res.Audio) > 0 {
		out.AudioBase64 = base64.StdEncoding.EncodeToString(res.Audio)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) respondTurnError(w http.ResponseWriter, err error) {
	var terr *turn.TranscriptionError
	var gerr *turn.GenerationError
	switch {
	case errors.Is(err, session.ErrNotFound):
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, session.ErrEnded):
		respondError(w, http.StatusConflict, "session_ended", err.Error())
	case errors.Is(err, session.ErrTurnInProgress):
		respondError(w, http.StatusConflict, "turn_in_progress", err.Error())
	case errors.As(err, &terr):
		respondError(w, http.StatusBadGateway, "transcription_failed", terr.Error())
	case errors.As(err, &gerr):
		respondError(w, http.StatusBadGateway, "generation_failed", gerr.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func (s *Server) sessionFromPath(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return nil, false
	}
	return sess, true
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
