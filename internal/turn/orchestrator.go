package turn

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jivanlabs/jivanmitra/internal/audio"
	"github.com/jivanlabs/jivanmitra/internal/intent"
	"github.com/jivanlabs/jivanmitra/internal/journal"
	"github.com/jivanlabs/jivanmitra/internal/language"
	"github.com/jivanlabs/jivanmitra/internal/observability"
	"github.com/jivanlabs/jivanmitra/internal/policy"
	"github.com/jivanlabs/jivanmitra/internal/reply"
	"github.com/jivanlabs/jivanmitra/internal/session"
	"github.com/jivanlabs/jivanmitra/internal/speech"
	"github.com/jivanlabs/jivanmitra/internal/transcribe"
)

const (
	journalSaveTimeout = 2 * time.Second
)

// confirmationFormat is the spoken confirmation for a captured reminder.
const confirmationFormat = "Okay, I will remind you to: %s"

// Orchestrator routes one audio event to exactly one of two outcomes:
// reminder capture or conversational reply. It is the only mutator of
// session state.
type Orchestrator struct {
	sessions     *session.Manager
	transcriber  *transcribe.Transcriber
	classifier   *intent.Classifier
	generator    *reply.Generator
	synth        speech.Synthesizer
	journalStore journal.Store
	metrics      *observability.Metrics

	genaiTimeout time.Duration
	ttsTimeout   time.Duration
}

func NewOrchestrator(
	sessions *session.Manager,
	transcriber *transcribe.Transcriber,
	classifier *intent.Classifier,
	generator *reply.Generator,
	synth speech.Synthesizer,
	journalStore journal.Store,
	metrics *observability.Metrics,
	genaiTimeout time.Duration,
	ttsTimeout time.Duration,
) *Orchestrator {
	if genaiTimeout <= 0 {
		genaiTimeout = 30 * time.Second
	}
	if ttsTimeout <= 0 {
		ttsTimeout = 15 * time.Second
	}
	return &Orchestrator{
		sessions:     sessions,
		transcriber:  transcriber,
		classifier:   classifier,
		generator:    generator,
		synth:        synth,
		journalStore: journalStore,
		metrics:      metrics,
		genaiTimeout: genaiTimeout,
		ttsTimeout:   ttsTimeout,
	}
}

// Handle processes one audio event for a session.
//
// The side effect order is deliberate and must not be reordered:
// the reminder append happens before synthesis, and the last-processed
// marker is updated only after all synthesis attempts complete. A
// transcription failure leaves the event unprocessed so the shell may
// re-deliver it; a generation failure still marks it processed.
func (o *Orchestrator) Handle(ctx context.Context, sessionID string, event AudioEvent) (Result, error) {
	sess, err := o.sessions.Get(sessionID)
	if err != nil {
		return Result{}, err
	}
	if event.ID == "" {
		return Result{}, errors.New("audio event has no id")
	}
	if len(event.Bytes) == 0 {
		return Result{}, errors.New("audio event has no payload")
	}

	// Idempotence gate: an already-routed event is a no-op, so shell
	// re-renders cannot replay a turn.
	if sess.LastAudioID == event.ID {
		o.metrics.TurnOutcomes.WithLabelValues("duplicate").Inc()
		return Result{Status: StatusDuplicate, Reminders: sess.Reminders}, nil
	}

	turnID := uuid.NewString()
	if err := o.sessions.StartTurn(sessionID, turnID); err != nil {
		if errors.Is(err, session.ErrTurnInProgress) {
			o.metrics.TurnOutcomes.WithLabelValues("busy").Inc()
			return Result{Status: StatusBusy, Reminders: sess.Reminders}, nil
		}
		return Result{}, err
	}
	defer o.sessions.EndTurn(sessionID, turnID)

	start := time.Now()
	lang := sess.Language

	mime := event.MIME
	if mime == "" {
		mime = audio.DetectMIME(event.Bytes)
	}

	tctx, cancel := context.WithTimeout(ctx, o.genaiTimeout)
	userText, err := o.transcriber.Transcribe(tctx, event.Bytes, mime)
	cancel()
	if err != nil {
		// The event stays unprocessed: LastAudioID is not touched, so a
		// re-delivery of the same id gets another attempt.
		o.metrics.TurnOutcomes.WithLabelValues("transcription_failed").Inc()
		o.metrics.ProviderErrors.WithLabelValues("genai", "transcription").Inc()
		return Result{}, &TranscriptionError{Err: err}
	}

	cctx, cancel := context.WithTimeout(ctx, o.genaiTimeout)
	decision := o.classifier.Classify(cctx, userText)
	cancel()

	res := Result{
		TurnID:     turnID,
		Transcript: userText,
		Reminders:  sess.Reminders,
	}

	switch decision.Kind {
	case intent.KindReminder:
		reminders, err := o.sessions.AppendReminder(sessionID, decision.ReminderTask)
		if err != nil {
			return Result{}, fmt.Errorf("append reminder: %w", err)
		}
		res.Status = StatusReminder
		res.ResponseText = fmt.Sprintf(confirmationFormat, decision.ReminderTask)
		res.ReminderAdded = true
		res.Reminders = reminders
	default:
		gctx, gcancel := context.WithTimeout(ctx, o.genaiTimeout)
		replyText, err := o.generator.Generate(gctx, userText, lang)
		gcancel()
		if err != nil {
			// The utterance was understood, so the event counts as
			// processed even though no reply was produced.
			_ = o.sessions.MarkAudioProcessed(sessionID, event.ID)
			o.journalUserTurn(sess, turnID, userText, "conversation")
			o.metrics.TurnOutcomes.WithLabelValues("generation_failed").Inc()
			o.metrics.ProviderErrors.WithLabelValues("genai", "generation").Inc()
			return Result{}, &GenerationError{Err: err}
		}
		res.Status = StatusConversation
		res.ResponseText = replyText
	}

	res.Audio, res.AudioFormat = o.synthesize(ctx, res.ResponseText, lang.Code)

	// Mark processed only after the synthesis attempt has completed, so the
	// dedup marker always refers to a fully routed turn.
	if err := o.sessions.MarkAudioProcessed(sessionID, event.ID); err != nil {
		return Result{}, fmt.Errorf("mark audio processed: %w", err)
	}

	o.journalUserTurn(sess, turnID, userText, string(res.Status))
	o.journalAssistantTurn(sess, turnID, res.ResponseText, string(res.Status))

	o.metrics.TurnOutcomes.WithLabelValues(string(res.Status)).Inc()
	o.metrics.ObserveTurnLatency(time.Since(start))
	return res, nil
}

func (o *Orchestrator) synthesize(ctx context.Context, text string, code language.Code) ([]byte, string) {
	sctx, cancel := context.WithTimeout(ctx, o.ttsTimeout)
	defer cancel()
	audioBytes, err := o.synth.Synthesize(sctx, text, code)
	if err != nil {
		// Recovered: the turn still delivers text without audio.
		log.Printf("speech synthesis failed (lang=%s): %v", code, err)
		o.metrics.ProviderErrors.WithLabelValues("tts", "synthesis").Inc()
		return nil, ""
	}
	return audioBytes, o.synth.Format()
}

func (o *Orchestrator) journalUserTurn(sess *session.Session, turnID, text, route string) {
	o.saveTurnBestEffort(sess, turnID, "user", text, route)
}

func (o *Orchestrator) journalAssistantTurn(sess *session.Session, turnID, text, route string) {
	o.saveTurnBestEffort(sess, turnID, "assistant", text, route)
}

func (o *Orchestrator) saveTurnBestEffort(sess *session.Session, turnID, role, content, route string) {
	if o.journalStore == nil {
		return
	}
	redacted, changed := policy.RedactPII(content)
	record := journal.TurnRecord{
		ID:          uuid.NewString(),
		SessionID:   sess.ID,
		UserID:      sess.UserID,
		Role:        role,
		Content:     redacted,
		Route:       route,
		Language:    string(sess.Language.Code),
		PIIRedacted: changed,
		CreatedAt:   time.Now().UTC(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalSaveTimeout)
	defer cancel()
	if err := o.journalStore.SaveTurn(ctx, record); err != nil {
		log.Printf("journal save failed (session=%s turn=%s): %v", sess.ID, turnID, err)
	}
}
