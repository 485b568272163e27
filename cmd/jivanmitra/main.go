package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jivanlabs/jivanmitra/internal/config"
	"github.com/jivanlabs/jivanmitra/internal/genai"
	"github.com/jivanlabs/jivanmitra/internal/httpapi"
	"github.com/jivanlabs/jivanmitra/internal/intent"
	"github.com/jivanlabs/jivanmitra/internal/journal"
	"github.com/jivanlabs/jivanmitra/internal/observability"
	"github.com/jivanlabs/jivanmitra/internal/reply"
	"github.com/jivanlabs/jivanmitra/internal/session"
	"github.com/jivanlabs/jivanmitra/internal/speech"
	"github.com/jivanlabs/jivanmitra/internal/transcribe"
	"github.com/jivanlabs/jivanmitra/internal/turn"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	journalStore, err := journal.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("journal store init failed: %v", err)
	}
	defer journalStore.Close()

	adapter, err := genai.NewAdapter(genai.Config{
		Mode:    cfg.GenAIAdapterMode,
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Timeout: cfg.GenAITimeout,
	})
	if err != nil {
		log.Fatalf("genai adapter init failed: %v", err)
	}
	if _, ok := adapter.(*genai.MockAdapter); ok {
		log.Printf("genai adapter: mock (no GEMINI_API_KEY)")
	} else {
		log.Printf("genai adapter: gemini (%s)", cfg.GeminiModel)
	}

	synth, err := speech.NewSynthesizer(speech.Config{
		Provider: cfg.TTSProvider,
		BaseURL:  cfg.TTSBaseURL,
		Timeout:  cfg.TTSTimeout,
		Slow:     cfg.TTSSlow,
	})
	if err != nil {
		log.Fatalf("tts synthesizer init failed: %v", err)
	}
	if _, ok := synth.(*speech.MockSynthesizer); ok {
		log.Printf("tts provider: mock")
	} else {
		log.Printf("tts provider: google-translate")
	}

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	orchestrator := turn.NewOrchestrator(
		sessions,
		transcribe.New(adapter),
		intent.New(adapter, metrics),
		reply.New(adapter, reply.DefaultPersona()),
		synth,
		journalStore,
		metrics,
		cfg.GenAITimeout,
		cfg.TTSTimeout,
	)

	api := httpapi.New(cfg, sessions, orchestrator, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	sessions.StartJanitor(runCtx, 5*time.Second)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
