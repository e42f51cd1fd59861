package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/oneshot/internal/api"
	"github.com/dgallion1/oneshot/internal/config"
	"github.com/dgallion1/oneshot/internal/explain"
	"github.com/dgallion1/oneshot/internal/llm"
	"github.com/dgallion1/oneshot/internal/media"
)

func main() {
	cfg, err := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	provider, closeProvider, err := newProvider(ctx, cfg)
	if err != nil {
		log.Error("init llm provider", "provider", cfg.LLMProvider, "error", err)
		os.Exit(1)
	}
	measured := llm.NewMeasured(provider, llm.NewStats(cfg.StatsWindow))

	var speech *media.SpeechClient
	if cfg.OpenAIAPIKey != "" {
		speech = media.NewSpeechClient(cfg.OpenAIAPIKey, cfg.SpeechModel, cfg.OpenAIBaseURL, cfg.DefaultVoice)
	} else {
		log.Warn("OPENAI_API_KEY not set, audio generation disabled")
	}

	renderer := &media.ProcessRenderer{
		Command: cfg.RenderCommand,
		Timeout: cfg.RenderTimeout,
		Log:     log,
	}
	video := media.NewVideoPipeline(media.NewScriptWriter(measured), renderer, cfg.VideosDir, log)

	// Initialize HTTP server.
	srv := api.NewServer(api.Deps{
		Explainer: explain.NewService(measured, log),
		Speech:    speech,
		Video:     video,
		LLM:       measured,
	}, log, cfg)

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv,
		ReadTimeout: 30 * time.Second,
		// Video requests block on the render process.
		WriteTimeout: cfg.RenderTimeout + 2*time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		closeProvider()
		if speech != nil {
			speech.Close()
		}
	}()

	log.Info("starting oneshot",
		"port", cfg.Port,
		"provider", cfg.LLMProvider,
		"model", measured.Model(),
		"auth", cfg.APIKey != "",
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newProvider builds the configured completer and its cleanup func.
func newProvider(ctx context.Context, cfg config.Config) (llm.Completer, func(), error) {
	switch cfg.LLMProvider {
	case "anthropic":
		c := llm.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		return c, c.Close, nil
	case "openai":
		c := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		return c, c.Close, nil
	case "gemini":
		c, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
}
