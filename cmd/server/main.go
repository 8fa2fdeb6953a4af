package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimiro1/banner"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"qsar-llm-backend/internal/config"
	"qsar-llm-backend/internal/handlers"
	"qsar-llm-backend/internal/logger"
	"qsar-llm-backend/internal/middleware"
	"qsar-llm-backend/internal/observability"
	"qsar-llm-backend/internal/router"
	"qsar-llm-backend/internal/services"
)

const bannerTemplate = "{{ .Title \"QSAR LLM\" \"\" 0 }}\nToolbox bridge | {{ .Now \"2006-01-02 15:04:05\" }}\n"

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	banner.Init(os.Stdout, true, true, bytes.NewBufferString(bannerTemplate))

	log := logger.New(cfg.Debug, cfg.LogFormat)
	defer log.Sync()

	log.Info("🚀 Starting QSAR LLM backend...")
	log.Info("✓ Environment variables loaded",
		zap.String("port", cfg.Port),
		zap.String("toolbox_url", cfg.ToolboxURL),
		zap.Bool("debug", cfg.Debug),
	)

	obs := observability.New("qsar-llm-backend", prometheus.DefaultRegisterer, log)
	defer obs.Shutdown()

	// ──── Step 2: Initialize Data Sources ────
	toolboxService := services.NewToolboxService(cfg.ToolboxURL, log)
	pubchemService := services.NewPubChemService(cfg.PubChemURL, log)
	analyzer := services.NewAnalyzer(toolboxService, pubchemService, log)
	log.Info("✓ Toolbox and PubChem clients initialized")

	// ──── Step 3: Initialize Model Providers ────
	var anthropicGen, geminiGen services.Generator
	if cfg.AnthropicAPIKey != "" {
		anthropicGen = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL, cfg.LLMTimeout)
		log.Info("✓ Anthropic client initialized")
	} else {
		log.Warn("✗ ANTHROPIC_API_KEY missing, Claude models unavailable")
	}
	if cfg.GeminiAPIKey != "" {
		geminiService, err := services.NewGeminiService(context.Background(), cfg.GeminiAPIKey, log)
		if err != nil {
			log.Fatal("✗ Gemini client initialization failed", zap.Error(err))
		}
		defer geminiService.Close()
		geminiGen = geminiService
		log.Info("✓ Gemini client initialized")
	}

	llmRouter := services.NewLLMRouter(services.RouterConfig{
		DefaultModel:   cfg.DefaultModel,
		MaxTokens:      cfg.LLMMaxTokens,
		Timeout:        cfg.LLMTimeout,
		ConcurrentReqs: cfg.LLMConcurrentRequests,
	}, anthropicGen, geminiGen, log)

	// ──── Step 4: Initialize Handlers ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	if !cfg.AuthEnabled() {
		log.Warn("auth disabled: JWT_SECRET not set, API routes are open")
	}

	r := router.New(router.Handlers{
		Status:  handlers.NewStatusHandler(toolboxService, llmRouter, log),
		Chat:    handlers.NewChatHandler(analyzer, llmRouter, log),
		Toolbox: handlers.NewToolboxHandler(toolboxService),
		PubChem: handlers.NewPubChemHandler(pubchemService),
		Static:  handlers.NewStaticHandler(cfg.StaticDir),
	}, jwtAuth, router.Options{
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, log)

	// ──── Step 5: Start HTTP Server ────
	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Chat requests chain toolbox (up to 60s per call) and model calls
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Info(fmt.Sprintf("✓ QSAR LLM backend ready on http://localhost:%s", cfg.Port),
		zap.String("api", fmt.Sprintf("http://localhost:%s/api", cfg.Port)),
		zap.Bool("anthropic_configured", anthropicGen != nil),
		zap.Bool("gemini_configured", geminiGen != nil),
	)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("Server error", zap.Error(err))
	}
}
