package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"qsar-llm-backend/internal/metrics"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

var (
	// ErrProviderNotConfigured means the model's provider has no credential.
	ErrProviderNotConfigured = errors.New("model provider credential not configured")
	// ErrProviderBusy means no model slot freed up before the request ended.
	ErrProviderBusy = errors.New("model provider busy")
)

// ProviderError wraps a failure reported by the model provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s API error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// GenerateRequest is a single-turn completion request.
type GenerateRequest struct {
	Model     string
	System    string
	Prompt    string
	MaxTokens int
}

// Generator is implemented by every model provider.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

type RouterConfig struct {
	DefaultModel   string
	MaxTokens      int
	Timeout        time.Duration
	ConcurrentReqs int
}

// LLMRouter dispatches model calls to the provider that serves the model
// name and bounds how many run at once.
type LLMRouter struct {
	anthropic Generator
	gemini    Generator
	cfg       RouterConfig
	log       *zap.Logger
	rateChan  chan struct{} // Token bucket
}

// NewLLMRouter wires the providers. Pass a nil Generator for a provider
// without credentials.
func NewLLMRouter(cfg RouterConfig, anthropic, gemini Generator, log *zap.Logger) *LLMRouter {
	if cfg.ConcurrentReqs <= 0 {
		cfg.ConcurrentReqs = 1
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	rateChan := make(chan struct{}, cfg.ConcurrentReqs)
	for i := 0; i < cfg.ConcurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &LLMRouter{
		anthropic: anthropic,
		gemini:    gemini,
		cfg:       cfg,
		log:       log.Named("llm"),
		rateChan:  rateChan,
	}
}

// ProviderFor names the provider serving a model.
func ProviderFor(model string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gemini") {
		return ProviderGemini
	}
	return ProviderAnthropic
}

// Configured reports whether a provider has credentials.
func (r *LLMRouter) Configured(provider string) bool {
	switch provider {
	case ProviderGemini:
		return r.gemini != nil
	default:
		return r.anthropic != nil
	}
}

// Resolve returns the effective model name and its generator, or
// ErrProviderNotConfigured.
func (r *LLMRouter) Resolve(model string) (string, Generator, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		model = r.cfg.DefaultModel
	}

	var gen Generator
	switch ProviderFor(model) {
	case ProviderGemini:
		gen = r.gemini
	default:
		gen = r.anthropic
	}
	if gen == nil {
		return model, nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, ProviderFor(model))
	}
	return model, gen, nil
}

// acquireRate blocks until a rate slot is available
func (r *LLMRouter) acquireRate(ctx context.Context) error {
	select {
	case <-r.rateChan:
		return nil
	case <-ctx.Done():
		return ErrProviderBusy
	}
}

func (r *LLMRouter) releaseRate() {
	r.rateChan <- struct{}{}
}

// Generate sends the prompt with the system prompt to the model.
func (r *LLMRouter) Generate(ctx context.Context, model, prompt string) (string, error) {
	model, gen, err := r.Resolve(model)
	if err != nil {
		return "", err
	}
	provider := ProviderFor(model)

	if err := r.acquireRate(ctx); err != nil {
		metrics.LLMRequests.WithLabelValues(provider, "busy").Inc()
		return "", err
	}
	defer r.releaseRate()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := time.Now()
	text, err := gen.Generate(ctx, GenerateRequest{
		Model:     model,
		System:    SystemPrompt,
		Prompt:    prompt,
		MaxTokens: r.cfg.MaxTokens,
	})
	metrics.LLMDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	if err == nil && strings.TrimSpace(text) == "" {
		err = &ProviderError{Provider: provider, Err: errors.New("empty response")}
	}
	if err != nil {
		metrics.LLMRequests.WithLabelValues(provider, metrics.OutcomeError).Inc()
		r.log.Error("model call failed", zap.String("model", model), zap.Error(err))

		var perr *ProviderError
		if !errors.As(err, &perr) {
			err = &ProviderError{Provider: provider, Err: err}
		}
		return "", err
	}

	metrics.LLMRequests.WithLabelValues(provider, metrics.OutcomeOK).Inc()
	r.log.Info("model call completed",
		zap.String("model", model),
		zap.Int("chars", len(text)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return text, nil
}
