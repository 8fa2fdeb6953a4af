package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	text string
	err  error
	got  GenerateRequest
}

func (s *stubGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	s.got = req
	return s.text, s.err
}

func testRouterConfig() RouterConfig {
	return RouterConfig{
		DefaultModel:   "claude-sonnet-4-5-20250929",
		MaxTokens:      1024,
		Timeout:        time.Second,
		ConcurrentReqs: 1,
	}
}

func TestProviderFor(t *testing.T) {
	assert.Equal(t, ProviderGemini, ProviderFor("gemini-1.5-flash"))
	assert.Equal(t, ProviderGemini, ProviderFor(" Gemini-pro"))
	assert.Equal(t, ProviderAnthropic, ProviderFor("claude-sonnet-4-5-20250929"))
	assert.Equal(t, ProviderAnthropic, ProviderFor(""))
}

func TestLLMRouterResolve(t *testing.T) {
	anthropic := &stubGenerator{}
	r := NewLLMRouter(testRouterConfig(), anthropic, nil, zap.NewNop())

	model, gen, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5-20250929", model)
	assert.Same(t, anthropic, gen)

	model, gen, err = r.Resolve("gemini-1.5-pro")
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
	assert.Equal(t, "gemini-1.5-pro", model)
	assert.Nil(t, gen)

	assert.True(t, r.Configured(ProviderAnthropic))
	assert.False(t, r.Configured(ProviderGemini))
}

func TestLLMRouterGenerate_Success(t *testing.T) {
	gemini := &stubGenerator{text: "analysis"}
	r := NewLLMRouter(testRouterConfig(), nil, gemini, zap.NewNop())

	text, err := r.Generate(context.Background(), "gemini-1.5-flash", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "analysis", text)
	assert.Equal(t, GenerateRequest{
		Model:     "gemini-1.5-flash",
		System:    SystemPrompt,
		Prompt:    "prompt",
		MaxTokens: 1024,
	}, gemini.got)
}

func TestLLMRouterGenerate_NotConfigured(t *testing.T) {
	r := NewLLMRouter(testRouterConfig(), nil, nil, zap.NewNop())

	_, err := r.Generate(context.Background(), "", "prompt")
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

func TestLLMRouterGenerate_Errors(t *testing.T) {
	upstream := errors.New("connection reset")

	tests := []struct {
		name       string
		gen        *stubGenerator
		wantStatus int
		wantCause  error
	}{
		{"plain error is wrapped", &stubGenerator{err: upstream}, 0, upstream},
		{"provider error passes through", &stubGenerator{err: &ProviderError{Provider: ProviderAnthropic, StatusCode: 529, Err: upstream}}, 529, upstream},
		{"blank text", &stubGenerator{text: "  \n"}, 0, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewLLMRouter(testRouterConfig(), tc.gen, nil, zap.NewNop())

			_, err := r.Generate(context.Background(), "", "prompt")

			var perr *ProviderError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, ProviderAnthropic, perr.Provider)
			assert.Equal(t, tc.wantStatus, perr.StatusCode)
			if tc.wantCause != nil {
				assert.ErrorIs(t, err, tc.wantCause)
			}
		})
	}
}

func TestLLMRouterGenerate_Busy(t *testing.T) {
	r := NewLLMRouter(testRouterConfig(), &stubGenerator{text: "x"}, nil, zap.NewNop())

	// hold the only slot
	require.NoError(t, r.acquireRate(context.Background()))
	defer r.releaseRate()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Generate(ctx, "", "prompt")
	assert.ErrorIs(t, err, ErrProviderBusy)
}

func TestProviderErrorMessage(t *testing.T) {
	err := &ProviderError{Provider: ProviderAnthropic, StatusCode: 401, Err: errors.New("invalid x-api-key")}
	assert.Equal(t, "anthropic API error (status 401): invalid x-api-key", err.Error())

	err = &ProviderError{Provider: ProviderGemini, Err: errors.New("quota")}
	assert.Equal(t, "gemini API error: quota", err.Error())
}
