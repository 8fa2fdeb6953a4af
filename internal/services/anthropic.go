package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"

	"qsar-llm-backend/internal/observability"
)

// AnthropicService calls the Anthropic Messages API.
type AnthropicService struct {
	client anthropic.Client
	tokens *observability.TokenRecorder
}

// NewAnthropicService builds a client with retries disabled; baseURL may be
// empty for the public endpoint.
func NewAnthropicService(apiKey, baseURL string, timeout time.Duration) *AnthropicService {
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(apiKey),
		anthropicoption.WithMaxRetries(0),
	}
	if timeout > 0 {
		opts = append(opts, anthropicoption.WithRequestTimeout(timeout))
	}
	if baseURL != "" {
		opts = append(opts, anthropicoption.WithBaseURL(baseURL))
	}

	return &AnthropicService{
		client: anthropic.NewClient(opts...),
		tokens: observability.NewTokenRecorder(),
	}
}

func (s *AnthropicService) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := s.client.Messages.New(ctx, params)
	if err != nil {
		perr := &ProviderError{Provider: ProviderAnthropic, Err: err}
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			perr.StatusCode = apiErr.StatusCode
		}
		return "", perr
	}
	s.tokens.Record(ctx, ProviderAnthropic, message.Usage.InputTokens, message.Usage.OutputTokens)

	return extractAnthropicText(message), nil
}

func extractAnthropicText(message *anthropic.Message) string {
	if message == nil {
		return ""
	}
	for _, block := range message.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return block.Text
		}
	}
	return ""
}
