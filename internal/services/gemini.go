package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"qsar-llm-backend/internal/observability"
)

// GeminiService serves gemini-* model names through the Gemini API.
type GeminiService struct {
	client *genai.Client
	tokens *observability.TokenRecorder
	log    *zap.Logger
}

func NewGeminiService(ctx context.Context, apiKey string, log *zap.Logger) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiService{
		client: client,
		tokens: observability.NewTokenRecorder(),
		log:    log.Named("gemini"),
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

func (s *GeminiService) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	model := s.client.GenerativeModel(req.Model)
	model.SetTemperature(0.3)
	model.SetTopP(0.95)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", &ProviderError{Provider: ProviderGemini, Err: err}
	}
	if usage := resp.UsageMetadata; usage != nil {
		s.tokens.Record(ctx, ProviderGemini, int64(usage.PromptTokenCount), int64(usage.CandidatesTokenCount))
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			s.log.Warn("gemini candidate did not stop cleanly",
				zap.Int("candidate", i),
				zap.Any("finish_reason", cand.FinishReason),
			)
		}
	}

	return strings.TrimSpace(extractText(resp)), nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
