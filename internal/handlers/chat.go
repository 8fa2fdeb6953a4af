package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"qsar-llm-backend/internal/models"
	"qsar-llm-backend/internal/services"
	"qsar-llm-backend/internal/validation"
)

type analyzer interface {
	Run(ctx context.Context, query string, opts models.ChatOptions) *models.AnalysisResult
}

type modelRouter interface {
	Resolve(model string) (string, services.Generator, error)
	Generate(ctx context.Context, model, prompt string) (string, error)
}

type ChatHandler struct {
	analyzer  analyzer
	llm       modelRouter
	validator *validation.Validator
	log       *zap.Logger
}

func NewChatHandler(analyzer analyzer, llm modelRouter, log *zap.Logger) *ChatHandler {
	return &ChatHandler{
		analyzer:  analyzer,
		llm:       llm,
		validator: validation.MustCompile(validation.ChatRequestSchema),
		log:       log.Named("chat"),
	}
}

// Chat gathers toolbox and PubChem context for the query, asks the model to
// interpret it and returns the text with a summary card.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("invalid request body", r))
		return
	}
	if err := h.validator.Validate(body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp(err.Error(), r))
		return
	}

	var req models.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("invalid request body", r))
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("query is required", r))
		return
	}

	// Credentials are checked before any upstream call
	model, _, err := h.llm.Resolve(req.Model)
	if err != nil {
		handleLLMError(w, r, model, err)
		return
	}

	h.log.Info("chat query",
		zap.String("query", truncate(query, 80)),
		zap.String("model", model),
		zap.String("language", req.Language),
	)

	// Step 1: gather substance data
	result := h.analyzer.Run(r.Context(), query, req.Options)

	// Step 2: build prompt
	prompt := services.BuildPrompt(query, result, req.Language)

	// Step 3: call the model
	text, err := h.llm.Generate(r.Context(), model, prompt)
	if err != nil {
		handleLLMError(w, r, model, err)
		return
	}

	// Step 4: summary card
	writeJSON(w, http.StatusOK, models.ChatResponse{
		Message:          text,
		Data:             services.BuildCard(result, req.MoleculeName),
		ToolboxConnected: result.ToolboxData != nil,
		PubChemEnriched:  result.PubChemData != nil,
		CAS:              result.CAS,
		Timestamp:        timestamp(),
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
