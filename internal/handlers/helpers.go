package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"qsar-llm-backend/internal/middleware"
	"qsar-llm-backend/internal/models"
	"qsar-llm-backend/internal/services"
)

const maxBodyBytes = 1 << 20

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeRawJSON passes an upstream JSON document through unchanged.
func writeRawJSON(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(raw)
}

func errorResp(message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error:     message,
		RequestID: middleware.GetRequestID(r.Context()),
	}
}

// readBody returns the request body, treating an empty body as "{}".
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return []byte("{}"), nil
	}
	return body, nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func handleLLMError(w http.ResponseWriter, r *http.Request, model string, err error) {
	var perr *services.ProviderError
	switch {
	case errors.Is(err, services.ErrProviderNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, errorResp(credentialMessage(model), r))
	case errors.Is(err, services.ErrProviderBusy):
		writeJSON(w, http.StatusServiceUnavailable, errorResp("model provider busy, please retry", r))
	case errors.As(err, &perr):
		writeJSON(w, http.StatusBadGateway, errorResp("model API error: "+perr.Error(), r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("internal server error", r))
	}
}

func credentialMessage(model string) string {
	key := "ANTHROPIC_API_KEY"
	if services.ProviderFor(model) == services.ProviderGemini {
		key = "GEMINI_API_KEY"
	}
	return fmt.Sprintf("%s not configured", key)
}
