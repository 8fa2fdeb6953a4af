package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"qsar-llm-backend/internal/models"
	"qsar-llm-backend/internal/validation"
)

type toolboxProxy interface {
	Get(ctx context.Context, endpoint string, params map[string]string) json.RawMessage
	Post(ctx context.Context, endpoint string, payload interface{}) json.RawMessage
	Health(ctx context.Context) models.ToolboxHealth
}

// ToolboxHandler exposes thin proxies over the QSAR Toolbox WebAPI.
type ToolboxHandler struct {
	toolbox           toolboxProxy
	profileValidator  *validation.Validator
	categoryValidator *validation.Validator
}

func NewToolboxHandler(toolbox toolboxProxy) *ToolboxHandler {
	return &ToolboxHandler{
		toolbox:           toolbox,
		profileValidator:  validation.MustCompile(validation.ProfileRequestSchema),
		categoryValidator: validation.MustCompile(validation.CategoryRequestSchema),
	}
}

func (h *ToolboxHandler) Search(w http.ResponseWriter, r *http.Request) {
	identifier := strings.TrimSpace(r.URL.Query().Get("q"))
	if identifier == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("parameter 'q' is required", r))
		return
	}

	data := h.toolbox.Get(r.Context(), "substances/search", map[string]string{"query": identifier})
	if data == nil {
		resp := errorResp("toolbox unavailable", r)
		resp.Fallback = true
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeRawJSON(w, http.StatusOK, data)
}

func (h *ToolboxHandler) Profile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileRequest
	if !decodeValidated(w, r, h.profileValidator, &req) {
		return
	}
	cas := strings.TrimSpace(req.CAS)
	if cas == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("cas is required", r))
		return
	}

	profilers := req.Profilers
	if len(profilers) == 0 {
		profilers = []string{"all"}
	}

	data := h.toolbox.Post(r.Context(), "profiling/run", map[string]interface{}{
		"cas":       cas,
		"profilers": profilers,
	})
	if data == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("toolbox unavailable", r))
		return
	}

	writeRawJSON(w, http.StatusOK, data)
}

func (h *ToolboxHandler) Category(w http.ResponseWriter, r *http.Request) {
	var req models.CategoryRequest
	if !decodeValidated(w, r, h.categoryValidator, &req) {
		return
	}
	cas := strings.TrimSpace(req.CAS)
	if cas == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("cas is required", r))
		return
	}

	data := h.toolbox.Post(r.Context(), "category/build", map[string]string{"cas": cas})
	if data == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("toolbox unavailable", r))
		return
	}

	writeRawJSON(w, http.StatusOK, data)
}

func (h *ToolboxHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.toolbox.Health(r.Context()))
}

// decodeValidated reads, schema-checks and decodes a JSON body, writing a
// 400 and returning false on failure.
func decodeValidated(w http.ResponseWriter, r *http.Request, v *validation.Validator, dst interface{}) bool {
	body, err := readBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("invalid request body", r))
		return false
	}
	if err := v.Validate(body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp(err.Error(), r))
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("invalid request body", r))
		return false
	}
	return true
}
