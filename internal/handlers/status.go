package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"qsar-llm-backend/internal/models"
	"qsar-llm-backend/internal/services"
)

type versionProbe interface {
	Version(ctx context.Context) (string, error)
}

type providerInfo interface {
	Configured(provider string) bool
}

const (
	fallbackToolboxVersion = "4.8"
	toolboxUnreachable     = "toolbox unreachable"
)

type StatusHandler struct {
	toolbox   versionProbe
	providers providerInfo
	log       *zap.Logger
}

func NewStatusHandler(toolbox versionProbe, providers providerInfo, log *zap.Logger) *StatusHandler {
	return &StatusHandler{toolbox: toolbox, providers: providers, log: log}
}

// Status reports toolbox connectivity and which model providers are set up.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := models.StatusResponse{
		Status:              "online",
		Version:             fallbackToolboxVersion,
		AnthropicConfigured: h.providers.Configured(services.ProviderAnthropic),
		GeminiConfigured:    h.providers.Configured(services.ProviderGemini),
	}

	version, err := h.toolbox.Version(r.Context())
	if err != nil {
		h.log.Warn("status: toolbox version check failed", zap.Error(err))
		resp.ToolboxError = toolboxUnreachable
	} else {
		resp.ToolboxConnected = true
		resp.Version = version
	}
	resp.Timestamp = timestamp()

	writeJSON(w, http.StatusOK, resp)
}

// Health is the liveness probe.
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StaticHandler serves the single-page frontend.
type StaticHandler struct {
	dir string
}

func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{dir: dir}
}

func (h *StaticHandler) Index(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.dir, "index.html")
	if _, err := os.Stat(path); err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("frontend not found", r))
		return
	}
	http.ServeFile(w, r, path)
}
