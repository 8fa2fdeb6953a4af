package models

type StatusResponse struct {
	Status              string `json:"status"`
	Version             string `json:"version"`
	ToolboxConnected    bool   `json:"toolbox_connected"`
	ToolboxError        string `json:"toolbox_error,omitempty"`
	AnthropicConfigured bool   `json:"anthropic_configured"`
	GeminiConfigured    bool   `json:"gemini_configured"`
	Timestamp           string `json:"timestamp"`
}

type HealthChecks struct {
	Connectivity bool   `json:"connectivity"`
	Version      string `json:"version,omitempty"`
	Profilers    bool   `json:"profilers"`
	Substances   bool   `json:"substances"`
}

// ToolboxHealth statuses.
const (
	HealthHealthy     = "healthy"
	HealthDegraded    = "degraded"
	HealthUnavailable = "unavailable"
)

type ToolboxHealth struct {
	Status string       `json:"status"`
	Checks HealthChecks `json:"checks"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Fallback  bool   `json:"fallback,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
