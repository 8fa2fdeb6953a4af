package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"qsar-llm-backend/internal/metrics"
	"qsar-llm-backend/internal/models"
)

const (
	toolboxGetTimeout    = 30 * time.Second
	toolboxPostTimeout   = 60 * time.Second
	toolboxStatusTimeout = 4 * time.Second

	defaultToolboxVersion = "4.8"

	// Formaldehyde, used as a cheap probe for the substance search.
	healthProbeCAS = "50-00-0"
)

var errNullResponse = errors.New("response is null")

// DefaultProfilers are run for chat queries with profiling enabled.
var DefaultProfilers = []string{"mutagenicity", "aquatic_toxicity", "skin_sensitization"}

// ToolboxService talks to the QSAR Toolbox WebAPI.
type ToolboxService struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger

	getTimeout    time.Duration
	postTimeout   time.Duration
	statusTimeout time.Duration
}

func NewToolboxService(baseURL string, log *zap.Logger) *ToolboxService {
	return &ToolboxService{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{},
		log:           log.Named("toolbox"),
		getTimeout:    toolboxGetTimeout,
		postTimeout:   toolboxPostTimeout,
		statusTimeout: toolboxStatusTimeout,
	}
}

func (s *ToolboxService) endpointURL(endpoint string) string {
	return fmt.Sprintf("%s/api/v1/%s", s.baseURL, strings.TrimLeft(endpoint, "/"))
}

// Get issues a GET against the toolbox. Any failure is logged and reported
// as a nil result.
func (s *ToolboxService) Get(ctx context.Context, endpoint string, params map[string]string) json.RawMessage {
	return s.get(ctx, endpoint, params, s.getTimeout)
}

func (s *ToolboxService) get(ctx context.Context, endpoint string, params map[string]string, timeout time.Duration) json.RawMessage {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := s.endpointURL(endpoint)
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		s.fail("GET", endpoint, err)
		return nil
	}

	data, err := s.do(req)
	if err != nil {
		s.fail("GET", endpoint, err)
		return nil
	}
	metrics.UpstreamRequests.WithLabelValues("toolbox", metrics.OutcomeOK).Inc()
	return data
}

// Post sends payload as JSON to the toolbox. Any failure is logged and
// reported as a nil result.
func (s *ToolboxService) Post(ctx context.Context, endpoint string, payload interface{}) json.RawMessage {
	ctx, cancel := context.WithTimeout(ctx, s.postTimeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		s.fail("POST", endpoint, err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpointURL(endpoint), bytes.NewReader(body))
	if err != nil {
		s.fail("POST", endpoint, err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := s.do(req)
	if err != nil {
		s.fail("POST", endpoint, err)
		return nil
	}
	metrics.UpstreamRequests.WithLabelValues("toolbox", metrics.OutcomeOK).Inc()
	return data
}

func (s *ToolboxService) do(req *http.Request) (json.RawMessage, error) {
	body, err := s.send(req)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return nil, errNullResponse
	}
	return json.RawMessage(body), nil
}

// send performs req and returns the body of a 2xx response.
func (s *ToolboxService) send(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (s *ToolboxService) fail(method, endpoint string, err error) {
	metrics.UpstreamRequests.WithLabelValues("toolbox", metrics.OutcomeError).Inc()
	s.log.Warn("toolbox request failed",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Error(err),
	)
}

// Version reports the toolbox version, or an error when it is unreachable.
func (s *ToolboxService) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpointURL("version"), nil)
	if err != nil {
		return "", err
	}

	// any 2xx means reachable; the body is only a hint
	data, err := s.send(req)
	if err != nil {
		return "", err
	}

	var body struct {
		Version interface{} `json:"version"`
	}
	if json.Unmarshal(data, &body) != nil || body.Version == nil {
		return defaultToolboxVersion, nil
	}
	if v := fmt.Sprint(body.Version); v != "" {
		return v, nil
	}
	return defaultToolboxVersion, nil
}

// Health probes connectivity and the two feature areas the chat pipeline
// depends on.
func (s *ToolboxService) Health(ctx context.Context) models.ToolboxHealth {
	health := models.ToolboxHealth{Status: models.HealthUnavailable}

	version, err := s.Version(ctx)
	if err != nil {
		s.log.Debug("toolbox health: not reachable", zap.Error(err))
		return health
	}
	health.Checks.Connectivity = true
	health.Checks.Version = version

	health.Checks.Profilers = s.get(ctx, "profilers", nil, s.statusTimeout) != nil
	health.Checks.Substances = s.get(ctx, "substances/search", map[string]string{"query": healthProbeCAS}, s.statusTimeout) != nil

	if health.Checks.Profilers && health.Checks.Substances {
		health.Status = models.HealthHealthy
	} else {
		health.Status = models.HealthDegraded
	}
	return health
}

// isEmptyJSON treats null, "", {} and [] as absent data.
func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	switch trimmed {
	case "", "null", "{}", "[]", `""`, "false", "0":
		return true
	}
	compact := strings.Join(strings.Fields(trimmed), "")
	return compact == "{}" || compact == "[]"
}
