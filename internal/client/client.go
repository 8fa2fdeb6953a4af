package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"qsar-llm-backend/internal/models"
)

// DefaultHTTPTimeout covers a full chat round trip, which chains several
// toolbox calls and a model call.
const DefaultHTTPTimeout = 5 * time.Minute

// Client wraps the HTTP API of the QSAR LLM backend.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
	Fallback   bool
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("qsar api error (%d): %s [request %s]", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("qsar api error (%d): %s", e.StatusCode, e.Message)
}

// NewClient builds a client for the backend at rawURL. A nil httpClient gets
// DefaultHTTPTimeout.
func NewClient(rawURL string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(rawURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", rawURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, httpClient: httpClient}, nil
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) Status(ctx context.Context) (models.StatusResponse, error) {
	var status models.StatusResponse
	err := c.get(ctx, "/api/status", nil, &status)
	return status, err
}

func (c *Client) ToolboxHealth(ctx context.Context) (models.ToolboxHealth, error) {
	var health models.ToolboxHealth
	err := c.get(ctx, "/api/toolbox/health", nil, &health)
	return health, err
}

// Chat runs the full analysis pipeline for one query.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	var resp models.ChatResponse
	err := c.post(ctx, "/api/chat", req, &resp)
	return resp, err
}

// SearchSubstance returns the raw toolbox search result.
func (c *Client) SearchSubstance(ctx context.Context, query string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.get(ctx, "/api/toolbox/search", url.Values{"q": {query}}, &raw)
	return raw, err
}

// RunProfiling runs the given profilers, or all of them when none are named.
func (c *Client) RunProfiling(ctx context.Context, cas string, profilers ...string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.post(ctx, "/api/toolbox/profile", models.ProfileRequest{CAS: cas, Profilers: profilers}, &raw)
	return raw, err
}

func (c *Client) BuildCategory(ctx context.Context, cas string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.post(ctx, "/api/toolbox/category", models.CategoryRequest{CAS: cas}, &raw)
	return raw, err
}

// PubChem looks up a compound by CAS number or name.
func (c *Client) PubChem(ctx context.Context, casOrName string) (models.PubChemData, error) {
	var data models.PubChemData
	err := c.get(ctx, "/api/pubchem", url.Values{"q": {casOrName}}, &data)
	return data, err
}

func (c *Client) post(ctx context.Context, endpoint string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, nil, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, query, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values, body io.Reader) (*http.Request, error) {
	rel := &url.URL{Path: path.Join(c.baseURL.Path, endpoint), RawQuery: query.Encode()}
	u := c.baseURL.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read error response: %w", err)
		}
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body models.ErrorResponse
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			apiErr.Message = body.Error
			apiErr.Fallback = body.Fallback
			apiErr.RequestID = body.RequestID
		} else {
			apiErr.Message = string(bytes.TrimSpace(data))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
