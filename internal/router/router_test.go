package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"qsar-llm-backend/internal/handlers"
	"qsar-llm-backend/internal/metrics"
	"qsar-llm-backend/internal/middleware"
	"qsar-llm-backend/internal/models"
	"qsar-llm-backend/internal/services"
)

type stubToolbox struct{}

func (stubToolbox) Get(ctx context.Context, endpoint string, params map[string]string) json.RawMessage {
	return json.RawMessage(`{"name":"formaldehyde"}`)
}

func (stubToolbox) Post(ctx context.Context, endpoint string, payload interface{}) json.RawMessage {
	return json.RawMessage(`{"alerts":[]}`)
}

func (stubToolbox) Health(ctx context.Context) models.ToolboxHealth {
	return models.ToolboxHealth{Status: models.HealthHealthy}
}

func (stubToolbox) Version(ctx context.Context) (string, error) { return "4.8", nil }

type toolboxStub interface {
	Get(ctx context.Context, endpoint string, params map[string]string) json.RawMessage
	Post(ctx context.Context, endpoint string, payload interface{}) json.RawMessage
	Health(ctx context.Context) models.ToolboxHealth
	Version(ctx context.Context) (string, error)
}

type stubPubChem struct{}

func (stubPubChem) Lookup(ctx context.Context, casOrName string) *models.PubChemData {
	return &models.PubChemData{Formula: "CH2O"}
}

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, req services.GenerateRequest) (string, error) {
	return "analysis", nil
}

type panickingToolbox struct{ stubToolbox }

func (panickingToolbox) Health(ctx context.Context) models.ToolboxHealth {
	panic("toolbox client exploded")
}

func newTestRouter(t *testing.T, secret string) (http.Handler, *middleware.JWTAuth) {
	t.Helper()
	return newTestRouterWithToolbox(t, secret, stubToolbox{})
}

func newTestRouterWithToolbox(t *testing.T, secret string, toolbox toolboxStub) (http.Handler, *middleware.JWTAuth) {
	t.Helper()
	log := zap.NewNop()
	llm := services.NewLLMRouter(services.RouterConfig{DefaultModel: "claude-sonnet-4-5-20250929"}, stubGenerator{}, nil, log)
	analyzer := services.NewAnalyzer(stubToolbox{}, stubPubChem{}, log)
	jwtAuth := middleware.NewJWTAuth(secret)

	h := New(Handlers{
		Status:  handlers.NewStatusHandler(toolbox, llm, log),
		Chat:    handlers.NewChatHandler(analyzer, llm, log),
		Toolbox: handlers.NewToolboxHandler(toolbox),
		PubChem: handlers.NewPubChemHandler(stubPubChem{}),
		Static:  handlers.NewStaticHandler(t.TempDir()),
	}, jwtAuth, Options{CORSOrigins: []string{"*"}}, log)
	return h, jwtAuth
}

func TestRouter_PublicRoutes(t *testing.T) {
	h, _ := newTestRouter(t, "secret")

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/health", http.StatusOK},
		{"/api/status", http.StatusOK},
		{"/api/toolbox/health", http.StatusOK},
		{"/api/pubchem?q=50-00-0", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/", http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestRouter_ProtectedRoutes(t *testing.T) {
	h, jwtAuth := newTestRouter(t, "secret")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/toolbox/search?q=50-00-0", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	token, err := jwtAuth.GenerateToken("consultant", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"query":"CAS 50-00-0"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp models.ChatResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "analysis", resp.Message)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "50-00-0", resp.Data.Molecule.CAS)
}

func TestRouter_OpenWithoutSecret(t *testing.T) {
	h, _ := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/toolbox/category", strings.NewReader(`{"cas":"50-00-0"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_PanicsAreCounted(t *testing.T) {
	h, _ := newTestRouterWithToolbox(t, "", panickingToolbox{})
	counter := metrics.HTTPRequests.WithLabelValues("/api/toolbox/health", http.MethodGet, "500")
	before := testutil.ToFloat64(counter)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/toolbox/health", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
