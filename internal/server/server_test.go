package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teakb/teakb/internal/graph"
	"github.com/teakb/teakb/internal/llm/providers"
	"github.com/teakb/teakb/internal/qa"
	"github.com/teakb/teakb/internal/schema"
	"github.com/teakb/teakb/internal/types"
)

func testServer(t *testing.T, provider *providers.MockProvider, client *graph.MockClient) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	translator := qa.NewTranslator(provider, "gpt-3.5-turbo", schema.Describe(), logger)
	executor := qa.NewExecutor(client, logger)
	composer := qa.NewComposer(provider, "gpt-3.5-turbo", 0.7, logger)
	pipeline := qa.NewPipeline(translator, executor, composer, nil, logger)

	health := func(ctx context.Context) map[string]types.HealthStatus {
		return map[string]types.HealthStatus{"graph": client.Health(ctx)}
	}

	return New(pipeline, health, Config{
		Address:         ":0",
		AllowedOrigins:  []string{"*"},
		ReadTimeout:     5 * time.Second,
		ShutdownTimeout: time.Second,
	}, logger)
}

func answeringServer(t *testing.T) *Server {
	t.Helper()
	provider := providers.NewMockProvider([]string{
		"MATCH (t:Tea)-[:SUITABLE_FOR]->(s:Season {name: '夏季'}) RETURN t.name, t.efficacy",
		"夏季推荐金银花茶，功效为清热解毒。",
	})
	client := graph.NewMockClient()
	require.NoError(t, client.Connect(context.Background()))
	client.AddQueryResult(graph.QueryResult{
		Records: []map[string]any{{"t.name": "金银花茶", "t.efficacy": "清热解毒"}},
	})
	return testServer(t, provider, client)
}

func TestHandleQA_StreamsAnswer(t *testing.T) {
	srv := answeringServer(t)

	req := httptest.NewRequest(http.MethodGet,
		"/api/qa?question="+url.QueryEscape("夏季适合喝什么茶？"), nil)
	rec := httptest.NewRecorder()

	srv.handleQA(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Body.String(), "金银花茶")
}

func TestHandleQA_RequiresQuestion(t *testing.T) {
	srv := answeringServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/qa", nil)
	rec := httptest.NewRecorder()

	srv.handleQA(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "question")
}

func TestHandleQA_RejectsOverlongQuestion(t *testing.T) {
	srv := answeringServer(t)

	long := strings.Repeat("茶", maxQuestionLength+1)
	req := httptest.NewRequest(http.MethodGet, "/api/qa?question="+url.QueryEscape(long), nil)
	rec := httptest.NewRecorder()

	srv.handleQA(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQA_BoundaryLengthAccepted(t *testing.T) {
	srv := answeringServer(t)

	// Exactly the maximum length in runes, well past it in bytes.
	boundary := strings.Repeat("茶", maxQuestionLength)
	req := httptest.NewRequest(http.MethodGet, "/api/qa?question="+url.QueryEscape(boundary), nil)
	rec := httptest.NewRecorder()

	srv.handleQA(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleQA_MethodNotAllowed(t *testing.T) {
	srv := answeringServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/qa?question=hi", nil)
	rec := httptest.NewRecorder()

	srv.handleQA(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleQA_CORS(t *testing.T) {
	srv := answeringServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/qa", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()

	srv.handleQA(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandleQA_PropagatesInboundRequestID(t *testing.T) {
	srv := answeringServer(t)

	req := httptest.NewRequest(http.MethodGet,
		"/api/qa?question="+url.QueryEscape("夏季适合喝什么茶？"), nil)
	req.Header.Set("X-Request-ID", "req-abc-123")
	rec := httptest.NewRecorder()

	srv.handleQA(rec, req)

	assert.Equal(t, "req-abc-123", rec.Header().Get("X-Request-ID"))
}

func TestHandleHealth(t *testing.T) {
	provider := providers.NewMockProvider([]string{"unused"})
	client := graph.NewMockClient()
	require.NoError(t, client.Connect(context.Background()))
	srv := testServer(t, provider, client)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()

	srv.handleHealth(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A disconnected store turns the endpoint unhealthy.
	require.NoError(t, client.Close(context.Background()))
	rec = httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
