package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperterse/querycheck/core/application/services"
	"github.com/hyperterse/querycheck/core/domain/search"
	"github.com/hyperterse/querycheck/core/infrastructure/catalog"
	"github.com/hyperterse/querycheck/core/infrastructure/transport/http/dto"
	"github.com/hyperterse/querycheck/core/querylang"
	"github.com/hyperterse/querycheck/core/runtime/decorators"
	apperrors "github.com/hyperterse/querycheck/core/shared/errors"
	"github.com/hyperterse/querycheck/core/shared/textpos"
)

type fakeService struct {
	resp search.ValidationResponse
	err  error
	got  *search.ValidationRequest
}

func (f *fakeService) Validate(_ context.Context, req search.ValidationRequest) (search.ValidationResponse, error) {
	f.got = &req
	return f.resp, f.err
}

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (s *stubLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allowed, s.err
}

func newTestRouter(t *testing.T, svc *fakeService, opts RouteOptions) http.Handler {
	t.Helper()
	server := NewServer(ServerOptions{Port: "0"})
	RegisterRoutes(server.Router(), svc, opts)
	return server.Router()
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/search/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestValidate_OK(t *testing.T) {
	svc := &fakeService{resp: search.OK()}
	rec := post(t, newTestRouter(t, svc, RouteOptions{}), `{"query":"status:active","streams":["web"]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK","explanations":[]}`, rec.Body.String())

	require.NotNil(t, svc.got)
	assert.Equal(t, "status:active", svc.got.Query)
	assert.Equal(t, []string{"web"}, svc.got.Streams)
	assert.Equal(t, search.RelativeRange(0), svc.got.TimeRange)
}

func TestValidate_RequestMapping(t *testing.T) {
	svc := &fakeService{resp: search.OK()}
	body := `{
		"query": "host:$host$",
		"filter": "source:web",
		"timerange": {"type": "absolute", "from": "2026-01-01T00:00:00Z", "to": "2026-01-02T00:00:00Z"},
		"parameters": [
			{"name": "host", "data_type": "string", "binding": {"value": "alpha"}},
			{"name": "limit", "default_value": 10}
		]
	}`
	rec := post(t, newTestRouter(t, svc, RouteOptions{}), body)
	require.Equal(t, http.StatusOK, rec.Code)

	got := svc.got
	require.NotNil(t, got)
	assert.Equal(t, "source:web", got.Filter)
	assert.Equal(t, search.TimeRangeAbsolute, got.TimeRange.Type)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), got.TimeRange.To)

	host, ok := got.Parameters.Parameter("host")
	require.True(t, ok)
	require.NotNil(t, host.Binding)
	assert.Equal(t, "alpha", host.Binding.Value)

	limit, ok := got.Parameters.Parameter("limit")
	require.True(t, ok)
	assert.Nil(t, limit.Binding)
	assert.Equal(t, float64(10), limit.DefaultValue)
}

func TestValidate_WarningCarriesSpans(t *testing.T) {
	msgs := []search.ValidationMessage{
		search.NewMessage(search.ErrorTypeInvalidDataType, "Type of cost is long, cannot use value abc"),
		search.NewMessage(search.ErrorTypeUnknownField, "Query contains unknown field: levl").
			At(textpos.Span{BeginLine: 1, BeginColumn: 0, EndLine: 1, EndColumn: 4}),
	}

	svc := &fakeService{resp: search.Warning(msgs)}
	rec := post(t, newTestRouter(t, svc, RouteOptions{}), `{"query":"levl:error"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"status": "WARNING",
		"explanations": [
			{"error_type": "Invalid data type", "error_message": "Type of cost is long, cannot use value abc"},
			{"error_type": "Unknown field", "error_message": "Query contains unknown field: levl",
			 "begin_line": 1, "begin_column": 0, "end_line": 1, "end_column": 4}
		]
	}`, rec.Body.String())
}

func TestValidate_BadRequests(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		error string
	}{
		{"malformed json", `{"query":`, "Invalid JSON"},
		{"unknown field", `{"query":"a","stream":["x"]}`, "Invalid JSON"},
		{"missing range type", `{"query":"a","timerange":{"range":300}}`, "Validation failed"},
		{"keyword without keyword", `{"query":"a","timerange":{"type":"keyword"}}`, "Validation failed"},
		{"negative range", `{"query":"a","timerange":{"type":"relative","range":-5}}`, "Validation failed"},
		{"unnamed parameter", `{"query":"a","parameters":[{"data_type":"string"}]}`, "Validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{resp: search.OK()}
			rec := post(t, newTestRouter(t, svc, RouteOptions{}), tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, svc.got)

			var resp dto.ValidationErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.error, resp.Error)
		})
	}
}

func TestValidate_ValidationDetailsUseJSONNames(t *testing.T) {
	rec := post(t, newTestRouter(t, &fakeService{}, RouteOptions{}), `{"query":"a","timerange":{"range":300}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp dto.ValidationErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "timerange.type", resp.Details[0].Field)
	assert.Equal(t, "required", resp.Details[0].Tag)
}

func TestValidate_CatalogUnavailable(t *testing.T) {
	svc := &fakeService{err: apperrors.WrapError(apperrors.ErrCodeCatalogUnavailable, "failed to resolve field types", fmt.Errorf("dial tcp: refused"))}
	rec := post(t, newTestRouter(t, svc, RouteOptions{}), `{"query":"status:active"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"failed to resolve field types","code":"CATALOG_UNAVAILABLE"}`, rec.Body.String())
}

func TestValidate_EndToEnd(t *testing.T) {
	resolver, err := catalog.ParseStaticCatalog([]byte(`
streams:
  billing:
    cost: long
    status: keyword
`))
	require.NoError(t, err)
	service := services.NewValidationService(querylang.New(), resolver, decorators.NewChain(decorators.NewParameterDecorator()))

	server := NewServer(ServerOptions{Port: "0"})
	RegisterRoutes(server.Router(), service, RouteOptions{})

	rec := post(t, server.Router(), `{"query":"cost:abc and status:$s$","streams":["billing"],"parameters":[{"name":"s","binding":{"value":"paid"}}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ValidateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "WARNING", resp.Status)
	require.Len(t, resp.Explanations, 2)
	assert.Equal(t, "Invalid operator", resp.Explanations[0].ErrorType)
	require.NotNil(t, resp.Explanations[0].BeginColumn)
	assert.Equal(t, 9, *resp.Explanations[0].BeginColumn)
	assert.Equal(t, "Invalid data type", resp.Explanations[1].ErrorType)
	assert.Nil(t, resp.Explanations[1].BeginLine)

	rec = post(t, server.Router(), `{"query":"status:$missing$","streams":["billing"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var failed dto.ValidateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failed))
	assert.Equal(t, "ERROR", failed.Status)
	require.Len(t, failed.Explanations, 1)
	assert.Equal(t, "Undeclared parameter used: missing", failed.Explanations[0].ErrorMessage)
	require.NotNil(t, failed.Explanations[0].BeginColumn)
	assert.Equal(t, 7, *failed.Explanations[0].BeginColumn)
	assert.Equal(t, 16, *failed.Explanations[0].EndColumn)
}

func TestRateLimit(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		limiter := &stubLimiter{allowed: true}
		rec := post(t, newTestRouter(t, &fakeService{resp: search.OK()}, RouteOptions{RateLimiter: limiter, RateLimit: 5, RateWindow: time.Minute}), `{"query":""}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, limiter.keys, 1)
		assert.Equal(t, "querycheck:ratelimit:192.0.2.1", limiter.keys[0])
	})

	t.Run("denied", func(t *testing.T) {
		svc := &fakeService{resp: search.OK()}
		rec := post(t, newTestRouter(t, svc, RouteOptions{RateLimiter: &stubLimiter{}, RateLimit: 5, RateWindow: time.Minute}), `{"query":""}`)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		assert.JSONEq(t, `{"success":false,"error":"rate limit exceeded"}`, rec.Body.String())
		assert.Nil(t, svc.got)
	})

	t.Run("limiter failure lets the request through", func(t *testing.T) {
		limiter := &stubLimiter{err: fmt.Errorf("connection refused")}
		rec := post(t, newTestRouter(t, &fakeService{resp: search.OK()}, RouteOptions{RateLimiter: limiter, RateLimit: 5, RateWindow: time.Minute}), `{"query":""}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other routes are not limited", func(t *testing.T) {
		limiter := &stubLimiter{}
		h := newTestRouter(t, &fakeService{}, RouteOptions{RateLimiter: limiter, RateLimit: 5, RateWindow: time.Minute})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/heartbeat", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, limiter.keys)
	})
}

func TestHeartbeat(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t, &fakeService{}, RouteOptions{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/heartbeat", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestDocs(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t, &fakeService{}, RouteOptions{Port: "9123"}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.0", doc["openapi"])

	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/api/search/validate")
	assert.Contains(t, paths, "/heartbeat")

	servers, ok := doc["servers"].([]any)
	require.True(t, ok)
	require.Len(t, servers, 1)
	assert.Equal(t, "http://localhost:9123", servers[0].(map[string]any)["url"])
}

func TestMetrics(t *testing.T) {
	h := newTestRouter(t, &fakeService{resp: search.OK()}, RouteOptions{})
	post(t, h, `{"query":""}`)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "querycheck_http_requests_total")
	assert.Contains(t, rec.Body.String(), `querycheck_http_validation_outcomes_total{outcome="OK",route="/api/search/validate"}`)
	assert.NotContains(t, rec.Body.String(), "querycheck_http_request_size_bytes")
}

func TestCORS_Preflight(t *testing.T) {
	server := NewServer(ServerOptions{AllowedOrigins: []string{"https://ui.example.com"}})
	RegisterRoutes(server.Router(), &fakeService{}, RouteOptions{})

	req := httptest.NewRequest(http.MethodOptions, "/api/search/validate", nil)
	req.Header.Set("Origin", "https://ui.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, "https://ui.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestServer_StartStop(t *testing.T) {
	server := NewServer(ServerOptions{Port: "0"})
	RegisterRoutes(server.Router(), &fakeService{}, RouteOptions{})
	require.NoError(t, server.StartAsync())
	_, port, err := net.SplitHostPort(server.Addr())
	require.NoError(t, err)

	resp, err := http.Get("http://127.0.0.1:" + port + "/heartbeat")
	if assert.NoError(t, err) {
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	require.NoError(t, server.Stop())
}
