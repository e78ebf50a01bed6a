package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Champion2005/amicooked-sub000/pkg/domain"
	"github.com/Champion2005/amicooked-sub000/pkg/models"
)

// newContext creates an echo.Context backed by an httptest.NewRecorder for the
// given HTTP method and path. It returns both the context and the recorder so
// callers can inspect the written response.
func newContext(method, path string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// parseBody unmarshals the recorder body into an ErrorResponse, failing the
// test on any JSON error.
func parseBody(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// captureLog redirects the standard logger to a buffer for the duration of fn
// and returns everything that was logged.
func captureLog(fn func()) string {
	var buf bytes.Buffer
	orig := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(orig)
	fn()
	return buf.String()
}

func TestValidationError(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/api/v1/analyze")
	err := ValidationError(c, errors.New("field 'username' is required"))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := parseBody(t, rec)
	assert.Equal(t, "validation_error", resp.Error)
	assert.NotEmpty(t, resp.Message)
}

func TestStoreError_HidesInternalDetails(t *testing.T) {
	internalMsg := "dial tcp 127.0.0.1:6379: connect: connection refused"
	c, rec := newContext(http.MethodPost, "/api/v1/chat/message")

	logged := captureLog(func() {
		_ = StoreError(c, errors.New(internalMsg))
	})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), internalMsg)
	assert.Contains(t, logged, internalMsg)

	resp := parseBody(t, rec)
	assert.Equal(t, "store_unavailable", resp.Error)
}

func TestInternalError(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/api/v1/usage")
	internalMsg := "nil pointer dereference"

	logged := captureLog(func() {
		_ = InternalError(c, errors.New(internalMsg))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), internalMsg)
	assert.Contains(t, logged, internalMsg)

	resp := parseBody(t, rec)
	assert.Equal(t, "internal_error", resp.Error)
}

func TestUnauthorizedError(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/api/v1/usage")
	_ = UnauthorizedError(c, "expired jwt")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := parseBody(t, rec)
	assert.Equal(t, "unauthorized", resp.Error)
	assert.NotContains(t, rec.Body.String(), "jwt")
}

func TestNotFoundError(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/api/v1/analysis/latest")
	_ = NotFoundError(c, "analysis")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := parseBody(t, rec)
	assert.Equal(t, "not_found", resp.Error)
	assert.Contains(t, resp.Message, "analysis")
}

func TestLimitExceededError(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/api/v1/chat/message")
	_ = LimitExceededError(c, domain.NewLimitExceededError("MESSAGE", 5))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	resp := parseBody(t, rec)
	assert.Equal(t, "limit_exceeded", resp.Error)
}

func TestUpstreamError(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/api/v1/analyze")
	_ = UpstreamError(c, domain.NewAnalysisFailedError(errors.New("retries exhausted")))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := parseBody(t, rec)
	assert.Equal(t, "upstream_error", resp.Error)
}

func TestDomain_MapsCodesToStatuses(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"limit exceeded", domain.NewLimitExceededError("MESSAGE", 5), http.StatusTooManyRequests, "limit_exceeded"},
		{"store unavailable", domain.NewStoreUnavailableError(errors.New("down")), http.StatusServiceUnavailable, "store_unavailable"},
		{"malformed ai", domain.NewMalformedAIError("bad json"), http.StatusBadGateway, "upstream_error"},
		{"analysis failed", domain.NewAnalysisFailedError(errors.New("exhausted")), http.StatusBadGateway, "upstream_error"},
		{"external call", domain.NewExternalCallError(errors.New("timeout")), http.StatusBadGateway, "upstream_error"},
		{"unauthorized", domain.NewUnauthorizedError(), http.StatusUnauthorized, "unauthorized"},
		{"validation", domain.NewValidationError("bad field"), http.StatusBadRequest, "validation_error"},
		{"not found", domain.NewNotFoundError("analysis"), http.StatusNotFound, "not_found"},
		{"foreign error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newContext(http.MethodPost, "/api/v1/analyze")
			captureLog(func() {
				_ = Domain(c, tc.err)
			})
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantError, parseBody(t, rec).Error)
		})
	}
}
