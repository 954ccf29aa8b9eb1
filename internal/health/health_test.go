package health_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/logtally/authtab/internal/health"
)

func TestHealthReadiness(t *testing.T) {
	t.Parallel()

	h := health.NewHealth()
	assert.True(t, h.IsReady(), "no registered components means ready")

	h.AddReadiness("ingester")
	h.AddReadiness("store")
	assert.False(t, h.IsReady())

	h.OnReady("ingester")
	assert.False(t, h.IsReady())

	h.OnReady("store")
	assert.True(t, h.IsReady())
}

func TestReadyzHandler(t *testing.T) {
	t.Parallel()

	h := health.NewSingleReadinessHealth("ingester")

	rec := httptest.NewRecorder()
	h.ReadyzHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), health.ComponentNotReady)

	h.OnReady("ingester")

	rec = httptest.NewRecorder()
	h.ReadyzHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"overall":"ok"`)
}
