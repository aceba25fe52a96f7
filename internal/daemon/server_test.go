package daemon

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swcstudio/fsl-continuum-sub003/internal/config"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	if mutate != nil {
		mutate(cfg)
	}
	s, err := NewServer(cfg, nil)
	require.NoError(t, err)
	return s
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"backends":5`)

	run := httptest.NewRecorder()
	h.ServeHTTP(run, httptest.NewRequest(http.MethodPost, "/ensemble/run", bytes.NewBufferString(`{"task":"Write a simple function"}`)))
	require.Equal(t, http.StatusOK, run.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	require.True(t, strings.Contains(body, `fsl_ensemble_requests_total{outcome="ok",tier="simple"} 1`), body)
	require.Contains(t, body, `fsl_backend_calls_total{backend="nano",status="ok"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Server.MetricsEnabled = false })

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNDJSONTransportSkipsConnect(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Server.Transport = "ndjson" })

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/fsl.ensemble.v1.EnsembleService/Run", bytes.NewBufferString(`{}`)))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/backends", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}
