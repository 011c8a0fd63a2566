package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickupwatch/pkg/apple"
	"pickupwatch/pkg/config"
	"pickupwatch/pkg/handlers"
	"pickupwatch/pkg/metrics"
	"pickupwatch/pkg/middleware"
	"pickupwatch/pkg/tasks"
)

func newTestServer(t *testing.T) (*HTTPServer, *metrics.Collectors) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	cfg := &config.Config{App: config.NewAppConfig(), Monitor: config.NewMonitorConfig()}
	sel := apple.Selection{Model: apple.ModelSeven, Color: apple.ColorGold, Capacity: 128, Carrier: "att", Zip: "10001"}
	h := handlers.NewHandlerService(cfg, sel, tasks.NewStatusStore(5))

	return NewHTTPServer(&Config{Listen: "127.0.0.1:0", Gatherer: reg}, h), m
}

func TestRoutes(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/health", "/status", "/api/v1/status", "/api/v1/jobs", "/api/v1/config", "/api/v1/catalog", "/api/v1/history"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, m := newTestServer(t)
	m.ObserveCheck(metrics.OutcomeNotFound, 150*time.Millisecond, 0)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `pickup_checks_total{outcome="not_found"} 1`)
}

func TestSwaggerDoc(t *testing.T) {
	s, _ := newTestServer(t)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/check")
	assert.Contains(t, w.Body.String(), "pickupwatch status API")
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestManualCheckDisabledWithoutRunner(t *testing.T) {
	s, _ := newTestServer(t)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/check", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStartAndShutdown(t *testing.T) {
	s, _ := newTestServer(t)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, <-errCh)
}

func TestStartReportsBindError(t *testing.T) {
	ln, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	h := handlers.NewHandlerService(&config.Config{}, apple.Selection{}, nil)
	s := NewHTTPServer(&Config{Listen: ln.Addr().String()}, h)
	assert.ErrorContains(t, s.Start(), "failed to listen")
}
