package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPromObserveRequest(t *testing.T) {
	p := NewPromWithRegistry("clinic", prometheus.NewRegistry())

	p.ObserveRequest("GET", "/api/:workspace_slug/patients", "200", 0.02)
	p.ObserveRequest("GET", "/api/:workspace_slug/patients", "200", 0.03)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.requests.WithLabelValues("GET", "/api/:workspace_slug/patients", "200")))
}

func TestPromConnectionsGauge(t *testing.T) {
	p := NewPromWithRegistry("clinic", prometheus.NewRegistry())
	p.ConnectionOpened()
	p.ConnectionOpened()
	p.ConnectionClosed()
	assert.Equal(t, 1.0, testutil.ToFloat64(p.wsConnections))
}

func TestPromHandlerExposesMetrics(t *testing.T) {
	p := NewPromWithRegistry("clinic", prometheus.NewRegistry())
	p.ObserveRequest("POST", "/api/auth/login", "401", 0.01)

	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.True(t, strings.Contains(w.Body.String(), "clinic_http_requests_total"))
}
