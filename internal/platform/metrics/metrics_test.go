package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequestAndExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("/application/submit", http.MethodPost, http.StatusOK, time.Now())
	m.IncrementRateLimitDecision("limited")
	m.SetRateLimitDegraded(true)

	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RateLimitDecision.WithLabelValues("limited")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RateLimitDegraded))

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "grantapp_http_request_duration_seconds"))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("/", http.MethodGet, http.StatusOK, time.Now())
	m.IncrementRateLimitDecision("allowed")
	m.SetRateLimitDegraded(false)
}
