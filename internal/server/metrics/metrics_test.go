package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Auth("login", "ok")
	m.Auth("login", "ok")
	m.Auth("login", "invalid")
	m.Website("delete", "forbidden")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthEvents.WithLabelValues("login", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthEvents.WithLabelValues("login", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebsiteEvents.WithLabelValues("delete", "forbidden")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest("/dashboard", http.MethodGet, 200, 15*time.Millisecond)
	m.Auth("register", "ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	out := string(body)

	assert.True(t, strings.Contains(out, `sitekeeper_http_request_duration_seconds_count{method="GET",route="/dashboard",status="200"} 1`), out)
	assert.Contains(t, out, `sitekeeper_auth_events_total{event="register",outcome="ok"} 1`)
	assert.Contains(t, out, "go_goroutines")
}

func TestNewIsIndependent(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = New()
		_ = New()
	})
}
