package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIsolatedRegistries(t *testing.T) {
	// Two collectors must not collide on registration
	m1 := NewMetrics()
	m2 := NewMetrics()

	m1.RecordResolved("accepted", "user")

	assert.Equal(t, 1.0, testutil.ToFloat64(m1.ResolvedTotal.WithLabelValues("accepted", "user")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m2.ResolvedTotal.WithLabelValues("accepted", "user")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordRouted("system_link", "connect")
		m.RecordDropped("duplicate")
		m.RecordAdmitted("connect", "push")
		m.RecordResolved("rejected", "teardown")
		m.SetQueueDepth(3)
		m.RecordReputation("flagged")
		m.IncWSConnections()
		m.DecWSConnections()
	})
}

func TestPipelineCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordRouted("attribution", "connect")
	m.RecordRouted("attribution", "connect")
	m.RecordDropped("malformed")
	m.SetQueueDepth(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RoutedTotal.WithLabelValues("attribution", "connect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DroppedTotal.WithLabelValues("malformed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.QueueDepth))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/sessions/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/sess_1", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/sessions/:id", "404")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "walletshell_http_requests_total"))
	assert.True(t, strings.Contains(w.Body.String(), "walletshell_uptime_seconds"))
}
