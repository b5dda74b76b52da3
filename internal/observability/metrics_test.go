package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/OpenRadar/awacs/internal/awacs"
	"github.com/OpenRadar/awacs/pkg/core"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	return c, reg
}

func TestObserveAlert(t *testing.T) {
	c, _ := newCollector(t)

	c.ObserveAlert(core.Alert{Kind: core.AlertMerged})
	c.ObserveAlert(core.Alert{Kind: core.AlertMerged})
	c.ObserveAlert(core.Alert{Kind: core.AlertDefend})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Alerts.WithLabelValues("merged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Alerts.WithLabelValues("defend")))
}

func TestObserveCommand(t *testing.T) {
	c, _ := newCollector(t)
	c.ObserveCommand("picture", 2*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Commands.WithLabelValues("picture")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.CommandDurations))
}

func TestSetStatus(t *testing.T) {
	c, _ := newCollector(t)
	c.SetStatus(awacs.Status{Air: 5, Friendly: 2, Hostile: 3, Missiles: 1, Connected: true, SimTime: 42})

	assert.Equal(t, 5.0, testutil.ToFloat64(c.Tracks.WithLabelValues("air")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.Tracks.WithLabelValues("hostile")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Tracks.WithLabelValues("missiles")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Connected))
	assert.Equal(t, 42.0, testutil.ToFloat64(c.SimTime))

	c.SetStatus(awacs.Status{})
	assert.Equal(t, 0.0, testutil.ToFloat64(c.Connected))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveAlert(core.Alert{Kind: core.AlertPush})
		c.ObserveCommand("snap", time.Millisecond)
		c.DroppedLine()
		c.SetStatus(awacs.Status{Air: 1})
		c.SetJournalWriteDuration(time.Second)
	})
}

func TestNewCollector_RegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewCollector(reg)
	require.NoError(t, err)
	b, err := NewCollector(reg)
	require.NoError(t, err)

	a.DroppedLine()
	assert.Equal(t, 1.0, testutil.ToFloat64(b.DroppedLines))
}

func TestHandlerAndMiddleware(t *testing.T) {
	c, _ := newCollector(t)
	c.SetJournalWriteDuration(1500 * time.Microsecond)

	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/api/log", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", c.Handler())

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/log")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/api/log", "418")))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "awacs_journal_last_write_ms 1.5")
	assert.Contains(t, string(body), `awacs_http_requests_total{code="418",method="GET",route="/api/log"} 1`)
}
