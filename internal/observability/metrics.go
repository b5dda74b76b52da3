package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/OpenRadar/awacs/internal/awacs"
	"github.com/OpenRadar/awacs/pkg/core"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the controller's Prometheus metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Alerts           *prometheus.CounterVec
	Commands         *prometheus.CounterVec
	CommandDurations *prometheus.HistogramVec
	HTTPRequests     *prometheus.CounterVec
	DroppedLines     prometheus.Counter

	Tracks         *prometheus.GaugeVec
	Connected      prometheus.Gauge
	SimTime        prometheus.Gauge
	JournalWriteMs prometheus.Gauge
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice on the same registry returns the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	alerts, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "awacs_alerts_total",
		Help: "Log lines emitted by the controller, labeled by kind.",
	}, []string{"kind"}), "awacs_alerts_total")
	if err != nil {
		return nil, err
	}
	commands, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "awacs_commands_total",
		Help: "Handled radio commands, labeled by parsed command kind.",
	}, []string{"command"}), "awacs_commands_total")
	if err != nil {
		return nil, err
	}
	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "awacs_command_duration_seconds",
		Help:    "Time spent answering a radio command.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
	}, []string{"command"}), "awacs_command_duration_seconds")
	if err != nil {
		return nil, err
	}
	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "awacs_http_requests_total",
		Help: "HTTP API requests, labeled by method, route pattern and status code.",
	}, []string{"method", "route", "code"}), "awacs_http_requests_total")
	if err != nil {
		return nil, err
	}
	dropped, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "awacs_telemetry_dropped_lines_total",
		Help: "Telemetry lines that could not be decoded.",
	}), "awacs_telemetry_dropped_lines_total")
	if err != nil {
		return nil, err
	}
	tracks, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "awacs_tracks",
		Help: "Current tracked entities by category.",
	}, []string{"category"}), "awacs_tracks")
	if err != nil {
		return nil, err
	}
	connected, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "awacs_feed_connected",
		Help: "1 while the telemetry feed is connected.",
	}), "awacs_feed_connected")
	if err != nil {
		return nil, err
	}
	simTime, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "awacs_sim_time_seconds",
		Help: "Latest simulation time seen on the feed.",
	}), "awacs_sim_time_seconds")
	if err != nil {
		return nil, err
	}
	journalMs, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "awacs_journal_last_write_ms",
		Help: "Duration of the last journal batch write in milliseconds.",
	}), "awacs_journal_last_write_ms")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		Alerts:           alerts,
		Commands:         commands,
		CommandDurations: durations,
		HTTPRequests:     requests,
		DroppedLines:     dropped,
		Tracks:           tracks,
		Connected:        connected,
		SimTime:          simTime,
		JournalWriteMs:   journalMs,
	}, nil
}

// ObserveAlert counts one controller log line. It has the awacs.Sink shape.
func (c *Collector) ObserveAlert(a core.Alert) {
	if c == nil {
		return
	}
	c.Alerts.WithLabelValues(string(a.Kind)).Inc()
}

// ObserveCommand records a handled command of the given kind.
func (c *Collector) ObserveCommand(kind string, d time.Duration) {
	if c == nil {
		return
	}
	c.Commands.WithLabelValues(kind).Inc()
	c.CommandDurations.WithLabelValues(kind).Observe(d.Seconds())
}

// DroppedLine counts an undecodable telemetry line.
func (c *Collector) DroppedLine() {
	if c == nil {
		return
	}
	c.DroppedLines.Inc()
}

// SetStatus drives the gauges from a status sample.
func (c *Collector) SetStatus(st awacs.Status) {
	if c == nil {
		return
	}
	c.Tracks.WithLabelValues("air").Set(float64(st.Air))
	c.Tracks.WithLabelValues("friendly").Set(float64(st.Friendly))
	c.Tracks.WithLabelValues("hostile").Set(float64(st.Hostile))
	c.Tracks.WithLabelValues("unknown").Set(float64(st.Unknown))
	c.Tracks.WithLabelValues("missiles").Set(float64(st.Missiles))
	if st.Connected {
		c.Connected.Set(1)
	} else {
		c.Connected.Set(0)
	}
	c.SimTime.Set(st.SimTime)
}

// SetJournalWriteDuration publishes the last journal write time.
func (c *Collector) SetJournalWriteDuration(d time.Duration) {
	if c == nil {
		return
	}
	c.JournalWriteMs.Set(float64(d.Microseconds()) / 1000)
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Middleware counts requests by chi route pattern so path parameters do not
// explode the label space.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if c == nil {
			return
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}

func register[T prometheus.Collector](reg prometheus.Registerer, coll T, name string) (T, error) {
	if err := reg.Register(coll); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return coll, nil
}
