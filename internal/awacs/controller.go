// Package awacs binds the world model, the alerting state machines, the CAP
// and PUSH planners and the command grammar behind one lock.
package awacs

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OpenRadar/awacs/internal/alert"
	"github.com/OpenRadar/awacs/internal/capsite"
	"github.com/OpenRadar/awacs/internal/classify"
	"github.com/OpenRadar/awacs/internal/dispatcher"
	"github.com/OpenRadar/awacs/internal/geo"
	"github.com/OpenRadar/awacs/internal/logging"
	"github.com/OpenRadar/awacs/internal/mission"
	"github.com/OpenRadar/awacs/internal/picture"
	"github.com/OpenRadar/awacs/internal/push"
	"github.com/OpenRadar/awacs/internal/queue"
	"github.com/OpenRadar/awacs/internal/track"
	"github.com/OpenRadar/awacs/pkg/core"
)

// Options tunes a Controller. Zero values are replaced with defaults.
type Options struct {
	Registry           track.Options
	Picture            picture.Options
	TickHz             float64
	MergeRangeNM       float64
	MergeCooldownTicks int
	MissileAlertNM     float64
	DeclareRadiusNM    float64
	WeaponsFree        bool
	LogCapacity        int
	BullseyePreference []string
	CapRadiusNM        float64
	CapAltLowFt        float64
	CapAltHighFt       float64
}

// DefaultOptions returns the controller defaults.
func DefaultOptions() Options {
	return Options{
		Registry:           track.DefaultOptions(),
		Picture:            picture.DefaultOptions(),
		TickHz:             1,
		MergeRangeNM:       3,
		MergeCooldownTicks: 10,
		MissileAlertNM:     30,
		DeclareRadiusNM:    6,
		LogCapacity:        800,
		BullseyePreference: track.DefaultBullseyePreference,
		CapRadiusNM:        capsite.DefaultRadiusNM,
		CapAltLowFt:        capsite.DefaultAltLowFt,
		CapAltHighFt:       capsite.DefaultAltHighFt,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Picture.RangeNM <= 0 {
		o.Picture.RangeNM = def.Picture.RangeNM
	}
	if o.Picture.AltFt <= 0 {
		o.Picture.AltFt = def.Picture.AltFt
	}
	if o.TickHz <= 0 {
		o.TickHz = def.TickHz
	}
	if o.MergeRangeNM <= 0 {
		o.MergeRangeNM = def.MergeRangeNM
	}
	if o.MergeCooldownTicks <= 0 {
		o.MergeCooldownTicks = def.MergeCooldownTicks
	}
	if o.MissileAlertNM <= 0 {
		o.MissileAlertNM = def.MissileAlertNM
	}
	if o.DeclareRadiusNM <= 0 {
		o.DeclareRadiusNM = def.DeclareRadiusNM
	}
	if o.LogCapacity <= 0 {
		o.LogCapacity = def.LogCapacity
	}
	if len(o.BullseyePreference) == 0 {
		o.BullseyePreference = def.BullseyePreference
	}
	if o.CapRadiusNM <= 0 {
		o.CapRadiusNM = def.CapRadiusNM
	}
	if o.CapAltHighFt-o.CapAltLowFt < capsite.MinBandFt {
		o.CapAltLowFt, o.CapAltHighFt = def.CapAltLowFt, def.CapAltHighFt
	}
	return o
}

// Sink receives every line written to the recent log. Sinks run outside the
// controller lock and must not block for long.
type Sink func(core.Alert)

// Controller is the AWACS session: the single writer of the world model and
// the handler of radio commands. All world state sits behind mu; the
// ingest path and the command path each hold it for one logical operation.
type Controller struct {
	opts   Options
	logger *slog.Logger

	mu          sync.Mutex
	reg         *track.Registry
	caps        *capsite.Manager
	push        *push.Scheduler
	merge       *alert.MergeMonitor
	missiles    *alert.MissileWatch
	simTime     float64
	lastTick    int
	ticked      bool
	weaponsFree bool
	pending     []core.Alert

	commands *dispatcher.Dispatcher
	mission  *mission.Context
	recent   *queue.Queue[core.Alert]

	connected atomic.Bool
	clock     atomic.Uint64 // float64 bits of simTime, for lock-free log context

	sinkMu sync.RWMutex
	sinks  []Sink
}

// New creates a Controller. A nil logger uses slog.Default.
func New(opts Options, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()

	d, err := dispatcher.New(logging.NewDispatcherLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("creating command dispatcher: %w", err)
	}

	c := &Controller{
		opts:        opts,
		logger:      logger.With("component", "awacs"),
		reg:         track.New(opts.Registry),
		caps:        capsite.NewManager(),
		push:        push.NewScheduler(),
		merge:       alert.NewMergeMonitor(opts.MergeCooldownTicks),
		missiles:    alert.NewMissileWatch(opts.MissileAlertNM),
		weaponsFree: opts.WeaponsFree,
		commands:    d,
		mission:     mission.NewContext(),
		recent:      queue.NewBounded[core.Alert](opts.LogCapacity),
	}
	c.reg.OnRemove(c.caps.Purge)
	c.registerCommands()
	return c, nil
}

// Subscribe adds a sink for recent-log lines.
func (c *Controller) Subscribe(s Sink) {
	c.sinkMu.Lock()
	defer c.sinkMu.Unlock()
	c.sinks = append(c.sinks, s)
}

// Mission returns the session's global properties.
func (c *Controller) Mission() *mission.Context {
	return c.mission
}

// SetConnected records whether a telemetry source is attached.
func (c *Controller) SetConnected(v bool) {
	c.connected.Store(v)
}

// SetWeaponsFree switches threat wording between bandit and hostile.
func (c *Controller) SetWeaponsFree(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.weaponsFree = v
}

// WeaponsFree reports the current weapons state.
func (c *Controller) WeaponsFree() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weaponsFree
}

// Reset forgets the world for a new session. CAP sites and the PUSH plan are
// planning state and survive it.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.reg.Reset()
	for _, id := range c.caps.Recipients() {
		c.caps.Purge(id)
	}
	c.merge.Reset()
	c.missiles.Reset()
	c.simTime = 0
	c.ticked = false
	c.clock.Store(0)
	c.mu.Unlock()
	c.mission.Reset()
}

// LogContext returns the attributes added to every log record.
func (c *Controller) LogContext() []slog.Attr {
	return []slog.Attr{
		slog.Float64("simTime", math.Float64frombits(c.clock.Load())),
		slog.Bool("connected", c.connected.Load()),
	}
}

// RecentLog returns the newest limit lines, oldest first. limit <= 0 returns
// the whole log.
func (c *Controller) RecentLog(limit int) []core.Alert {
	return c.recent.Tail(limit)
}

// Log appends a system line, such as a connection notice, to the recent log.
func (c *Controller) Log(text string) {
	c.mu.Lock()
	a := c.stamp(core.Alert{Kind: core.AlertSystem, Text: text})
	c.mu.Unlock()
	c.publish([]core.Alert{a})
}

// emit queues alerts for publication once the lock is released.
// Callers hold mu.
func (c *Controller) emit(alerts ...core.Alert) {
	for _, a := range alerts {
		c.pending = append(c.pending, c.stamp(a))
	}
}

// Callers hold mu.
func (c *Controller) stamp(a core.Alert) core.Alert {
	a.SimTime = c.simTime
	if a.Time.IsZero() {
		a.Time = time.Now().UTC()
	}
	return a
}

// takePending hands over queued alerts. Callers hold mu.
func (c *Controller) takePending() []core.Alert {
	out := c.pending
	c.pending = nil
	return out
}

// publish writes alerts to the recent log and every sink. It must be called
// without mu held.
func (c *Controller) publish(alerts []core.Alert) {
	if len(alerts) == 0 {
		return
	}
	c.recent.Push(alerts...)

	c.sinkMu.RLock()
	sinks := c.sinks
	c.sinkMu.RUnlock()

	for _, a := range alerts {
		switch a.Kind {
		case core.AlertMerged, core.AlertDefend, core.AlertPush:
			c.logger.Info(a.Text, "kind", a.Kind, "simTime", a.SimTime)
		default:
			c.logger.Debug(a.Text, "kind", a.Kind, "simTime", a.SimTime)
		}
		for _, s := range sinks {
			s(a)
		}
	}
}

// recipients resolves the flights assigned to any CAP site. Callers hold mu.
func (c *Controller) recipients() []push.Recipient {
	var out []push.Recipient
	for _, id := range c.caps.Recipients() {
		e, ok := c.reg.Get(id)
		if !ok {
			continue
		}
		out = append(out, push.Recipient{ID: id, Label: classify.FriendlyLabel(e)})
	}
	return out
}

// bullseye resolves the reference point. Callers hold mu.
func (c *Controller) bullseye() (core.Point, bool) {
	return c.reg.ResolveBullseye(c.opts.BullseyePreference)
}

// Status is a point-in-time summary of the session.
type Status struct {
	Air         int     `json:"air"`
	Friendly    int     `json:"friendly"`
	Hostile     int     `json:"hostile"`
	Unknown     int     `json:"unknown"`
	Missiles    int     `json:"missiles"`
	Bullseye    bool    `json:"bullseye"`
	Connected   bool    `json:"connected"`
	SimTime     float64 `json:"simTime"`
	WeaponsFree bool    `json:"weaponsFree"`
	CAPSites    int     `json:"capSites"`
	PushActive  bool    `json:"pushActive"`
	Mission     string  `json:"mission"`
}

// Status returns the current counts.
func (c *Controller) Status() Status {
	c.mu.Lock()
	st := Status{
		Air:         len(c.reg.Air()),
		Friendly:    len(c.reg.Friendly()),
		Hostile:     len(c.reg.Hostile()),
		Unknown:     len(c.reg.Unknown()),
		Missiles:    c.reg.MissileCount(),
		SimTime:     c.simTime,
		WeaponsFree: c.weaponsFree,
		CAPSites:    c.caps.Len(),
		PushActive:  c.push.Active(),
	}
	_, st.Bullseye = c.bullseye()
	c.mu.Unlock()

	st.Connected = c.connected.Load()
	st.Mission = c.mission.Title()
	return st
}

// normalizeHeading wraps a reported heading into [0,360).
func normalizeHeading(e *core.Entity) {
	if h := e.Transform.Heading; h != nil {
		n := geo.NormalizeHeading(*h)
		e.Transform.Heading = &n
	}
}
