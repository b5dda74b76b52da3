package awacs

import (
	"math"

	"github.com/OpenRadar/awacs/internal/alert"
	"github.com/OpenRadar/awacs/pkg/core"
)

// Apply routes a decoded telemetry event to its applier.
func (c *Controller) Apply(ev core.TelemetryEvent) {
	switch ev.Kind {
	case core.EventTime:
		c.ApplyTime(ev.Time)
	case core.EventGlobal:
		c.ApplyGlobal(ev.Props)
	case core.EventRemove:
		c.ApplyRemove(ev.ID)
	case core.EventUpdate:
		if ev.Entity != nil {
			c.ApplyUpdate(*ev.Entity)
		}
	}
}

// ApplyTime advances the simulation clock. It refreshes velocities, evicts
// stale tracks, runs the merge check once per tick and gives the PUSH plan a
// chance to fire.
func (c *Controller) ApplyTime(simTime float64) {
	c.mu.Lock()
	c.simTime = simTime
	c.clock.Store(math.Float64bits(simTime))

	c.reg.UpdateVelocities()
	evicted := c.reg.EvictStale(simTime)

	tick := int(simTime * c.opts.TickHz)
	if !c.ticked || tick != c.lastTick {
		c.lastTick, c.ticked = tick, true
		threat, merged := alert.FindMerge(c.reg.Interest(), c.reg.Friendly(), c.opts.MergeRangeNM)
		if c.merge.Observe(tick, merged) {
			c.emit(alert.MergedCall(threat))
		}
	}

	if alerts, fired := c.push.Tick(simTime, c.recipients); fired {
		c.emit(alerts...)
	}

	pending := c.takePending()
	c.mu.Unlock()

	if len(evicted) > 0 {
		c.logger.Debug("evicted stale tracks", "count", len(evicted), "simTime", simTime)
	}
	c.publish(pending)
}

// ApplyGlobal merges session-wide properties.
func (c *Controller) ApplyGlobal(props map[string]string) {
	if len(props) == 0 {
		return
	}
	c.mission.Merge(props)
}

// ApplyRemove drops an entity and every reference to it.
func (c *Controller) ApplyRemove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reg.Remove(id)
}

// ApplyUpdate stores the latest state of an entity. A guided weapon seen for
// the first time is checked against the friendlies before it is stored.
func (c *Controller) ApplyUpdate(e core.Entity) {
	if e.ID == "" {
		return
	}
	normalizeHeading(&e)

	c.mu.Lock()
	if a, ok := c.missiles.Observe(e, c.reg.Friendly); ok {
		c.emit(a)
	}
	c.reg.Upsert(e, c.simTime)
	pending := c.takePending()
	c.mu.Unlock()
	c.publish(pending)
}
