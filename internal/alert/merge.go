// Package alert produces the unsolicited calls: MERGED when a threat closes
// on a friendly and DEFEND when a missile appears near one.
package alert

import (
	"fmt"

	"github.com/OpenRadar/awacs/internal/geo"
	"github.com/OpenRadar/awacs/pkg/core"
)

// MergeState is the state of a MergeMonitor.
type MergeState int

const (
	// MergeIdle has never called, or its cooldown ran out with no merge.
	MergeIdle MergeState = iota
	// MergeCooling has called and suppresses further calls.
	MergeCooling
	// MergeArmed saw the cooldown run out while the merge persisted; the next
	// merged tick calls again.
	MergeArmed
)

func (s MergeState) String() string {
	switch s {
	case MergeCooling:
		return "cooling"
	case MergeArmed:
		return "armed"
	default:
		return "idle"
	}
}

// MergeMonitor rate-limits MERGED calls in simulation ticks.
type MergeMonitor struct {
	cooldown int
	state    MergeState
	lastTick int
}

// NewMergeMonitor returns a monitor that stays quiet for cooldownTicks ticks
// after each call.
func NewMergeMonitor(cooldownTicks int) *MergeMonitor {
	if cooldownTicks < 1 {
		cooldownTicks = 1
	}
	return &MergeMonitor{cooldown: cooldownTicks}
}

// State returns the current state.
func (m *MergeMonitor) State() MergeState {
	return m.state
}

// Observe feeds one tick. merged tells whether any threat is within merge
// range of a friendly. It reports whether a call should be made now.
func (m *MergeMonitor) Observe(tick int, merged bool) bool {
	if m.state != MergeIdle && tick < m.lastTick {
		// clock went backwards
		m.state = MergeIdle
	}
	if m.state == MergeCooling && tick-m.lastTick >= m.cooldown {
		if merged {
			m.state = MergeArmed
		} else {
			m.state = MergeIdle
		}
	}
	if !merged {
		if m.state == MergeArmed {
			m.state = MergeIdle
		}
		return false
	}
	if m.state == MergeCooling {
		return false
	}
	m.state = MergeCooling
	m.lastTick = tick
	return true
}

// Reset returns the monitor to idle.
func (m *MergeMonitor) Reset() {
	m.state = MergeIdle
	m.lastTick = 0
}

// FindMerge returns the first threat within rangeNM of any friendly. Pairs in
// different coordinate frames are ignored.
func FindMerge(threats, friendlies []core.Entity, rangeNM float64) (core.Entity, bool) {
	for _, t := range threats {
		for _, f := range friendlies {
			_, rng, err := geo.BearingRange(t.Transform.Position, f.Transform.Position)
			if err == nil && rng <= rangeNM {
				return t, true
			}
		}
	}
	return core.Entity{}, false
}

// MergedCall builds the MERGED call for threat.
func MergedCall(threat core.Entity) core.Alert {
	pos := threat.Transform.Position
	return core.Alert{
		Kind:     core.AlertMerged,
		Text:     fmt.Sprintf("MERGED, %s.", geo.AltitudePhrase(threat.Transform.Altitude)),
		EntityID: threat.ID,
		Position: &pos,
	}
}
