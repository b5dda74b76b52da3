// pkg/core/events.go
package core

import "time"

// EventKind tags a decoded telemetry line.
type EventKind string

const (
	EventTime   EventKind = ":TIME:"
	EventGlobal EventKind = ":GLOBAL:"
	EventRemove EventKind = ":REMOVE:"
	EventUpdate EventKind = ":UPDATE:"
)

// TelemetryEvent is one decoded telemetry line. Only the fields relevant to
// Kind are set.
type TelemetryEvent struct {
	Kind   EventKind
	Time   float64           // EventTime: simulation seconds
	ID     string            // EventRemove
	Props  map[string]string // EventGlobal
	Entity *Entity           // EventUpdate
}

// AlertKind names an output line category.
type AlertKind string

const (
	AlertMerged  AlertKind = "merged"
	AlertDefend  AlertKind = "defend"
	AlertPush    AlertKind = "push"
	AlertCommand AlertKind = "command"
	AlertReply   AlertKind = "reply"
	AlertSystem  AlertKind = "system"
)

// Alert is a line written to the recent log.
type Alert struct {
	Kind     AlertKind `json:"kind"`
	Text     string    `json:"text"`
	SimTime  float64   `json:"simTime"`
	Time     time.Time `json:"time"`
	EntityID string    `json:"entityId,omitempty"`
	Position *Point    `json:"position,omitempty"`
}
