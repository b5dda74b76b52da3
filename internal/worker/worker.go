package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/OpenRadar/awacs/internal/journal"
	"github.com/OpenRadar/awacs/pkg/core"
)

// ErrUnexpectedPayload is returned when an event carries the wrong payload type
var ErrUnexpectedPayload = fmt.Errorf("unexpected payload")

// Applier is the world model the telemetry handlers feed.
type Applier interface {
	ApplyTime(simTime float64)
	ApplyGlobal(props map[string]string)
	ApplyRemove(id string)
	ApplyUpdate(e core.Entity)
}

// AlertSender forwards alerts off-process.
type AlertSender interface {
	Send(a core.Alert) error
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Applier Applier
	Journal journal.Backend // optional
	Uplink  AlertSender     // optional
	Logger  *slog.Logger
}

// Manager binds decoded telemetry and alert persistence onto a dispatcher
type Manager struct {
	deps Dependencies
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Manager{deps: deps}
}

// GetLastDBWriteDuration returns the duration of the last journal write.
// Returns 0 if the journal doesn't support this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.deps.Journal.(journal.WriteDurationProvider); ok {
		return p.GetLastDBWriteDuration()
	}
	return 0
}
