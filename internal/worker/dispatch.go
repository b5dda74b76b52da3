package worker

import (
	"errors"
	"fmt"

	"github.com/OpenRadar/awacs/internal/dispatcher"
	"github.com/OpenRadar/awacs/pkg/core"
)

// CommandAlert routes recent-log lines to persistence.
const CommandAlert = ":ALERT:"

// alertBuffer bounds how many lines may wait for the journal and uplink
const alertBuffer = 5000

// RegisterHandlers registers all event handlers with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// World model - sync, telemetry order must be preserved
	d.Register(string(core.EventTime), m.handleTime, dispatcher.Logged())
	d.Register(string(core.EventGlobal), m.handleGlobal, dispatcher.Logged())
	d.Register(string(core.EventRemove), m.handleRemove, dispatcher.Logged())
	// High-volume entity updates - not logged
	d.Register(string(core.EventUpdate), m.handleUpdate)

	// Persistence - buffered, never runs under the controller lock
	if m.deps.Journal != nil || m.deps.Uplink != nil {
		d.Register(CommandAlert, m.handleAlert, dispatcher.Buffered(alertBuffer))
	}
}

// AlertSink returns a sink that hands each line to the alert handler. A full
// queue drops the line and logs it at debug.
func (m *Manager) AlertSink(d *dispatcher.Dispatcher) func(core.Alert) {
	return func(a core.Alert) {
		if !d.HasHandler(CommandAlert) {
			return
		}
		if _, err := d.Dispatch(dispatcher.Event{Command: CommandAlert, Payload: a, SimTime: a.SimTime}); err != nil {
			m.deps.Logger.Debug("alert not persisted", "error", err, "kind", a.Kind)
		}
	}
}

func telemetry(e dispatcher.Event) (core.TelemetryEvent, error) {
	switch p := e.Payload.(type) {
	case core.TelemetryEvent:
		return p, nil
	case *core.TelemetryEvent:
		if p != nil {
			return *p, nil
		}
	}
	return core.TelemetryEvent{}, fmt.Errorf("%w %T for %s", ErrUnexpectedPayload, e.Payload, e.Command)
}

func (m *Manager) handleTime(e dispatcher.Event) (any, error) {
	ev, err := telemetry(e)
	if err != nil {
		return nil, err
	}
	m.deps.Applier.ApplyTime(ev.Time)
	return nil, nil
}

func (m *Manager) handleGlobal(e dispatcher.Event) (any, error) {
	ev, err := telemetry(e)
	if err != nil {
		return nil, err
	}
	m.deps.Applier.ApplyGlobal(ev.Props)
	return nil, nil
}

func (m *Manager) handleRemove(e dispatcher.Event) (any, error) {
	ev, err := telemetry(e)
	if err != nil {
		return nil, err
	}
	m.deps.Applier.ApplyRemove(ev.ID)
	return nil, nil
}

func (m *Manager) handleUpdate(e dispatcher.Event) (any, error) {
	ev, err := telemetry(e)
	if err != nil {
		return nil, err
	}
	if ev.Entity == nil {
		return nil, fmt.Errorf("%w: update without entity", ErrUnexpectedPayload)
	}
	m.deps.Applier.ApplyUpdate(*ev.Entity)
	return nil, nil
}

func (m *Manager) handleAlert(e dispatcher.Event) (any, error) {
	a, ok := e.Payload.(core.Alert)
	if !ok {
		return nil, fmt.Errorf("%w %T for %s", ErrUnexpectedPayload, e.Payload, e.Command)
	}

	var errs []error
	if m.deps.Journal != nil {
		if err := m.deps.Journal.Record(a); err != nil {
			errs = append(errs, fmt.Errorf("failed to journal alert: %w", err))
		}
	}
	if m.deps.Uplink != nil {
		if err := m.deps.Uplink.Send(a); err != nil {
			errs = append(errs, fmt.Errorf("failed to forward alert: %w", err))
		}
	}
	return nil, errors.Join(errs...)
}
