package worker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/OpenRadar/awacs/internal/dispatcher"
	"github.com/OpenRadar/awacs/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements dispatcher.Logger for testing
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *mockLogger) Debug(msg string, keysAndValues ...any) { l.add(msg) }
func (l *mockLogger) Info(msg string, keysAndValues ...any)  { l.add(msg) }
func (l *mockLogger) Error(msg string, keysAndValues ...any) { l.add(msg) }

func (l *mockLogger) add(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

// mockApplier records what the telemetry handlers applied
type mockApplier struct {
	mu      sync.Mutex
	times   []float64
	globals []map[string]string
	removed []string
	updated []core.Entity
}

func (a *mockApplier) ApplyTime(t float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.times = append(a.times, t)
}

func (a *mockApplier) ApplyGlobal(p map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.globals = append(a.globals, p)
}

func (a *mockApplier) ApplyRemove(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.removed = append(a.removed, id)
}

func (a *mockApplier) ApplyUpdate(e core.Entity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.updated = append(a.updated, e)
}

// mockJournal implements journal.Backend for testing
type mockJournal struct {
	mu       sync.Mutex
	lines    []core.Alert
	err      error
	duration time.Duration
}

func (j *mockJournal) Init() error  { return nil }
func (j *mockJournal) Close() error { return nil }

func (j *mockJournal) Record(a core.Alert) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.lines = append(j.lines, a)
	return j.err
}

func (j *mockJournal) Recent(limit int) ([]core.Alert, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]core.Alert(nil), j.lines...), nil
}

func (j *mockJournal) GetLastDBWriteDuration() time.Duration { return j.duration }

type mockUplink struct {
	mu   sync.Mutex
	sent []core.Alert
}

func (u *mockUplink) Send(a core.Alert) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.sent = append(u.sent, a)
	return nil
}

func newDispatcher(t *testing.T) *dispatcher.Dispatcher {
	t.Helper()
	d, err := dispatcher.New(&mockLogger{})
	require.NoError(t, err)
	return d
}

func TestRegisterHandlers_Telemetry(t *testing.T) {
	d := newDispatcher(t)
	app := &mockApplier{}
	NewManager(Dependencies{Applier: app}).RegisterHandlers(d)

	for _, kind := range []core.EventKind{core.EventTime, core.EventGlobal, core.EventRemove, core.EventUpdate} {
		assert.True(t, d.HasHandler(string(kind)), "missing handler for %s", kind)
	}
	assert.False(t, d.HasHandler(CommandAlert), "alert handler needs a journal or uplink")

	entity := core.Entity{ID: "a1", Name: "F-16C_50"}
	events := []core.TelemetryEvent{
		{Kind: core.EventGlobal, Props: map[string]string{"Title": "Red Flag"}},
		{Kind: core.EventTime, Time: 12.5},
		{Kind: core.EventUpdate, Entity: &entity},
		{Kind: core.EventRemove, ID: "a1"},
	}
	for _, ev := range events {
		_, err := d.Dispatch(dispatcher.Event{Command: string(ev.Kind), Payload: ev})
		require.NoError(t, err)
	}

	assert.Equal(t, []float64{12.5}, app.times)
	require.Len(t, app.globals, 1)
	assert.Equal(t, "Red Flag", app.globals[0]["Title"])
	require.Len(t, app.updated, 1)
	assert.Equal(t, "a1", app.updated[0].ID)
	assert.Equal(t, []string{"a1"}, app.removed)
}

func TestHandlers_PointerPayload(t *testing.T) {
	d := newDispatcher(t)
	app := &mockApplier{}
	NewManager(Dependencies{Applier: app}).RegisterHandlers(d)

	_, err := d.Dispatch(dispatcher.Event{Command: string(core.EventTime), Payload: &core.TelemetryEvent{Kind: core.EventTime, Time: 3}})
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, app.times)
}

func TestHandlers_BadPayload(t *testing.T) {
	d := newDispatcher(t)
	NewManager(Dependencies{Applier: &mockApplier{}}).RegisterHandlers(d)

	_, err := d.Dispatch(dispatcher.Event{Command: string(core.EventTime), Payload: "nope"})
	assert.ErrorIs(t, err, ErrUnexpectedPayload)

	_, err = d.Dispatch(dispatcher.Event{Command: string(core.EventUpdate), Payload: core.TelemetryEvent{Kind: core.EventUpdate}})
	assert.ErrorIs(t, err, ErrUnexpectedPayload)
}

func TestAlertSink_JournalAndUplink(t *testing.T) {
	d := newDispatcher(t)
	j := &mockJournal{}
	up := &mockUplink{}
	m := NewManager(Dependencies{Applier: &mockApplier{}, Journal: j, Uplink: up})
	m.RegisterHandlers(d)
	require.True(t, d.HasHandler(CommandAlert))

	sink := m.AlertSink(d)
	sink(core.Alert{Kind: core.AlertMerged, Text: "MERGED, angels 20."})
	sink(core.Alert{Kind: core.AlertReply, Text: "< PICTURE: CLEAN."})

	// Close drains the buffered handler
	d.Close()

	require.Len(t, j.lines, 2)
	assert.Equal(t, "MERGED, angels 20.", j.lines[0].Text)
	require.Len(t, up.sent, 2)
	assert.Equal(t, core.AlertReply, up.sent[1].Kind)
}

func TestAlertSink_NoHandlerIsNoop(t *testing.T) {
	d := newDispatcher(t)
	m := NewManager(Dependencies{Applier: &mockApplier{}})
	m.RegisterHandlers(d)

	assert.NotPanics(t, func() { m.AlertSink(d)(core.Alert{Text: "x"}) })
}

func TestHandleAlert_JoinsErrors(t *testing.T) {
	j := &mockJournal{err: errors.New("disk full")}
	m := NewManager(Dependencies{Journal: j})

	_, err := m.handleAlert(dispatcher.Event{Command: CommandAlert, Payload: core.Alert{Text: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	_, err = m.handleAlert(dispatcher.Event{Command: CommandAlert, Payload: 42})
	assert.ErrorIs(t, err, ErrUnexpectedPayload)
}

func TestGetLastDBWriteDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), NewManager(Dependencies{}).GetLastDBWriteDuration())

	m := NewManager(Dependencies{Journal: &mockJournal{duration: 5 * time.Millisecond}})
	assert.Equal(t, 5*time.Millisecond, m.GetLastDBWriteDuration())
}
