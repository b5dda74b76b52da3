package ingest

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OpenRadar/awacs/internal/awacs"
	"github.com/OpenRadar/awacs/internal/dispatcher"
	"github.com/OpenRadar/awacs/internal/logging"
	"github.com/OpenRadar/awacs/internal/tacview"
	"github.com/OpenRadar/awacs/internal/worker"
	"github.com/OpenRadar/awacs/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanSource hands out lines pushed by the test and fails with
// net.ErrClosed once closed.
type chanSource struct {
	lines  chan string
	closed chan struct{}
	once   sync.Once
}

func newChanSource() *chanSource {
	return &chanSource{lines: make(chan string, 16), closed: make(chan struct{})}
}

func (s *chanSource) ReadLine() (string, error) {
	select {
	case <-s.closed:
		return "", net.ErrClosed
	case l, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}
		return l, nil
	}
}

func (s *chanSource) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

type fakeController struct {
	mu        sync.Mutex
	resets    int
	connected []bool
	logs      []string
}

func (c *fakeController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets++
}

func (c *fakeController) SetConnected(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = append(c.connected, v)
}

func (c *fakeController) Log(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, text)
}

type recorder struct {
	mu     sync.Mutex
	events []core.TelemetryEvent
}

func (r *recorder) handler(e dispatcher.Event) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e.Payload.(core.TelemetryEvent))
	return nil, nil
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type drops struct {
	mu sync.Mutex
	n  int
}

func (d *drops) DroppedLine() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.n++
}

func newDispatcher(t *testing.T, rec *recorder) *dispatcher.Dispatcher {
	t.Helper()
	d, err := dispatcher.New(logging.NewDispatcherLogger(nil))
	require.NoError(t, err)
	t.Cleanup(d.Close)
	if rec != nil {
		for _, k := range []core.EventKind{core.EventTime, core.EventGlobal, core.EventRemove, core.EventUpdate} {
			d.Register(string(k), rec.handler)
		}
	}
	return d
}

func TestStartStop(t *testing.T) {
	rec := &recorder{}
	src := newChanSource()
	ctrl := &fakeController{}
	dr := &drops{}

	r := New(Dependencies{
		Dispatcher: newDispatcher(t, rec),
		Controller: ctrl,
		Drops:      dr,
		Dial: func(context.Context, Options) (tacview.LineSource, error) {
			return src, nil
		},
	})

	opts := Options{Host: "127.0.0.1", Port: 42674}
	require.NoError(t, r.Start(context.Background(), opts))
	assert.True(t, r.Connected())
	assert.ErrorIs(t, r.Start(context.Background(), opts), ErrAlreadyRunning)

	src.lines <- "FileType=text/acmi/tacview"
	src.lines <- "#1.5"
	src.lines <- "a1,T=1|2|3,Type=Air+FixedWing"
	src.lines <- "garbage line"
	src.lines <- "-a1"

	require.Eventually(t, func() bool { return rec.len() == 3 }, time.Second, 5*time.Millisecond)

	r.Stop()
	assert.False(t, r.Connected())
	r.Stop()

	rec.mu.Lock()
	assert.Equal(t, core.EventTime, rec.events[0].Kind)
	assert.Equal(t, core.EventUpdate, rec.events[1].Kind)
	assert.Equal(t, core.EventRemove, rec.events[2].Kind)
	rec.mu.Unlock()

	lines, dropped := r.Stats()
	assert.Equal(t, uint64(5), lines)
	assert.Equal(t, uint64(1), dropped)
	assert.Equal(t, 1, dr.n)

	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	assert.Equal(t, 1, ctrl.resets)
	assert.Equal(t, []bool{true, false}, ctrl.connected)
	assert.Equal(t, []string{"Connected to 127.0.0.1:42674", "Disconnected from 127.0.0.1:42674"}, ctrl.logs)
}

func TestStart_RestartAfterStop(t *testing.T) {
	r := New(Dependencies{
		Dispatcher: newDispatcher(t, &recorder{}),
		Dial: func(context.Context, Options) (tacview.LineSource, error) {
			return newChanSource(), nil
		},
	})
	require.NoError(t, r.Start(context.Background(), Options{}))
	r.Stop()
	require.NoError(t, r.Start(context.Background(), Options{}))
	r.Stop()
}

func TestStart_DialError(t *testing.T) {
	ctrl := &fakeController{}
	r := New(Dependencies{
		Dispatcher: newDispatcher(t, nil),
		Controller: ctrl,
		Dial: func(context.Context, Options) (tacview.LineSource, error) {
			return nil, errors.New("refused")
		},
	})
	err := r.Start(context.Background(), Options{Host: "h", Port: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
	assert.False(t, r.Connected())
	assert.Zero(t, ctrl.resets)
}

func TestRemoteCloseMarksDisconnected(t *testing.T) {
	src := newChanSource()
	ctrl := &fakeController{}
	r := New(Dependencies{
		Dispatcher: newDispatcher(t, &recorder{}),
		Controller: ctrl,
		Dial: func(context.Context, Options) (tacview.LineSource, error) {
			return src, nil
		},
	})
	require.NoError(t, r.Start(context.Background(), Options{}))

	close(src.lines)
	require.Eventually(t, func() bool { return !r.Connected() }, time.Second, 5*time.Millisecond)

	// a new connection is allowed once the loop has exited
	require.Eventually(t, func() bool {
		err := r.Start(context.Background(), Options{})
		if err == nil {
			r.Stop()
		}
		return err == nil
	}, time.Second, 5*time.Millisecond)
}

func TestReplay_Paced(t *testing.T) {
	rec := &recorder{}
	r := New(Dependencies{Dispatcher: newDispatcher(t, rec)})

	src := tacview.NewFileSource(io.NopCloser(strings.NewReader("#0\n#0.5\n#1\n")))
	start := time.Now()
	require.NoError(t, r.Replay(context.Background(), src, 10))
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, 3, rec.len())
}

func TestReplay_Cancel(t *testing.T) {
	r := New(Dependencies{Dispatcher: newDispatcher(t, &recorder{})})
	src := tacview.NewFileSource(io.NopCloser(strings.NewReader("#0\n#1000\n")))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := r.Replay(ctx, src, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReplay_DrivesController(t *testing.T) {
	ctrl, err := awacs.New(awacs.DefaultOptions(), nil)
	require.NoError(t, err)

	d := newDispatcher(t, nil)
	worker.NewManager(worker.Dependencies{Applier: ctrl}).RegisterHandlers(d)

	recording := strings.Join([]string{
		"FileType=text/acmi/tacview",
		"FileVersion=2.2",
		"0,ReferenceTime=2024-05-01T10:00:00Z,Title=Red Flag",
		"#0",
		"a1,T=0|0|7000|0|0|90|0|0|90,Type=Air+FixedWing,Coalition=Allies,Name=F-16C,CallSign=Viper 1-1",
		"b2,T=0|0|7000|0|0|270|37040|0|270,Type=Air+FixedWing,Coalition=Enemies,Color=Red,Name=MiG-29",
		"#1",
	}, "\n")

	r := New(Dependencies{Dispatcher: d})
	require.NoError(t, r.Replay(context.Background(), tacview.NewFileSource(io.NopCloser(strings.NewReader(recording))), 0))

	st := ctrl.Status()
	assert.Equal(t, 2, st.Air)
	assert.Equal(t, 1, st.Friendly)
	assert.Equal(t, 1, st.Hostile)
	assert.Equal(t, 1.0, st.SimTime)
	assert.Equal(t, "Red Flag", ctrl.Mission().Title())

	assert.Equal(t, "Viper 1-1, VECTOR 090, 20 miles.", ctrl.HandleText("Viper 1-1 snap"))
}

func TestStop_InterruptsSlowDial(t *testing.T) {
	ctrl := &fakeController{}
	dialing := make(chan struct{})
	r := New(Dependencies{
		Dispatcher: newDispatcher(t, nil),
		Controller: ctrl,
		Dial: func(ctx context.Context, _ Options) (tacview.LineSource, error) {
			close(dialing)
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})

	errCh := make(chan error, 1)
	go func() { errCh <- r.Start(context.Background(), Options{Host: "h", Port: 1}) }()
	<-dialing

	assert.ErrorIs(t, r.Start(context.Background(), Options{}), ErrAlreadyRunning)

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked behind the dial")
	}

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
	assert.False(t, r.Connected())
	assert.Zero(t, ctrl.resets)
}

func TestStop_DialSucceedsAfterStop(t *testing.T) {
	src := newChanSource()
	release := make(chan struct{})
	dialing := make(chan struct{})
	r := New(Dependencies{
		Dispatcher: newDispatcher(t, nil),
		Dial: func(context.Context, Options) (tacview.LineSource, error) {
			close(dialing)
			<-release
			return src, nil
		},
	})

	errCh := make(chan error, 1)
	go func() { errCh <- r.Start(context.Background(), Options{}) }()
	<-dialing
	r.Stop()
	close(release)

	assert.ErrorIs(t, <-errCh, ErrStopped)
	assert.False(t, r.Connected())
	_, err := src.ReadLine()
	assert.ErrorIs(t, err, net.ErrClosed, "late connection is closed")

	src2 := newChanSource()
	r.deps.Dial = func(context.Context, Options) (tacview.LineSource, error) { return src2, nil }
	require.NoError(t, r.Start(context.Background(), Options{}))
	r.Stop()
}
