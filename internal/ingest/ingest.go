// Package ingest runs the background loop that reads telemetry lines,
// decodes them and routes the events through the dispatcher.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OpenRadar/awacs/internal/acmi"
	"github.com/OpenRadar/awacs/internal/dispatcher"
	"github.com/OpenRadar/awacs/internal/tacview"
	"github.com/OpenRadar/awacs/pkg/core"
)

var (
	// ErrAlreadyRunning is returned by Start while a feed is attached or a
	// dial is in progress.
	ErrAlreadyRunning = errors.New("ingest already running")
	// ErrStopped is returned by Start when Stop interrupts the dial.
	ErrStopped = errors.New("stopped while connecting")
)

// Options selects the telemetry server.
type Options = tacview.Options

// Controller receives connection lifecycle notifications.
type Controller interface {
	Reset()
	SetConnected(bool)
	Log(text string)
}

// DropCounter counts undecodable lines.
type DropCounter interface {
	DroppedLine()
}

// DialFunc opens a telemetry source.
type DialFunc func(ctx context.Context, opts Options) (tacview.LineSource, error)

// Dependencies holds all dependencies for the runner.
type Dependencies struct {
	Dispatcher *dispatcher.Dispatcher
	Controller Controller
	Logger     *slog.Logger
	Drops      DropCounter
	// Dial defaults to tacview.Dial.
	Dial DialFunc
}

// Runner owns at most one live telemetry connection.
type Runner struct {
	deps Dependencies

	mu         sync.Mutex
	running    bool
	dialCancel context.CancelFunc // set while Start is dialing
	dialAbort  bool
	cancel     context.CancelFunc
	src     tacview.LineSource
	done    chan struct{}

	connected atomic.Bool
	lines     atomic.Uint64
	dropped   atomic.Uint64
}

// New creates a runner.
func New(deps Dependencies) *Runner {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Dial == nil {
		deps.Dial = func(ctx context.Context, opts Options) (tacview.LineSource, error) {
			return tacview.Dial(ctx, opts)
		}
	}
	return &Runner{deps: deps}
}

// Start dials the server and starts the read loop. The world model is reset
// before the first line is applied.
func (r *Runner) Start(ctx context.Context, opts Options) error {
	r.mu.Lock()
	if r.running || r.dialCancel != nil {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	dialCtx, cancelDial := context.WithCancel(ctx)
	defer cancelDial()
	r.dialCancel = cancelDial
	r.mu.Unlock()

	// dial without mu so Stop can interrupt a slow connect
	src, err := r.deps.Dial(dialCtx, opts)

	r.mu.Lock()
	defer r.mu.Unlock()
	aborted := r.dialAbort
	r.dialCancel, r.dialAbort = nil, false
	if aborted {
		if src != nil {
			src.Close()
		}
		return fmt.Errorf("connect to %s: %w", opts.Address(), ErrStopped)
	}
	if err != nil {
		return fmt.Errorf("connect to %s: %w", opts.Address(), err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	r.running = true
	r.cancel = cancel
	r.src = src
	r.done = make(chan struct{})

	if c := r.deps.Controller; c != nil {
		c.Reset()
		c.SetConnected(true)
		c.Log(fmt.Sprintf("Connected to %s", opts.Address()))
	}
	r.connected.Store(true)
	r.deps.Logger.Info("Telemetry connected", "address", opts.Address())

	go r.run(loopCtx, src, opts.Address(), r.done)
	return nil
}

func (r *Runner) run(ctx context.Context, src tacview.LineSource, address string, done chan struct{}) {
	defer close(done)

	err := r.pump(ctx, src, 0)
	src.Close()

	switch {
	case ctx.Err() != nil:
		r.deps.Logger.Info("Telemetry stopped", "address", address)
	case err == nil, errors.Is(err, io.EOF):
		r.deps.Logger.Info("Telemetry stream ended", "address", address)
	default:
		r.deps.Logger.Error("Telemetry read failed", "address", address, "error", err)
	}

	r.connected.Store(false)
	if c := r.deps.Controller; c != nil {
		c.SetConnected(false)
		c.Log(fmt.Sprintf("Disconnected from %s", address))
	}

	r.mu.Lock()
	r.cancel()
	r.running = false
	r.src = nil
	r.cancel = nil
	r.mu.Unlock()
}

// Stop closes the transport and waits for the loop to exit. A dial in
// progress is canceled and its Start returns ErrStopped.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.dialCancel != nil {
		r.dialAbort = true
		r.dialCancel()
		r.mu.Unlock()
		return
	}
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.cancel()
	src, done := r.src, r.done
	r.mu.Unlock()

	src.Close()
	<-done
}

// Connected reports whether a live feed is attached.
func (r *Runner) Connected() bool {
	return r.connected.Load()
}

// Stats returns the number of lines read and dropped since the runner was
// created.
func (r *Runner) Stats() (lines, dropped uint64) {
	return r.lines.Load(), r.dropped.Load()
}

// Replay feeds a recording through the same decode and dispatch path as a
// live feed. With pace > 0 the sim clock runs pace times faster than real
// time; 0 replays as fast as possible. It returns nil at end of file.
func (r *Runner) Replay(ctx context.Context, src tacview.LineSource, pace float64) error {
	defer src.Close()
	err := r.pump(ctx, src, pace)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// pump reads until the source fails or ctx is done.
func (r *Runner) pump(ctx context.Context, src tacview.LineSource, pace float64) error {
	dec := acmi.NewDecoder()
	last, haveLast := 0.0, false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := src.ReadLine()
		if err != nil {
			return err
		}
		r.lines.Add(1)

		ev, ok, err := dec.Decode(line)
		if err != nil {
			r.dropped.Add(1)
			if r.deps.Drops != nil {
				r.deps.Drops.DroppedLine()
			}
			r.deps.Logger.Debug("Dropped telemetry line", "error", err)
			continue
		}
		if !ok {
			continue
		}

		if pace > 0 && ev.Kind == core.EventTime {
			if haveLast && ev.Time > last {
				wait := time.Duration((ev.Time - last) / pace * float64(time.Second))
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(wait):
				}
			}
			last, haveLast = ev.Time, true
		}

		if _, err := r.deps.Dispatcher.Dispatch(dispatcher.Event{
			Command:   string(ev.Kind),
			Payload:   ev,
			SimTime:   ev.Time,
			Timestamp: time.Now(),
		}); err != nil {
			r.deps.Logger.Debug("Telemetry event not applied", "kind", ev.Kind, "error", err)
		}
	}
}
