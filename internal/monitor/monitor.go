package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/OpenRadar/awacs/internal/awacs"
	"github.com/OpenRadar/awacs/internal/observability"
)

// StatusWriter persists a status sample, e.g. as an influx point.
type StatusWriter interface {
	WriteStatus(st awacs.Status, at time.Time) error
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Status     func() awacs.Status
	Influx     StatusWriter
	Metrics    *observability.Collector
	Publish    func(awacs.Status)
	WriteTimer interface{ GetLastDBWriteDuration() time.Duration }
	StatusFile string
	Interval   time.Duration
	Logger     *slog.Logger
}

// Snapshot is what the status file holds.
type Snapshot struct {
	Time                time.Time    `json:"time"`
	Status              awacs.Status `json:"status"`
	LastWriteDurationMs float64      `json:"lastWriteDurationMs"`
}

// Service samples controller status on an interval.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
	now       func() time.Time
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Sample takes one status sample and fans it out to every configured sink.
func (s *Service) Sample() (Snapshot, error) {
	snap := Snapshot{
		Time:   s.now().UTC(),
		Status: s.deps.Status(),
	}
	if s.deps.WriteTimer != nil {
		snap.LastWriteDurationMs = float64(s.deps.WriteTimer.GetLastDBWriteDuration().Microseconds()) / 1000
		s.deps.Metrics.SetJournalWriteDuration(s.deps.WriteTimer.GetLastDBWriteDuration())
	}

	s.deps.Metrics.SetStatus(snap.Status)
	if s.deps.Publish != nil {
		s.deps.Publish(snap.Status)
	}

	var firstErr error
	if s.deps.StatusFile != "" {
		if err := writeStatusFile(s.deps.StatusFile, snap); err != nil {
			firstErr = err
		}
	}
	if s.deps.Influx != nil {
		if err := s.deps.Influx.WriteStatus(snap.Status, snap.Time); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("influx write: %w", err)
		}
	}
	return snap, firstErr
}

func writeStatusFile(path string, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	// write-then-rename so readers never see a truncated file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write status file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace status file: %w", err)
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if _, err := s.Sample(); err != nil {
					logger.Error("Status sample failed", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for the goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.isRunning = false
	s.mu.Unlock()
	<-done
}
