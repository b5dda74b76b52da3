// Package gormjournal persists the journal through GORM, to SQLite or
// PostgreSQL, with an internal write queue and a background writer goroutine.
package gormjournal

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OpenRadar/awacs/internal/database"
	"github.com/OpenRadar/awacs/internal/mission"
	"github.com/OpenRadar/awacs/internal/model"
	"github.com/OpenRadar/awacs/internal/model/convert"
	"github.com/OpenRadar/awacs/internal/queue"
	"github.com/OpenRadar/awacs/pkg/core"
)

const defaultFlushInterval = 2 * time.Second

// Dependencies holds all dependencies for the GORM journal backend.
type Dependencies struct {
	DB            *database.Manager
	Mission       *mission.Context
	Logger        *slog.Logger
	FlushInterval time.Duration
	BatchSize     int
}

// Backend writes journal lines in batches.
type Backend struct {
	deps      Dependencies
	pending   *queue.Queue[model.JournalEntry]
	sessionID atomic.Uint64
	lastWrite atomic.Int64 // nanoseconds

	writeMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new GORM journal backend. The database must already be
// connected and migrated.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Mission == nil {
		deps.Mission = mission.NewContext()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = defaultFlushInterval
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = 500
	}
	deps.Logger = deps.Logger.With("component", "journal")
	return &Backend{
		deps:    deps,
		pending: queue.New[model.JournalEntry](),
	}
}

// Init opens a session row and starts the writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil || b.deps.DB.DB == nil {
		return fmt.Errorf("journal database not connected")
	}

	session := model.Session{
		StartedAt:    time.Now().UTC(),
		MissionTitle: b.deps.Mission.Title(),
	}
	if err := b.deps.DB.DB.Create(&session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.sessionID.Store(uint64(session.ID))

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writeLoop()

	b.deps.Logger.Info("Journal session started", "sessionId", session.ID)
	return nil
}

// SessionID returns the row id of the current session.
func (b *Backend) SessionID() uint {
	return uint(b.sessionID.Load())
}

// Record converts a line and queues it for the writer.
func (b *Backend) Record(a core.Alert) error {
	meta := map[string]string{}
	if title, ok := b.deps.Mission.Get(mission.KeyTitle); ok {
		meta["mission"] = title
	}
	b.pending.Push(convert.CoreToJournalEntry(a, b.SessionID(), meta))
	return nil
}

// Recent flushes pending lines and returns the newest limit lines of the
// current session, oldest first. limit <= 0 returns all.
func (b *Backend) Recent(limit int) ([]core.Alert, error) {
	if err := b.flush(); err != nil {
		return nil, err
	}

	var rows []model.JournalEntry
	q := b.deps.DB.DB.Where("session_id = ?", b.SessionID()).Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}

	out := make([]core.Alert, len(rows))
	for i, row := range rows {
		out[len(rows)-1-i] = convert.JournalEntryToCore(row)
	}
	return out, nil
}

// GetLastDBWriteDuration returns the duration of the last batch write.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	return time.Duration(b.lastWrite.Load())
}

// Pending returns the number of lines waiting for the writer.
func (b *Backend) Pending() int {
	return b.pending.Len()
}

// Close stops the writer, flushes what is left, stamps the session end and
// closes the database.
func (b *Backend) Close() error {
	var err error
	b.stopOnce.Do(func() {
		if b.stopChan != nil {
			close(b.stopChan)
			<-b.done
		}
		if ferr := b.flush(); ferr != nil {
			err = ferr
		}
		if id := b.SessionID(); id != 0 {
			now := time.Now().UTC()
			b.deps.DB.DB.Model(&model.Session{}).Where("id = ?", id).Update("ended_at", now)
		}
		if cerr := b.deps.DB.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}

func (b *Backend) writeLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.flush(); err != nil {
				b.deps.Logger.Error("Failed to write journal batch", "error", err)
			}
		}
	}
}

func (b *Backend) flush() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	items := b.pending.GetAndEmpty()
	if len(items) == 0 {
		return nil
	}

	start := time.Now()
	if err := b.deps.DB.DB.CreateInBatches(items, b.deps.BatchSize).Error; err != nil {
		return fmt.Errorf("failed to insert %d journal entries: %w", len(items), err)
	}
	b.lastWrite.Store(int64(time.Since(start)))
	b.deps.Logger.Debug("Wrote journal batch", "count", len(items), "duration", time.Since(start))
	return nil
}
