// Package journal persists every recent-log line: unsolicited calls and the
// command/reply transcript.
package journal

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/OpenRadar/awacs/internal/config"
	"github.com/OpenRadar/awacs/internal/database"
	gormjournal "github.com/OpenRadar/awacs/internal/journal/gorm"
	"github.com/OpenRadar/awacs/internal/journal/memory"
	"github.com/OpenRadar/awacs/internal/mission"
	"github.com/OpenRadar/awacs/pkg/core"
	"github.com/rs/zerolog"
)

// Backend is the interface all journal implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	Record(a core.Alert) error
	// Recent returns the newest limit lines, oldest first. limit <= 0 returns all.
	Recent(limit int) ([]core.Alert, error)
}

// WriteDurationProvider is an optional interface that backends can implement
// to expose their last write duration for monitoring.
type WriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// Dependencies holds what the factory needs beyond the storage config.
type Dependencies struct {
	ClientName string
	Capacity   int // memory backend only
	Mission    *mission.Context
	Logger     *slog.Logger
	DBLogger   zerolog.Logger
}

// NewBackend creates a journal backend based on configuration. The returned
// backend is not yet initialized.
func NewBackend(cfg config.StorageConfig, deps Dependencies) (Backend, error) {
	switch cfg.Type {
	case "memory", "":
		return memory.New(deps.Capacity), nil
	case "sqlite", "postgres":
		mgr := database.NewManager(deps.DBLogger)
		if err := mgr.Connect(cfg); err != nil {
			return nil, err
		}
		if err := mgr.Setup(deps.ClientName); err != nil {
			_ = mgr.Close()
			return nil, err
		}
		return gormjournal.New(gormjournal.Dependencies{
			DB:      mgr,
			Mission: deps.Mission,
			Logger:  deps.Logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
