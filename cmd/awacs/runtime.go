package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/OpenRadar/awacs/internal/awacs"
	"github.com/OpenRadar/awacs/internal/config"
	"github.com/OpenRadar/awacs/internal/dispatcher"
	"github.com/OpenRadar/awacs/internal/ingest"
	"github.com/OpenRadar/awacs/internal/journal"
	"github.com/OpenRadar/awacs/internal/logging"
	"github.com/OpenRadar/awacs/internal/observability"
	intOtel "github.com/OpenRadar/awacs/internal/otel"
	"github.com/OpenRadar/awacs/internal/uplink"
	"github.com/OpenRadar/awacs/internal/worker"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const appName = "awacs"

// runtime is everything one session needs: logging, the controller and the
// event plumbing around it. serve and replay both build one.
type runtime struct {
	sessionStart time.Time
	logsDir      string

	slogManager *logging.SlogManager
	logger      *slog.Logger
	dbLogger    zerolog.Logger
	closers     []io.Closer
	otel        *intOtel.Provider

	ctrl       *awacs.Controller
	dispatcher *dispatcher.Dispatcher
	journal    journal.Backend
	uplink     *uplink.Forwarder
	workers    *worker.Manager
	metrics    *observability.Collector
	feed       *ingest.Runner
}

func newRuntime(console io.Writer) (*runtime, error) {
	rt := &runtime{
		sessionStart: time.Now(),
		logsDir:      viper.GetString("logsDir"),
	}
	if err := rt.setupLogging(console); err != nil {
		return nil, err
	}
	if configErr != nil {
		rt.logger.Warn("Failed to load config, using defaults!", "error", configErr)
	} else {
		rt.logger.Info("Loaded config", "file", viper.ConfigFileUsed())
	}

	if err := rt.setupController(); err != nil {
		rt.close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) setupLogging(console io.Writer) error {
	if err := os.MkdirAll(rt.logsDir, 0755); err != nil {
		return fmt.Errorf("create logs dir: %w", err)
	}
	logPath := logging.LogFilePath(rt.logsDir, appName, rt.sessionStart)
	logFile := logging.NewRotatingFile(logPath)
	rt.closers = append(rt.closers, logFile)

	cfg := logging.Config{
		Level:   viper.GetString("logLevel"),
		Console: console,
		File:    logFile,
		Context: func() []slog.Attr {
			if rt.ctrl == nil {
				return nil
			}
			return rt.ctrl.LogContext()
		},
	}

	rt.slogManager = logging.NewSlogManager()
	rt.slogManager.Setup(cfg)
	rt.logger = rt.slogManager.Logger()

	var graylogErr error
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGraylogWriter(gl.Address)
		if err != nil {
			graylogErr = err
		} else {
			cfg.Graylog = w
			rt.closers = append(rt.closers, w)
		}
	}

	provider, err := intOtel.New(intOtel.FromConfig(config.GetOTelConfig(), logFile))
	if err != nil {
		rt.logger.Error("Failed to initialize OTel provider", "error", err)
	} else if provider.Enabled() {
		rt.otel = provider
		cfg.Provider = provider.LoggerProvider()
	}

	// re-setup with the optional sinks attached
	if cfg.Graylog != nil || cfg.Provider != nil {
		rt.slogManager.Setup(cfg)
		rt.logger = rt.slogManager.Logger()
	}
	if graylogErr != nil {
		rt.logger.Error("Graylog disabled", "error", graylogErr)
	}
	rt.logger.Info("Logging to file", "path", logPath)

	rt.dbLogger = zerolog.New(logFile).With().Timestamp().Str("component", "database").Logger()
	return nil
}

func (rt *runtime) setupController() error {
	opts, err := awacs.OptionsFromConfig(config.GetAWACSConfig())
	if err != nil {
		return err
	}
	rt.ctrl, err = awacs.New(opts, rt.logger)
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}

	rt.metrics, err = observability.NewCollector(nil)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	rt.dispatcher, err = dispatcher.New(logging.NewDispatcherLogger(rt.logger))
	if err != nil {
		return fmt.Errorf("create dispatcher: %w", err)
	}

	tv := config.GetTacviewConfig()
	storageCfg := config.GetStorageConfig()
	rt.journal, err = journal.NewBackend(storageCfg, journal.Dependencies{
		ClientName: tv.ClientName,
		Capacity:   opts.LogCapacity,
		Mission:    rt.ctrl.Mission(),
		Logger:     rt.logger,
		DBLogger:   rt.dbLogger,
	})
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	if err := rt.journal.Init(); err != nil {
		return fmt.Errorf("init journal: %w", err)
	}
	rt.logger.Info("Journal initialized", "type", storageCfg.Type)

	var up worker.AlertSender
	if ul := config.GetUplinkConfig(); ul.URL != "" {
		f := uplink.New(uplink.Config{
			URL:        ul.URL,
			Secret:     ul.Secret,
			ClientName: tv.ClientName,
			Mission:    rt.ctrl.Mission().Title,
		}, rt.logger)
		if err := f.Start(); err != nil {
			rt.logger.Warn("Uplink unavailable, alerts stay local", "url", ul.URL, "error", err)
		} else {
			rt.uplink = f
			up = f
			rt.logger.Info("Uplink connected", "url", ul.URL)
		}
	}

	rt.workers = worker.NewManager(worker.Dependencies{
		Applier: rt.ctrl,
		Journal: rt.journal,
		Uplink:  up,
		Logger:  rt.logger,
	})
	rt.workers.RegisterHandlers(rt.dispatcher)
	rt.ctrl.Subscribe(rt.workers.AlertSink(rt.dispatcher))
	rt.ctrl.Subscribe(rt.metrics.ObserveAlert)

	rt.feed = ingest.New(ingest.Dependencies{
		Dispatcher: rt.dispatcher,
		Controller: rt.ctrl,
		Logger:     rt.logger,
		Drops:      rt.metrics,
	})
	return nil
}

// close stops the feed, drains queued alerts into the journal and flushes
// every log sink.
func (rt *runtime) close() {
	if rt.feed != nil {
		rt.feed.Stop()
	}
	if rt.dispatcher != nil {
		rt.dispatcher.Close()
	}
	if rt.uplink != nil {
		if err := rt.uplink.Close(); err != nil {
			rt.logger.Warn("Closing uplink", "error", err)
		}
	}
	if rt.journal != nil {
		if err := rt.journal.Close(); err != nil {
			rt.logger.Error("Closing journal", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if rt.slogManager != nil {
		_ = rt.slogManager.Flush(ctx)
	}
	if rt.otel != nil {
		if err := rt.otel.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			rt.logger.Warn("OTel shutdown", "error", err)
		}
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		_ = rt.closers[i].Close()
	}
}
