package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/OpenRadar/awacs/internal/config"
	"github.com/OpenRadar/awacs/internal/httpapi"
	"github.com/OpenRadar/awacs/internal/influx"
	"github.com/OpenRadar/awacs/internal/ingest"
	"github.com/OpenRadar/awacs/internal/monitor"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the controller and its HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "HTTP listen address (overrides http.listen)")
	serveCmd.Flags().Bool("connect", false, "connect to the telemetry server at startup (overrides tacview.autoConnect)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(os.Stdout)
	if err != nil {
		return err
	}
	defer rt.close()
	logger := rt.logger

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpCfg := config.GetHTTPConfig()
	tv := config.GetTacviewConfig()
	api := httpapi.New(httpapi.Dependencies{
		Controller:     rt.ctrl,
		Feed:           rt.feed,
		Metrics:        rt.metrics,
		Logger:         logger,
		Tacview:        tv,
		AllowedOrigins: httpCfg.AllowedOrigins,
	})
	rt.ctrl.Subscribe(api.Publish)
	defer api.Close()

	im := influx.NewManager(config.GetInfluxConfig(), rt.dbLogger.With().Str("component", "influx").Logger(),
		filepath.Join(rt.logsDir, fmt.Sprintf("%s_influx_%s.lp.gz", appName, rt.sessionStart.Format("20060102_150405"))))
	var statusWriter monitor.StatusWriter
	switch err := im.Connect(); {
	case errors.Is(err, influx.ErrDisabled):
	case err != nil:
		logger.Error("InfluxDB unavailable", "error", err)
	default:
		statusWriter = im
		defer func() {
			if err := im.Close(); err != nil {
				logger.Warn("Closing InfluxDB", "error", err)
			}
		}()
	}

	monCfg := config.GetMonitorConfig()
	mon := monitor.NewService(monitor.Dependencies{
		Status:     rt.ctrl.Status,
		Influx:     statusWriter,
		Metrics:    rt.metrics,
		Publish:    api.PublishStatus,
		WriteTimer: rt.workers,
		StatusFile: monCfg.StatusFile,
		Interval:   monCfg.Interval,
		Logger:     logger,
	})
	if err := mon.Start(); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}
	defer mon.Stop()

	srv := &http.Server{
		Addr:              httpCfg.Listen,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", "address", httpCfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if tv.AutoConnect {
		opts := ingest.Options{
			Host:        tv.Host,
			Port:        tv.Port,
			Password:    tv.Password,
			ClientName:  tv.ClientName,
			DialTimeout: tv.DialTimeout,
		}
		if err := rt.feed.Start(ctx, opts); err != nil {
			logger.Warn("Auto-connect failed", "address", opts.Address(), "error", err)
			rt.ctrl.Log(fmt.Sprintf("Connect error: %v", err))
		}
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err, ok := <-errCh:
		if ok {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	}

	// hijacked websocket connections are not closed by Shutdown
	api.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", "error", err)
	}
	return serveErr
}
