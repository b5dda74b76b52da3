// Package httpapi serves the controller's HTTP surface: state, commands,
// feed control, the recent log and a live websocket stream.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/OpenRadar/awacs/internal/awacs"
	"github.com/OpenRadar/awacs/internal/command"
	"github.com/OpenRadar/awacs/internal/config"
	"github.com/OpenRadar/awacs/internal/ingest"
	"github.com/OpenRadar/awacs/internal/observability"
	"github.com/OpenRadar/awacs/pkg/core"
	"github.com/OpenRadar/awacs/pkg/streaming"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	stateLogLines   = 50
	defaultLogLimit = 100
	maxBodyBytes    = 64 * 1024
)

// Controller is the part of the AWACS controller the API drives.
type Controller interface {
	Status() awacs.Status
	RecentLog(limit int) []core.Alert
	HandleText(text string) string
	SetWeaponsFree(bool)
	WeaponsFree() bool
	Log(text string)
}

// Feed controls the telemetry connection.
type Feed interface {
	Start(ctx context.Context, opts ingest.Options) error
	Stop()
	Connected() bool
}

// Dependencies holds all dependencies for the API server.
type Dependencies struct {
	Controller     Controller
	Feed           Feed
	Metrics        *observability.Collector
	Logger         *slog.Logger
	Tacview        config.TacviewConfig
	AllowedOrigins []string
}

// Server is the HTTP API.
type Server struct {
	deps   Dependencies
	hub    *hub
	router chi.Router
}

// New builds the router.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if len(deps.AllowedOrigins) == 0 {
		deps.AllowedOrigins = []string{"*"}
	}

	s := &Server{deps: deps}
	s.hub = newHub(deps.Logger, s.checkOrigin)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.deps.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if s.deps.Metrics != nil {
		r.Handle("/metrics", s.deps.Metrics.Handler())
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Get("/healthcheck", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/command", s.handleCommand)
		r.Post("/connect", s.handleConnect)
		r.Post("/disconnect", s.handleDisconnect)
		r.Get("/config", s.handleGetConfig)
		r.Post("/config", s.handlePostConfig)
		r.Get("/log", s.handleLog)
		r.Get("/stream", s.handleStream)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Publish sends one log line to every stream subscriber. It has the
// awacs.Sink shape.
func (s *Server) Publish(a core.Alert) {
	s.broadcast(streaming.TypeAlert, a)
}

// PublishStatus sends a status sample to every stream subscriber.
func (s *Server) PublishStatus(st awacs.Status) {
	s.broadcast(streaming.TypeStatus, st)
}

// Subscribers returns the number of connected stream clients.
func (s *Server) Subscribers() int {
	return s.hub.len()
}

// Close disconnects every stream subscriber.
func (s *Server) Close() {
	s.hub.closeAll()
}

func (s *Server) broadcast(msgType string, payload any) {
	data, err := streaming.Marshal(msgType, payload)
	if err != nil {
		s.deps.Logger.Error("Failed to encode stream message", "type", msgType, "error", err)
		return
	}
	s.hub.broadcast(data)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.deps.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Connected: s.feedConnected()})
}

func (s *Server) feedConnected() bool {
	if s.deps.Feed == nil {
		return false
	}
	return s.deps.Feed.Connected()
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ctrl := s.deps.Controller
	writeJSON(w, http.StatusOK, StateResponse{
		Status:      ctrl.Status(),
		Log:         nonNil(ctrl.RecentLog(stateLogLines)),
		WeaponsFree: ctrl.WeaponsFree(),
	})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	start := time.Now()
	reply := s.deps.Controller.HandleText(text)
	s.deps.Metrics.ObserveCommand(string(command.Parse(text).Kind()), time.Since(start))

	writeJSON(w, http.StatusOK, CommandResponse{OK: true, Reply: reply})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if s.deps.Feed == nil {
		writeError(w, http.StatusServiceUnavailable, "telemetry feed not configured")
		return
	}
	var req ConnectRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tv := s.deps.Tacview
	opts := ingest.Options{
		Host:        tv.Host,
		Port:        tv.Port,
		Password:    tv.Password,
		ClientName:  tv.ClientName,
		DialTimeout: tv.DialTimeout,
	}
	if req.Host != nil {
		opts.Host = *req.Host
	}
	if req.Port != nil {
		opts.Port = *req.Port
	}
	if req.Password != nil {
		opts.Password = *req.Password
	}
	if opts.Host == "" || opts.Port <= 0 || opts.Port > 65535 {
		writeError(w, http.StatusBadRequest, "host and a valid port are required")
		return
	}

	err := s.deps.Feed.Start(r.Context(), opts)
	switch {
	case errors.Is(err, ingest.ErrAlreadyRunning):
		writeJSON(w, http.StatusConflict, OKResponse{OK: false, Error: err.Error()})
	case err != nil:
		s.deps.Logger.Warn("Telemetry connect failed", "address", opts.Address(), "error", err)
		s.deps.Controller.Log(fmt.Sprintf("Connect error: %v", err))
		writeJSON(w, http.StatusBadGateway, OKResponse{OK: false, Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, OKResponse{OK: true})
	}
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if s.deps.Feed != nil {
		s.deps.Feed.Stop()
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ConfigResponse{WeaponsFree: s.deps.Controller.WeaponsFree()})
}

func (s *Server) handlePostConfig(w http.ResponseWriter, r *http.Request) {
	var req ConfigRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.WeaponsFree != nil {
		s.deps.Controller.SetWeaponsFree(*req.WeaponsFree)
		s.deps.Logger.Info("Updated weapons free", "weaponsFree", *req.WeaponsFree)
	}
	writeJSON(w, http.StatusOK, ConfigResponse{WeaponsFree: s.deps.Controller.WeaponsFree()})
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, LogResponse{Lines: nonNil(s.deps.Controller.RecentLog(limit))})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	greeting, err := streaming.Marshal(streaming.TypeStatus, s.deps.Controller.Status())
	if err != nil {
		greeting = nil
	}
	s.hub.serve(w, r, greeting)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func nonNil(lines []core.Alert) []core.Alert {
	if lines == nil {
		return []core.Alert{}
	}
	return lines
}
