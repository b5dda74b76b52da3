// Package uplink forwards every recent-log line to a remote WebSocket
// server, reconnecting with exponential backoff when the link drops.
package uplink

import (
	"log/slog"
	"time"

	"github.com/OpenRadar/awacs/pkg/core"
	"github.com/OpenRadar/awacs/pkg/streaming"
)

// Config holds uplink configuration.
type Config struct {
	URL        string
	Secret     string
	ClientName string
	Mission    func() string
}

// Forwarder streams alerts over WebSocket.
type Forwarder struct {
	conn *connection
	cfg  Config
}

// New creates a forwarder. Start must be called before alerts are sent.
func New(cfg Config, logger *slog.Logger) *Forwarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forwarder{
		conn: newConnection(logger.With("component", "uplink")),
		cfg:  cfg,
	}
}

// Start connects to the server and announces the session.
func (f *Forwarder) Start() error {
	if err := f.conn.dial(f.cfg.URL, f.cfg.Secret); err != nil {
		return err
	}
	return f.hello()
}

// hello sends the session announcement and caches it for reconnect replay.
func (f *Forwarder) hello() error {
	p := streaming.HelloPayload{Client: f.cfg.ClientName}
	if f.cfg.Mission != nil {
		p.Mission = f.cfg.Mission()
	}
	data, err := streaming.Marshal(streaming.TypeHello, p)
	if err != nil {
		return err
	}

	f.conn.mu.Lock()
	f.conn.cachedHello = data
	f.conn.mu.Unlock()

	f.conn.send(data)
	return nil
}

// Send queues an alert. It never blocks; a full queue drops the alert.
func (f *Forwarder) Send(a core.Alert) error {
	data, err := streaming.Marshal(streaming.TypeAlert, a)
	if err != nil {
		return err
	}
	f.conn.send(data)
	return nil
}

// Connected reports whether the link is currently up.
func (f *Forwarder) Connected() bool {
	return f.conn.connected()
}

// Close disconnects from the server.
func (f *Forwarder) Close() error {
	return f.conn.close()
}

// setBackoff shortens reconnect timing, for tests.
func (f *Forwarder) setBackoff(d time.Duration, attempts int) {
	f.conn.backoff = d
	f.conn.maxReconnect = attempts
}
