package httpapi

import (
	"github.com/OpenRadar/awacs/internal/awacs"
	"github.com/OpenRadar/awacs/pkg/core"
)

// StateResponse is returned by GET /api/state.
type StateResponse struct {
	Status      awacs.Status `json:"status"`
	Log         []core.Alert `json:"log"`
	WeaponsFree bool         `json:"weapons_free"`
}

// CommandRequest is the body of POST /api/command.
type CommandRequest struct {
	Text string `json:"text"`
}

// CommandResponse carries the radio reply.
type CommandResponse struct {
	OK    bool   `json:"ok"`
	Reply string `json:"reply"`
}

// ConnectRequest is the body of POST /api/connect. Omitted fields fall back
// to the tacview config section.
type ConnectRequest struct {
	Host     *string `json:"host,omitempty"`
	Port     *int    `json:"port,omitempty"`
	Password *string `json:"password,omitempty"`
}

// ConfigRequest is the body of POST /api/config.
type ConfigRequest struct {
	WeaponsFree *bool `json:"weapons_free"`
}

// ConfigResponse reports the runtime settings.
type ConfigResponse struct {
	WeaponsFree bool `json:"weapons_free"`
}

// LogResponse is returned by GET /api/log.
type LogResponse struct {
	Lines []core.Alert `json:"lines"`
}

// OKResponse acknowledges a control request.
type OKResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// HealthResponse is returned by GET /healthcheck.
type HealthResponse struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
}
