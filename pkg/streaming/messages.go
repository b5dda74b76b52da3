package streaming

import (
	"encoding/json"
	"fmt"

	"github.com/OpenRadar/awacs/pkg/core"
)

// Message type constants for the alert stream.
const (
	TypeHello  = "hello"
	TypeAlert  = "alert"
	TypeStatus = "status"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is a remote server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// HelloPayload announces the session to an uplink server after every
// (re)connect.
type HelloPayload struct {
	Client  string `json:"client"`
	Mission string `json:"mission"`
}

// AlertPayload carries one recent-log line.
type AlertPayload = core.Alert

// Marshal builds a JSON-encoded Envelope from a message type and payload.
func Marshal(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}
