// internal/api/client.go
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/OpenRadar/awacs/internal/httpapi"
)

// Client talks to a running controller's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Healthcheck checks if the controller is reachable.
func (c *Client) Healthcheck() (httpapi.HealthResponse, error) {
	var out httpapi.HealthResponse
	resp, err := c.httpClient.Get(c.baseURL + "/healthcheck")
	if err != nil {
		return out, fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode healthcheck: %w", err)
	}
	return out, nil
}

// State fetches the status summary and the most recent log lines.
func (c *Client) State() (httpapi.StateResponse, error) {
	var out httpapi.StateResponse
	err := c.do(http.MethodGet, "/api/state", nil, &out)
	return out, err
}

// Ask sends one radio command and returns the controller's reply.
func (c *Client) Ask(text string) (string, error) {
	var out httpapi.CommandResponse
	if err := c.do(http.MethodPost, "/api/command", httpapi.CommandRequest{Text: text}, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

// Connect asks the controller to open its telemetry feed. Nil fields use
// the server's configured defaults.
func (c *Client) Connect(req httpapi.ConnectRequest) error {
	var out httpapi.OKResponse
	return c.do(http.MethodPost, "/api/connect", req, &out)
}

// Disconnect closes the controller's telemetry feed.
func (c *Client) Disconnect() error {
	var out httpapi.OKResponse
	return c.do(http.MethodPost, "/api/disconnect", struct{}{}, &out)
}

// SetWeaponsFree toggles the weapons-free setting and returns the new value.
func (c *Client) SetWeaponsFree(v bool) (bool, error) {
	var out httpapi.ConfigResponse
	err := c.do(http.MethodPost, "/api/config", httpapi.ConfigRequest{WeaponsFree: &v}, &out)
	return out.WeaponsFree, err
}

// Log fetches up to limit recent log lines; 0 uses the server default.
func (c *Client) Log(limit int) (httpapi.LogResponse, error) {
	var out httpapi.LogResponse
	path := "/api/log"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	err := c.do(http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// statusError pulls the most useful message out of an error response.
func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil {
		switch {
		case payload.Message != "":
			return fmt.Errorf("server returned status %d: %s", resp.StatusCode, payload.Message)
		case payload.Error != "":
			return fmt.Errorf("server returned status %d: %s", resp.StatusCode, payload.Error)
		}
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}
