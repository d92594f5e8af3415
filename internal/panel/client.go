// Package panel provides the client for the local proxy surface. It is
// what the wizard and dashboard modes talk to, mirroring how the web UI
// consumes /api/instance endpoints with a bearer token.
package panel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Simplified connection states derived from the gateway's status flags.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// CreateResult is the response from instance creation
type CreateResult struct {
	Name  string `json:"name"`
	Token string `json:"token"`
}

// QRResult is the response from the QR endpoint
type QRResult struct {
	Data struct {
		Qrcode string `json:"Qrcode"`
		Code   string `json:"Code"`
	} `json:"data"`
}

// Client calls the local proxy surface
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a panel client for the given proxy base URL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// request performs one call against the proxy. Non-2xx responses become
// errors carrying the body's message field when present.
func (c *Client) request(method, path, token string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %v", err)
		}
		reader = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.Unmarshal(data, &failure)
		if failure.Message != "" {
			return fmt.Errorf("%s", failure.Message)
		}
		if failure.Error != "" {
			return fmt.Errorf("%s", failure.Error)
		}
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %v", err)
		}
	}
	return nil
}

// CreateInstance creates a new instance and returns its minted token
func (c *Client) CreateInstance(name string) (*CreateResult, error) {
	var result CreateResult
	err := c.request(http.MethodPost, "/api/instance/create", "", map[string]string{"name": name}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Status returns the simplified connection state for the instance.
// The instance counts as connected only when the gateway reports both
// Connected and LoggedIn; missing flags default to disconnected.
func (c *Client) Status(token string) (string, error) {
	var result struct {
		Data struct {
			Connected bool `json:"Connected"`
			LoggedIn  bool `json:"LoggedIn"`
		} `json:"data"`
	}
	if err := c.request(http.MethodGet, "/api/instance/status", token, nil, &result); err != nil {
		return "", err
	}
	if result.Data.Connected && result.Data.LoggedIn {
		return StatusConnected, nil
	}
	return StatusDisconnected, nil
}

// QR returns the current QR payload for the instance
func (c *Client) QR(token string) (*QRResult, error) {
	var result QRResult
	if err := c.request(http.MethodGet, "/api/instance/qr", token, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Pair requests a pairing code. The raw payload is returned untyped so
// callers can dig the code out of whichever shape the gateway used.
func (c *Client) Pair(token, phone string) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := c.request(http.MethodPost, "/api/instance/pair", token, map[string]string{"phone": phone}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Disconnect closes the instance's connection
func (c *Client) Disconnect(token string) error {
	return c.request(http.MethodPost, "/api/instance/disconnect", token, nil, nil)
}

// Logout logs the instance out, discarding its session
func (c *Client) Logout(token string) error {
	return c.request(http.MethodDelete, "/api/instance/logout", token, nil, nil)
}
