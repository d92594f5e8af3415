// Package evolution provides the HTTP client for the upstream Evolution
// API gateway. The gateway is treated as a black box: responses are
// passed through as raw JSON so the proxy never reshapes upstream data.
package evolution

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// Result holds an upstream response: the HTTP status and the raw body.
type Result struct {
	Status int
	Body   json.RawMessage
}

// Client talks to the Evolution gateway. Every request authenticates
// with an Apikey header: the master key for instance creation, the
// per-instance token for everything else.
type Client struct {
	baseURL    string
	logger     waLog.Logger
	httpClient *http.Client
}

// NewClient creates a gateway client for the given base URL
func NewClient(baseURL string, logger waLog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// request sends one request to the gateway and returns the raw response
func (c *Client) request(method, path, apiKey string, body interface{}) (*Result, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Apikey", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorf("Gateway request %s %s failed: %v", method, path, err)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %v", err)
	}

	// Some gateway errors come back as plain text; normalize so the
	// proxy always emits valid JSON.
	if !json.Valid(data) {
		data, _ = json.Marshal(map[string]string{"message": string(data)})
	}

	return &Result{Status: resp.StatusCode, Body: data}, nil
}

// CreateInstance registers a new instance named name with the given
// pre-minted token. Authenticated with the master key.
func (c *Client) CreateInstance(masterKey, name, token string) (*Result, error) {
	return c.request(http.MethodPost, "/instance/create", masterKey, map[string]string{
		"name":  name,
		"token": token,
	})
}

// Status returns the connection status for the instance
func (c *Client) Status(token string) (*Result, error) {
	return c.request(http.MethodGet, "/instance/status", token, nil)
}

// QR returns the current QR payload for the instance
func (c *Client) QR(token string) (*Result, error) {
	return c.request(http.MethodGet, "/instance/qr", token, nil)
}

// Pair requests a numeric pairing code for the given phone number
func (c *Client) Pair(token, phone string) (*Result, error) {
	return c.request(http.MethodPost, "/instance/pair", token, map[string]string{
		"phone": phone,
	})
}

// Disconnect closes the instance's WhatsApp connection
func (c *Client) Disconnect(token string) (*Result, error) {
	return c.request(http.MethodPost, "/instance/disconnect", token, nil)
}

// Logout logs the instance out, discarding its session
func (c *Client) Logout(token string) (*Result, error) {
	return c.request(http.MethodDelete, "/instance/logout", token, nil)
}
