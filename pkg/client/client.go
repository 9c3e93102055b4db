// Package client is a typed HTTP client for the StageLights control API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fixture mirrors the engine's fixture resource.
type Fixture struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Universe      int    `json:"universe"`
	StartChannel  int    `json:"startChannel"`
	ChannelCount  int    `json:"channelCount"`
	CustomOffsets []int  `json:"customOffsets,omitempty"`
	RDMUID        string `json:"rdmUid,omitempty"`
	RDMCapable    bool   `json:"rdmCapable"`
}

// Node mirrors a discovered Art-Net node.
type Node struct {
	IP         string `json:"ip"`
	Name       string `json:"name"`
	LongName   string `json:"longName"`
	NumOutputs int    `json:"numOutputs"`
}

// RDMDevice mirrors an entry in the engine's RDM cache.
type RDMDevice struct {
	UID          string `json:"uid"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Universe     int    `json:"universe"`
	StartChannel int    `json:"startChannel"`
	ChannelCount int    `json:"channelCount"`
	Online       bool   `json:"online"`
	VirtualID    int    `json:"virtualId"`
}

// Client talks to one engine instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the engine at baseURL (e.g. http://localhost:4000).
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type apiError struct {
	Error string `json:"error"`
}

// do issues a request and decodes the response into out (if non-nil).
// Non-2xx responses become errors carrying the server's message.
func (c *Client) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		var apiErr apiError
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// ListFixtures returns all registered fixtures.
func (c *Client) ListFixtures() ([]Fixture, error) {
	var fixtures []Fixture
	err := c.do(http.MethodGet, "/api/fixtures", nil, &fixtures)
	return fixtures, err
}

// RegisterFixture registers a fixture and returns it with derived fields
// filled in.
func (c *Client) RegisterFixture(f Fixture) (Fixture, error) {
	var created Fixture
	err := c.do(http.MethodPost, "/api/fixtures", f, &created)
	return created, err
}

// UnregisterFixture removes a fixture by virtual ID.
func (c *Client) UnregisterFixture(id int) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/api/fixtures/%d", id), nil, nil)
}

// SetIntensity sets a fixture's dim level (0.0-1.0).
func (c *Client) SetIntensity(id int, intensity float64) error {
	body := map[string]float64{"intensity": intensity}
	return c.do(http.MethodPost, fmt.Sprintf("/api/fixtures/%d/intensity", id), body, nil)
}

// SetColor sets a fixture's RGBW color (components 0.0-1.0).
func (c *Client) SetColor(id int, r, g, b, w float64) error {
	body := map[string]float64{"r": r, "g": g, "b": b, "w": w}
	return c.do(http.MethodPost, fmt.Sprintf("/api/fixtures/%d/color", id), body, nil)
}

// SetChannel writes a raw value at a 0-based offset within the fixture.
func (c *Client) SetChannel(id, offset int, value byte) error {
	body := map[string]int{"offset": offset, "value": int(value)}
	return c.do(http.MethodPost, fmt.Sprintf("/api/fixtures/%d/channel", id), body, nil)
}

// StartFade fades a fixture's intensity to target over duration seconds.
func (c *Client) StartFade(id int, target, duration float64) error {
	body := map[string]float64{"target": target, "duration": duration}
	return c.do(http.MethodPost, fmt.Sprintf("/api/fixtures/%d/fade", id), body, nil)
}

// AllOff blacks out every registered fixture.
func (c *Client) AllOff() error {
	return c.do(http.MethodPost, "/api/all-off", nil, nil)
}

// ListNodes returns the discovered Art-Net nodes.
func (c *Client) ListNodes() ([]Node, error) {
	var nodes []Node
	err := c.do(http.MethodGet, "/api/nodes", nil, &nodes)
	return nodes, err
}

// ListRDMDevices returns the engine's RDM device cache.
func (c *Client) ListRDMDevices() ([]RDMDevice, error) {
	var devices []RDMDevice
	err := c.do(http.MethodGet, "/api/rdm/devices", nil, &devices)
	return devices, err
}
