// Package client calls the relay's command API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Mahendra2603/Robot-Simulator-Project/domain"
)

const DefaultBaseURL = "http://127.0.0.1:5000"

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("relay returned %d: %s", e.StatusCode, e.Message)
}

// CommandResponse echoes the command the relay broadcast.
type CommandResponse struct {
	Status  string         `json:"status"`
	Command domain.Command `json:"command"`
}

type Status struct {
	Status string `json:"status"`
	Peers  int    `json:"peers"`
	Uptime string `json:"uptime"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) MoveRelative(ctx context.Context, turn, distance float64) (*CommandResponse, error) {
	return c.command(ctx, "/move_rel", map[string]float64{"turn": turn, "distance": distance})
}

func (c *Client) MoveAbsolute(ctx context.Context, x, z float64) (*CommandResponse, error) {
	return c.command(ctx, "/move", map[string]float64{"x": x, "z": z})
}

func (c *Client) SetGoal(ctx context.Context, x, z float64) (*CommandResponse, error) {
	return c.command(ctx, "/goal", map[string]float64{"x": x, "z": z})
}

func (c *Client) Stop(ctx context.Context) (*CommandResponse, error) {
	return c.command(ctx, "/stop", nil)
}

func (c *Client) Status(ctx context.Context) (*Status, error) {
	var out Status
	if err := c.do(ctx, http.MethodGet, "/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) command(ctx context.Context, path string, body any) (*CommandResponse, error) {
	var out CommandResponse
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
