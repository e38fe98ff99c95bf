// Package backend is the HTTP JSON client for the NLP maintenance backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/grovert/zabbix-maintenance-assistant/internal/models"
)

// Client talks to the backend's JSON API. Deadlines are caller-supplied via
// context; the client itself sets no global timeout.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// Chat posts one user turn to /chat and returns the raw tagged payload for
// classification.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.postJSON(ctx, "/chat", req, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// CreateMaintenance posts the normalized creation payload. It is never
// retried here or above: the side effect is irreversible.
func (c *Client) CreateMaintenance(ctx context.Context, payload models.CreatePayload) (*models.CreateResult, error) {
	var result models.CreateResult
	if err := c.postJSON(ctx, "/create_maintenance", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health probes the backend's /health endpoint.
func (c *Client) Health(ctx context.Context) (*models.HealthStatus, error) {
	var status models.HealthStatus
	if err := c.getJSON(ctx, "/health", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Templates fetches the routine-maintenance templates.
func (c *Client) Templates(ctx context.Context) (models.TemplateSet, error) {
	var body struct {
		Templates models.TemplateSet `json:"templates"`
	}
	if err := c.getJSON(ctx, "/maintenance/templates", &body); err != nil {
		return nil, err
	}
	return body.Templates, nil
}

// ListMaintenances fetches the existing maintenance entries used for the
// widget's aggregate counters.
func (c *Client) ListMaintenances(ctx context.Context) ([]models.MaintenanceEntry, error) {
	var body struct {
		Maintenances []models.MaintenanceEntry `json:"maintenances"`
	}
	if err := c.getJSON(ctx, "/maintenance/list", &body); err != nil {
		return nil, err
	}
	return body.Maintenances, nil
}

// ---- Helpers ----

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request for %s: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body), out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &NetworkError{Endpoint: path, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &TimeoutError{Endpoint: path}
		}
		return &NetworkError{Endpoint: path, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ServerError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Endpoint: path, Cause: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorMessage extracts the backend's error text from a non-success body.
// An absent or unparsable body degrades to an empty message.
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil {
		return ""
	}
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return ""
	}
	return parsed.Message
}
