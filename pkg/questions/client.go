package questions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fatwabox/internal/constants"
	"fatwabox/internal/errors"
	"fatwabox/internal/models"
)

// Client posts questions to a PostgREST-style table endpoint.
type Client struct {
	baseURL string
	apiKey  string
	table   string
	client  *http.Client
}

// NewClient creates a Submitter for the configured remote endpoint.
func NewClient(cfg models.RemoteConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(constants.DefaultHTTPTimeoutSec) * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		table:   cfg.Table,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) tableURL() string {
	return fmt.Sprintf("%s/rest/v1/%s", c.baseURL, c.table)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// Submit inserts a question into the remote table. The insert is only
// considered delivered when the remote returns a success status.
func (c *Client) Submit(ctx context.Context, category, questionText string) error {
	payload := submitPayload{
		Category:     category,
		QuestionText: questionText,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tableURL(), bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.NewRemoteError(c.tableURL(), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.NewRemoteError(c.tableURL(), resp.StatusCode,
			fmt.Errorf("insert failed with status %d: %s", resp.StatusCode, string(body)))
	}

	return nil
}

// Ping performs a lightweight reachability probe against the remote table.
func (c *Client) Ping(ctx context.Context) error {
	url := c.tableURL() + "?select=id&limit=1"

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.NewRemoteError(url, 0, err)
	}
	defer resp.Body.Close()

	// Auth errors still prove the service is reachable, but they will
	// never let a flush succeed, so treat them as unreachable too.
	if resp.StatusCode >= 400 {
		return errors.NewRemoteError(url, resp.StatusCode,
			fmt.Errorf("probe failed with status %d", resp.StatusCode))
	}

	return nil
}
