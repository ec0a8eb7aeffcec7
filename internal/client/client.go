// Package client is a small HTTP client for the TaskFlow API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taskflow-backend/internal/sweep"
	"taskflow-backend/internal/tasks"
)

var ErrUnauthorized = errors.New("not logged in or session expired")

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) SetToken(token string) { c.token = token }

// Login exchanges credentials for a session token and keeps it for later
// calls.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return "", err
	}
	c.token = resp.Token
	return resp.Token, nil
}

func (c *Client) Tasks(ctx context.Context) ([]tasks.TaskView, error) {
	var out []tasks.TaskView
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TaskTime runs a timer action ("start", "complete" or "add") on a task.
func (c *Client) TaskTime(ctx context.Context, id, action string, seconds int64) (tasks.TaskView, error) {
	var out tasks.TaskView
	body := map[string]any{"action": action, "seconds": seconds}
	err := c.do(ctx, http.MethodPost, "/api/tasks/"+id+"/time", body, &out)
	return out, err
}

// CheckTime asks the server to sweep the user's tasks for notifications.
func (c *Client) CheckTime(ctx context.Context) (sweep.Result, error) {
	var out struct {
		Result sweep.Result `json:"result"`
	}
	err := c.do(ctx, http.MethodPost, "/api/tasks/check-time", nil, &out)
	return out.Result, err
}

// TimerAlert reports that the local two-minute alert fired for taskIDs.
func (c *Client) TimerAlert(ctx context.Context, taskIDs []string) error {
	return c.do(ctx, http.MethodPost, "/api/analytics/timer-alert", map[string]any{"task_ids": taskIDs}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Platform", "cli")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d on %s %s", resp.StatusCode, method, path)
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}
	return nil
}
