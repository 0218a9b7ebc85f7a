// Package todoist is the REST client for the to-do service plus the
// process-wide project directory cache.
package todoist

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

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.todoist.com/rest/v2"

	// PlaceholderContent substitutes blank transcripts; tasks must carry
	// non-empty content.
	PlaceholderContent = "(empty transcription)"
)

// ErrNoToken means the API credential is not configured. A configuration
// error, not a transient one.
var ErrNoToken = errors.New("todoist api token not configured")

// StatusError carries a non-2xx response status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("todoist replied with status %d", e.Code)
}

type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Task struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Logger:     logger,
	}
}

// Projects lists the account's projects.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	if c.Token == "" {
		return nil, ErrNoToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/projects", nil)
	if err != nil {
		return nil, fmt.Errorf("create projects request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch projects: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.logBody("fetching todoist projects failed", resp)
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var projects []Project
	if err := json.NewDecoder(resp.Body).Decode(&projects); err != nil {
		return nil, fmt.Errorf("unexpected projects response format: %w", err)
	}
	return projects, nil
}

// CreateTask posts content as a new task. projectID is included only when
// present; its absence lets the service pick its own default project.
func (c *Client) CreateTask(ctx context.Context, content, projectID string) (*Task, error) {
	if c.Token == "" {
		return nil, ErrNoToken
	}

	payload := map[string]string{"content": strings.TrimSpace(content)}
	if payload["content"] == "" {
		payload["content"] = PlaceholderContent
	}
	if projectID != "" {
		payload["project_id"] = projectID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode task payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/tasks", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create task request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.logBody("creating todoist task failed", resp)
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var task Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, fmt.Errorf("decode task response: %w", err)
	}
	return &task, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")
}

func (c *Client) logBody(msg string, resp *http.Response) {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	c.Logger.Error(msg,
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", body))
}
