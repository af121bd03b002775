// Package taskapi is an HTTP client for the remote task API.
package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/starford/taskview/internal/apperr"
	"github.com/starford/taskview/internal/models"
	"github.com/starford/taskview/internal/tasklist"
)

const defaultTimeout = 10 * time.Second

// Error is a non-success response from the task API.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("task api: %s (status %d)", e.Message, e.StatusCode)
}

// Unwrap maps the status code onto an apperr sentinel.
func (e *Error) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return apperr.ErrNotFound
	case http.StatusConflict:
		return apperr.ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperr.ErrInvalidInput
	default:
		return apperr.ErrUpstream
	}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client talks to a task API rooted at a base URL.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

var _ tasklist.Source = (*Client)(nil)

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Tasks fetches the task list matching an encoded filter query.
func (c *Client) Tasks(ctx context.Context, query string) ([]models.Task, error) {
	path := "/tasks"
	if query != "" {
		path += "?" + query
	}
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// ListTasks fetches the task list matching filter.
func (c *Client) ListTasks(ctx context.Context, filter tasklist.FilterRequest) ([]models.Task, error) {
	return c.Tasks(ctx, filter.Encode())
}

// Summary fetches the aggregate counters.
func (c *Client) Summary(ctx context.Context) (*models.Summary, error) {
	var s models.Summary
	if err := c.do(ctx, http.MethodGet, "/summary", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateTask submits a new task.
func (c *Client) CreateTask(ctx context.Context, t models.NewTask) error {
	return c.do(ctx, http.MethodPost, "/tasks", t, nil)
}

// CompleteTask marks the task as done.
func (c *Client) CompleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, taskPath(id, "complete"), nil, nil)
}

// DeleteTask removes the task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, taskPath(id, "delete"), nil, nil)
}

// UpdateTask applies a partial update to the task.
func (c *Client) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) error {
	return c.do(ctx, http.MethodPost, taskPath(id, "update"), patch, nil)
}

// Reset restores the API's seed data.
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/reset-db", nil, nil)
}

func taskPath(id int64, action string) string {
	return "/tasks/" + strconv.FormatInt(id, 10) + "/" + action
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(apperr.ErrUpstream, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	c.log.Debug("task api request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{StatusCode: resp.StatusCode, Message: errorMessage(resp, data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// errorMessage prefers the body's error field, then the status text.
func errorMessage(resp *http.Response, data []byte) string {
	var eb errorBody
	if json.Unmarshal(data, &eb) == nil && eb.Error != "" {
		return eb.Error
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return "request failed"
}
