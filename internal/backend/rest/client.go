// Package rest implements the service.Service interface against the task REST API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"todoctl/internal/config"
	"todoctl/internal/service"
)

// APITimeout is the default timeout for API calls.
const APITimeout = 5 * time.Second

// Client implements service.Service over HTTP+JSON.
type Client struct {
	hc       *http.Client
	basePath string
	timeout  time.Duration
}

// New creates a client for cfg.APIURL.
// When a token file exists every request carries it as a bearer token.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	hc := &http.Client{}
	if cfg.HasToken() {
		tok, err := cfg.LoadToken()
		if err != nil {
			return nil, err
		}
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))
	}
	c, err := NewWithHTTPClient(cfg.APIURL, hc)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout > 0 {
		c.timeout = cfg.Timeout
	}
	return c, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidAPIURL, baseURL)
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	// ResolveRelative drops the last path segment unless it ends in a slash.
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &Client{hc: hc, basePath: u.String(), timeout: APITimeout}, nil
}

// ListTasks returns every task in server order.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	const op = "list tasks"
	var data []apiTask
	if err := c.do(ctx, op, http.MethodGet, "tasks", nil, nil, &data); err != nil {
		return nil, err
	}
	result := make([]service.Task, 0, len(data))
	for _, t := range data {
		task, err := t.toService()
		if err != nil {
			return nil, malformed(op, err)
		}
		result = append(result, task)
	}
	return result, nil
}

// CreateTask creates a task without a deadline.
func (c *Client) CreateTask(ctx context.Context, text string) (service.Task, error) {
	return c.taskCall(ctx, "create task", http.MethodPost, "tasks", nil,
		createTaskRequest{Text: text})
}

// UpdateTaskText replaces a task's text.
func (c *Client) UpdateTaskText(ctx context.Context, id, text string) (service.Task, error) {
	return c.taskCall(ctx, "update task", http.MethodPut, "tasks/{id}",
		map[string]string{"id": id}, updateTextRequest{Text: text})
}

// UpdateTaskDeadline sets a task's deadline.
func (c *Client) UpdateTaskDeadline(ctx context.Context, id string, deadline time.Time) (service.Task, error) {
	return c.taskCall(ctx, "set deadline", http.MethodPut, "tasks/{id}",
		map[string]string{"id": id}, updateDeadlineRequest{Deadline: service.FormatDeadline(deadline)})
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, "delete task", http.MethodDelete, "tasks/{id}",
		map[string]string{"id": id}, nil, nil)
}

// ToggleTask flips a task's completion flag.
func (c *Client) ToggleTask(ctx context.Context, id string) (service.Task, error) {
	return c.taskCall(ctx, "toggle task", http.MethodPost, "tasks/{id}/toggle-complete",
		map[string]string{"id": id}, nil)
}

// AddSubTask appends an open sub-task.
func (c *Client) AddSubTask(ctx context.Context, taskID, text string) (service.SubTask, error) {
	return c.subTaskCall(ctx, "add sub-task", http.MethodPost, "tasks/{id}/subtasks",
		map[string]string{"id": taskID}, addSubTaskRequest{Text: text})
}

// SetSubTaskCompleted sets a sub-task's completion flag.
func (c *Client) SetSubTaskCompleted(ctx context.Context, taskID, subTaskID string, completed bool) (service.SubTask, error) {
	return c.subTaskCall(ctx, "update sub-task", http.MethodPut, "tasks/{id}/subtasks/{subId}",
		map[string]string{"id": taskID, "subId": subTaskID}, updateSubTaskRequest{Completed: completed})
}

// DeleteSubTask removes a sub-task.
func (c *Client) DeleteSubTask(ctx context.Context, taskID, subTaskID string) error {
	return c.do(ctx, "delete sub-task", http.MethodDelete, "tasks/{id}/subtasks/{subId}",
		map[string]string{"id": taskID, "subId": subTaskID}, nil, nil)
}

func (c *Client) taskCall(ctx context.Context, op, method, path string, params map[string]string, body any) (service.Task, error) {
	var data apiTask
	if err := c.do(ctx, op, method, path, params, body, &data); err != nil {
		return service.Task{}, err
	}
	task, err := data.toService()
	if err != nil {
		return service.Task{}, malformed(op, err)
	}
	return task, nil
}

func (c *Client) subTaskCall(ctx context.Context, op, method, path string, params map[string]string, body any) (service.SubTask, error) {
	var data apiSubTask
	if err := c.do(ctx, op, method, path, params, body, &data); err != nil {
		return service.SubTask{}, err
	}
	st, err := data.toService()
	if err != nil {
		return service.SubTask{}, malformed(op, err)
	}
	return st, nil
}

// do issues one request and decodes the envelope's data into out.
// A nil out means any 2xx is an acknowledgement unless the body is an
// envelope reporting failure.
func (c *Client) do(ctx context.Context, op, method, path string, params map[string]string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(buf)
	}

	urls := googleapi.ResolveRelative(c.basePath, path)
	req, err := http.NewRequestWithContext(ctx, method, urls, reqBody)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	googleapi.Expand(req.URL, params)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return &service.NetworkError{Op: op, Err: err}
	}
	defer googleapi.CloseBody(res)

	if err := googleapi.CheckResponse(res); err != nil {
		return rejected(op, err)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return &service.NetworkError{Op: op, Err: err}
	}
	return decode(op, data, out)
}

func decode(op string, data []byte, out any) error {
	data = bytes.TrimSpace(data)
	if out == nil {
		var env envelope
		if len(data) == 0 || json.Unmarshal(data, &env) != nil {
			return nil
		}
		if env.Status != "" && env.Status != statusSuccess {
			return &service.RejectedError{Op: op, Message: env.Message}
		}
		return nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return malformed(op, err)
	}
	if env.Status != statusSuccess {
		return &service.RejectedError{Op: op, Message: env.Message}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return malformed(op, err)
	}
	return nil
}

// rejected maps a non-2xx response to a RejectedError, preferring the
// envelope's message over the generic status text.
func rejected(op string, err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return &service.RejectedError{Op: op, Message: err.Error()}
	}
	msg := ""
	var env envelope
	if json.Unmarshal([]byte(gerr.Body), &env) == nil {
		msg = env.Message
	}
	if msg == "" {
		msg = gerr.Message
	}
	if msg == "" {
		msg = strings.ToLower(http.StatusText(gerr.Code))
	}
	return &service.RejectedError{Op: op, Code: gerr.Code, Message: msg}
}

func malformed(op string, err error) error {
	return &service.RejectedError{Op: op, Message: fmt.Sprintf("malformed response: %v", err)}
}
