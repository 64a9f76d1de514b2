package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	cleanhttp "github.com/hashicorp/go-cleanhttp"

	taskforgeerrors "github.com/taskforge-dev/taskforge/internal/errors"
)

// maxStatusBatch is the platform's page-size limit for a single
// get_task_statuses call; HTTPClient.GetTaskStatuses concatenates results
// across as many pages as needed.
const maxStatusBatch = 100

// HTTPClient is a PlatformClient implementation over a JSON/HTTP API. It is
// a default, swappable implementation; the core only ever depends on the
// Client interface.
type HTTPClient struct {
	BaseURL    string
	HTTPClient *http.Client
	// Deadline bounds a single request's retry budget.
	Deadline time.Duration
	// MaxAttempts bounds the exponential-backoff retry policy.
	MaxAttempts uint64
}

// NewHTTPClient builds an HTTPClient with clean transport defaults (no
// env-derived proxies leaking into test runs) and a sane retry policy.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL:     baseURL,
		HTTPClient:  cleanhttp.DefaultClient(),
		Deadline:    30 * time.Second,
		MaxAttempts: 5,
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	if c.Deadline > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.Deadline)
		defer cancel()
	}

	var buf []byte

	if body != nil {
		var err error

		buf, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	op := func() error {
		// A fresh reader per attempt: a retried request must re-send the
		// whole body.
		var reader io.Reader
		if buf != nil {
			reader = bytes.NewReader(buf)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
		if err != nil {
			return backoff.Permanent(err)
		}

		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return err // retryable: network error
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("platform returned %d", resp.StatusCode)
		}

		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("platform returned %d", resp.StatusCode))
		}

		if out == nil {
			return nil
		}

		return backoff.Permanent(json.NewDecoder(resp.Body).Decode(out))
	}

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.MaxAttempts)
	bctx := backoff.WithContext(b, ctx)

	if err := backoff.Retry(op, bctx); err != nil {
		return &taskforgeerrors.PlatformError{Op: method + " " + path, Cause: err}
	}

	return nil
}

func (c *HTTPClient) FindTaskByIndex(ctx context.Context, indexPath string) (string, bool, error) {
	var out struct {
		TaskID string `json:"taskId"`
		Found  bool   `json:"found"`
	}

	if err := c.do(ctx, http.MethodGet, "/index/"+indexPath, nil, &out); err != nil {
		return "", false, err
	}

	return out.TaskID, out.Found, nil
}

func (c *HTTPClient) GetTaskStatuses(ctx context.Context, taskIDs []string) (map[string]TaskStatus, error) {
	result := make(map[string]TaskStatus, len(taskIDs))

	for start := 0; start < len(taskIDs); start += maxStatusBatch {
		end := start + maxStatusBatch
		if end > len(taskIDs) {
			end = len(taskIDs)
		}

		var out struct {
			Statuses map[string]TaskStatus `json:"statuses"`
		}

		if err := c.do(ctx, http.MethodPost, "/task-status", map[string]interface{}{"taskIds": taskIDs[start:end]}, &out); err != nil {
			return nil, err
		}

		for k, v := range out.Statuses {
			result[k] = v
		}
	}

	return result, nil
}

func (c *HTTPClient) GetArtifact(ctx context.Context, taskID, name string) ([]byte, error) {
	var out []byte

	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/task/%s/artifacts/%s", taskID, name), nil, &out)

	return out, err
}

func (c *HTTPClient) CreateTasks(ctx context.Context, tasks map[string]TaskDefinition, rootTaskID string) error {
	return c.do(ctx, http.MethodPost, "/tasks", map[string]interface{}{
		"tasks":      tasks,
		"rootTaskId": rootTaskID,
	}, nil)
}
