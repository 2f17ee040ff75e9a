package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Status is the provider's view of a submitted run. Unknown is not a provider
// state: it is what the poll loop reports when the provider could not be
// reached.
type Status string

const (
	StatusQueued    Status = "QUEUED"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusUnknown   Status = "UNKNOWN"
)

// Client is an HTTP client for the external video generation provider. It is
// constructed explicitly and passed down; there is no process-wide default.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Model returns the configured provider model identifier.
func (c *Client) Model() string {
	return c.model
}

type SubmitRequest struct {
	SourceVideoURL    string
	CharacterImageURL string
}

type submitPayload struct {
	VideoUrl string `json:"video_url"`
	ImageUrl string `json:"image_url"`
}

type submitResponse struct {
	RequestID string `json:"request_id"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// Result is the payload of a completed run.
type Result struct {
	Video struct {
		Url         string `json:"url"`
		ContentType string `json:"content_type"`
	} `json:"video"`
}

// Submit enqueues a generation run and returns the provider's opaque request
// identifier.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	body, err := json.Marshal(submitPayload{
		VideoUrl: req.SourceVideoURL,
		ImageUrl: req.CharacterImageURL,
	})
	if err != nil {
		return "", fmt.Errorf("encoding submit payload: %w", err)
	}

	var resp submitResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%s", c.baseURL, c.model), bytes.NewReader(body), &resp); err != nil {
		return "", err
	}

	if resp.RequestID == "" {
		return "", &RequestError{StatusCode: http.StatusOK, Body: "submit response missing request_id"}
	}

	return resp.RequestID, nil
}

// PollStatus reports the current state of a run. Transport failures surface
// as errors; the caller decides how to treat them.
func (c *Client) PollStatus(ctx context.Context, runRef string) (Status, error) {
	var resp statusResponse
	url := fmt.Sprintf("%s/%s/requests/%s/status", c.baseURL, c.model, runRef)
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return StatusUnknown, err
	}

	switch resp.Status {
	case "IN_QUEUE", "QUEUED":
		return StatusQueued, nil
	case "IN_PROGRESS", "RUNNING":
		return StatusRunning, nil
	case "COMPLETED", "OK":
		return StatusCompleted, nil
	case "FAILED", "ERROR":
		return StatusFailed, nil
	default:
		return StatusUnknown, nil
	}
}

// FetchResult retrieves the artifact reference of a completed run. It must
// only be called after PollStatus reported completion.
func (c *Client) FetchResult(ctx context.Context, runRef string) (*Result, error) {
	var resp Result
	url := fmt.Sprintf("%s/%s/requests/%s", c.baseURL, c.model, runRef)
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}

	if resp.Video.Url == "" {
		return nil, ErrMissingArtifact
	}

	return &resp, nil
}

// Download streams the produced artifact from the provider's result URL.
// The caller owns closing the reader.
func (c *Client) Download(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("building download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("downloading artifact: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, 0, &RequestError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return resp.Body, resp.ContentLength, nil
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("building provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Key %s", c.apiKey))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling provider: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding provider response: %w", err)
		}
	}

	return nil
}
