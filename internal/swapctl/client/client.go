// Package client calls a running mediaswap server.
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

	"github.com/abdul-hamid-achik/mediaswap/internal/version"
)

type SwapResult struct {
	Status         string `json:"status"`
	JobID          string `json:"jobId"`
	ResultAssetID  string `json:"resultAssetId"`
	PreviewAssetID string `json:"previewAssetId,omitempty"`
}

// JobError is a structured error response from the server.
type JobError struct {
	StatusCode int    `json:"-"`
	Status     string `json:"status"`
	JobID      string `json:"jobId,omitempty"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

func (e *JobError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

// New returns a client. Jobs can run for minutes, so the timeout is generous.
func New(baseURL, secret string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 30 * time.Minute,
		},
	}
}

func (c *Client) Submit(ctx context.Context, jobID string) (*SwapResult, error) {
	body, err := json.Marshal(map[string]string{"secret": c.secret, "jobId": jobID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/swap-faces", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "swapctl/"+version.Short())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, parseError(resp)
	}

	var result SwapResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var jobErr JobError
	if err := json.Unmarshal(body, &jobErr); err == nil && jobErr.Message != "" {
		jobErr.StatusCode = resp.StatusCode
		return &jobErr
	}
	return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
}
