package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client asks a running daemon over its chat endpoint.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the daemon at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Query string `json:"query"`
}

type chatError struct {
	Error string `json:"error"`
}

// Answer posts q to /api/chat.
func (c *Client) Answer(ctx context.Context, q string) (*Answer, error) {
	body, err := json.Marshal(chatRequest{Query: q})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e chatError
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if resp.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %s", ErrEmptyQuery, e.Error)
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrAnswerFailed, resp.StatusCode, e.Error)
	}

	var answer Answer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &answer, nil
}

var (
	_ Answerer = (*Pipeline)(nil)
	_ Answerer = (*Client)(nil)
)
