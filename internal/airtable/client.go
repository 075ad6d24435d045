// Package airtable reads tables from the Airtable REST API.
package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public Airtable API root.
	DefaultBaseURL = "https://api.airtable.com/v0"

	// defaultRateLimit is Airtable's documented per-base limit.
	defaultRateLimit = 5
	defaultTimeout   = 30 * time.Second
	pageSize         = 100
)

// ErrInvalidConfig is returned for missing credentials or base IDs.
var ErrInvalidConfig = errors.New("invalid airtable config")

// Config configures a Client.
type Config struct {
	APIKey            string
	BaseID            string
	BaseURL           string
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// Record is one row: its record ID and raw field values.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// Client is a read-only Airtable client.
type Client struct {
	apiKey     string
	baseURL    string
	baseID     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for one base.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key required", ErrInvalidConfig)
	}
	if cfg.BaseID == "" {
		return nil, fmt.Errorf("%w: base id required", ErrInvalidConfig)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRateLimit
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		baseID:     cfg.BaseID,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// All fetches every record of a table in the client's base, following
// offset pagination.
func (c *Client) All(ctx context.Context, table string) ([]Record, error) {
	return c.AllIn(ctx, c.baseID, table)
}

// AllIn is All against another base reachable with the same key.
func (c *Client) AllIn(ctx context.Context, baseID, table string) ([]Record, error) {
	if baseID == "" {
		baseID = c.baseID
	}
	var (
		records []Record
		offset  string
	)
	for {
		page, err := c.page(ctx, baseID, table, offset)
		if err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

func (c *Client) page(ctx context.Context, baseID, table, offset string) (*listResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("pageSize", fmt.Sprint(pageSize))
	if offset != "" {
		q.Set("offset", offset)
	}
	endpoint := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, url.PathEscape(baseID), url.PathEscape(table), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("listing %s: status %d: %s", table, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page listResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding %s page: %w", table, err)
	}
	return &page, nil
}
