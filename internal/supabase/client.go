// Package supabase is a small PostgREST client for the Supabase REST endpoint.
package supabase

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
)

var (
	// ErrConflict is returned when the store rejects a write on a uniqueness constraint
	ErrConflict        = errors.New("supabase: conflict")
	ErrInvalidResponse = errors.New("supabase: invalid response")
)

// StatusError is returned for any other non-2xx answer
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("supabase returned status %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	URL        string
	ServiceKey string
	Timeout    time.Duration
}

type Client struct {
	httpClient *http.Client
	restURL    string
	apiKey     string
}

func NewClient(config Config) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		restURL:    strings.TrimRight(config.URL, "/") + "/rest/v1",
		apiKey:     config.ServiceKey,
	}
}

// Select runs GET /rest/v1/{table} and decodes the row array into dest
func (c *Client) Select(ctx context.Context, table string, q *Query, dest any) error {
	return c.do(ctx, http.MethodGet, table, q, nil, dest)
}

// Insert posts one row and decodes the stored representation into dest.
// dest may be nil.
func (c *Client) Insert(ctx context.Context, table string, row any, dest any) error {
	return c.do(ctx, http.MethodPost, table, nil, row, dest)
}

// Update patches every row matching q
func (c *Client) Update(ctx context.Context, table string, q *Query, patch any, dest any) error {
	return c.do(ctx, http.MethodPatch, table, q, patch, dest)
}

// Delete removes every row matching q
func (c *Client) Delete(ctx context.Context, table string, q *Query) error {
	return c.do(ctx, http.MethodDelete, table, q, nil, nil)
}

// Ping checks that the REST endpoint answers with the configured key
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, table string, q *Query, body any, dest any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	u := c.restURL + "/" + table
	if qs := q.Encode(); qs != "" {
		u += "?" + qs
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusConflict {
		return fmt.Errorf("%w: %s", ErrConflict, string(respBody))
	}
	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if dest != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, dest); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}
	return nil
}
