// Package pinecone talks to a hosted Pinecone index over its data-plane REST API.
package pinecone

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

	"github.com/saturnino-fabrica-de-software/classroll/internal/vectorindex"
)

const apiVersion = "2024-07"

var ErrInvalidResponse = errors.New("invalid response from pinecone")

// StatusError is returned when Pinecone answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pinecone returned status %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	// Host is the index host, e.g. faces-abc123.svc.us-east-1.pinecone.io
	Host      string
	APIKey    string
	Namespace string
	Timeout   time.Duration
}

// Client implements vectorindex.Index against one Pinecone index
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	namespace  string
}

func NewClient(config Config) *Client {
	host := strings.TrimRight(config.Host, "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    host,
		apiKey:     config.APIKey,
		namespace:  config.Namespace,
	}
}

func (c *Client) Upsert(ctx context.Context, id string, values []float64, metadata map[string]any) error {
	if err := vectorindex.ValidateUpsert(id, values); err != nil {
		return err
	}

	req := upsertRequest{
		Vectors: []vector{{
			ID:       id,
			Values:   vectorindex.ToFloat32(values),
			Metadata: metadata,
		}},
		Namespace: c.namespace,
	}

	var resp upsertResponse
	if err := c.do(ctx, "/vectors/upsert", req, &resp); err != nil {
		return fmt.Errorf("upsert vector: %w", err)
	}
	return nil
}

func (c *Client) Query(ctx context.Context, values []float64, topK int) ([]vectorindex.Match, error) {
	if len(values) == 0 {
		return nil, vectorindex.ErrEmptyVector
	}

	req := queryRequest{
		Vector:          vectorindex.ToFloat32(values),
		TopK:            topK,
		IncludeMetadata: true,
		Namespace:       c.namespace,
	}

	var resp queryResponse
	if err := c.do(ctx, "/query", req, &resp); err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	matches := make([]vectorindex.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m.ID == "" {
			return nil, fmt.Errorf("%w: match without id", ErrInvalidResponse)
		}
		matches = append(matches, vectorindex.Match{
			ID:       m.ID,
			Score:    m.Score,
			Metadata: m.Metadata,
		})
	}
	return matches, nil
}

func (c *Client) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	req := deleteRequest{IDs: ids, Namespace: c.namespace}
	if err := c.do(ctx, "/vectors/delete", req, nil); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("X-Pinecone-API-Version", apiVersion)

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

	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}
	return nil
}

var _ vectorindex.Index = (*Client)(nil)
