// Package postgrest serves the listings table from a hosted PostgREST
// endpoint such as Supabase.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	restPath           = "/rest/v1/"
	defaultHTTPTimeout = 10 * time.Second
)

// APIError is the error body PostgREST returns for a rejected request.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("postgrest: unexpected status %d", e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("postgrest: %s (%s)", e.Message, e.Code)
	}
	return "postgrest: " + e.Message
}

// Client is a thin authenticated HTTP client for one PostgREST project.
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

func NewClient(baseURL, key string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type request struct {
	method string
	table  string
	query  url.Values
	prefer string
	body   any
}

type response struct {
	header http.Header
	body   []byte
}

func (c *Client) do(ctx context.Context, r request) (*response, error) {
	endpoint := c.baseURL + restPath + r.table
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var reader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("apikey", c.key)
	httpReq.Header.Set("Authorization", "Bearer "+c.key)
	httpReq.Header.Set("Accept", "application/json")
	if r.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if r.prefer != "" {
		httpReq.Header.Set("Prefer", r.prefer)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(respBody, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return nil, apiErr
	}

	return &response{header: resp.Header, body: respBody}, nil
}
