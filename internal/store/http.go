package store

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
)

const (
	requestTimeout = 10 * time.Second
	maxBodySize    = 4 << 20 // 4 MB
)

// Client is the HTTP backend of RecordStore. The service exposes each
// collection at {base}/{collection} with owner-scoped queries and per-
// document writes at {base}/{collection}/{id}.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client for the given base URL. Returns nil if the URL
// is empty.
func NewClient(baseURL, apiKey string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{},
	}
}

// FetchTrips returns all trip documents owned by the principal.
func (c *Client) FetchTrips(ctx context.Context, principal string) ([]Document, error) {
	return c.fetchCollection(ctx, "loads", principal)
}

// FetchExpenses returns all expense documents owned by the principal.
func (c *Client) FetchExpenses(ctx context.Context, principal string) ([]Document, error) {
	return c.fetchCollection(ctx, "expenses", principal)
}

// PutTrip creates or replaces one trip document.
func (c *Client) PutTrip(ctx context.Context, principal, id string, doc Document) error {
	return c.put(ctx, "loads", principal, id, doc)
}

// PutExpense creates or replaces one expense document.
func (c *Client) PutExpense(ctx context.Context, principal, id string, doc Document) error {
	return c.put(ctx, "expenses", principal, id, doc)
}

// DeleteTrip removes one trip document.
func (c *Client) DeleteTrip(ctx context.Context, principal, id string) error {
	return c.delete(ctx, "loads", principal, id)
}

// DeleteExpense removes one expense document.
func (c *Client) DeleteExpense(ctx context.Context, principal, id string) error {
	return c.delete(ctx, "expenses", principal, id)
}

func (c *Client) fetchCollection(ctx context.Context, collection, principal string) ([]Document, error) {
	path := fmt.Sprintf("/%s?owner=%s", collection, url.QueryEscape(principal))
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var docs []Document
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, fmt.Errorf("store: parsing %s: %w", collection, err)
	}
	return docs, nil
}

func (c *Client) put(ctx context.Context, collection, principal, id string, doc Document) error {
	if doc == nil {
		doc = Document{}
	}
	doc["owner"] = principal

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store: encoding %s document: %w", collection, err)
	}

	path := fmt.Sprintf("/%s/%s", collection, url.PathEscape(id))
	_, err = c.do(ctx, http.MethodPut, path, payload)
	return err
}

func (c *Client) delete(ctx context.Context, collection, principal, id string) error {
	path := fmt.Sprintf("/%s/%s?owner=%s", collection, url.PathEscape(id), url.QueryEscape(principal))
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}

// do performs an authenticated request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("store: creating request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("store: unexpected status %d", resp.StatusCode)
	}

	out, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("store: reading response: %w", err)
	}
	return out, nil
}
