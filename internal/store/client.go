// AngelaMos | 2026
// client.go

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/angelamos/chefbot-api/internal/config"
	"github.com/angelamos/chefbot-api/internal/core"
)

const maxErrorBody = 1000

// Client talks to the hosted REST data API (PostgREST dialect): one path
// segment per table, filters as query parameters, writes as JSON bodies.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg config.DataAPIConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: cfg.URL,
		apiKey:  cfg.Key,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Filters builds the query parameter set for a request. Values follow the
// PostgREST operator syntax, e.g. Eq("id", userID) renders id=eq.<userID>.
type Filters struct {
	values url.Values
}

func NewFilters() *Filters {
	return &Filters{values: url.Values{}}
}

func (f *Filters) Eq(field, value string) *Filters {
	f.values.Set(field, "eq."+value)
	return f
}

func (f *Filters) Lt(field, value string) *Filters {
	f.values.Set(field, "lt."+value)
	return f
}

func (f *Filters) Order(expr string) *Filters {
	f.values.Set("order", expr)
	return f
}

func (f *Filters) encode() string {
	if f == nil {
		return ""
	}
	return f.values.Encode()
}

// Select reads rows matching the filters into dest, which must be a pointer
// to a slice. An empty result is not an error.
func (c *Client) Select(
	ctx context.Context,
	table string,
	filters *Filters,
	dest any,
) error {
	body, err := c.do(ctx, http.MethodGet, table, filters, nil, "")
	if err != nil {
		return err
	}

	if len(body) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s rows: %w", table, err)
	}

	return nil
}

// Insert creates a row. When prefer is non-empty it is sent as the Prefer
// header, e.g. "return=representation" or "resolution=merge-duplicates".
// dest may be nil when the caller does not need the created row back.
func (c *Client) Insert(
	ctx context.Context,
	table string,
	row any,
	prefer string,
	dest any,
) error {
	body, err := c.do(ctx, http.MethodPost, table, nil, row, prefer)
	if err != nil {
		return err
	}

	if dest == nil || len(body) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s insert result: %w", table, err)
	}

	return nil
}

// Update patches all rows matching the filters with the given fields.
func (c *Client) Update(
	ctx context.Context,
	table string,
	filters *Filters,
	fields any,
) error {
	_, err := c.do(ctx, http.MethodPatch, table, filters, fields, "")
	return err
}

// Delete removes all rows matching the filters.
func (c *Client) Delete(
	ctx context.Context,
	table string,
	filters *Filters,
) error {
	_, err := c.do(ctx, http.MethodDelete, table, filters, nil, "")
	return err
}

// Ping issues a minimal read against the users table to verify connectivity.
func (c *Client) Ping(ctx context.Context) error {
	filters := NewFilters()
	filters.values.Set("select", "count")
	_, err := c.do(ctx, http.MethodGet, "users", filters, nil, "")
	return err
}

func (c *Client) do(
	ctx context.Context,
	method, table string,
	filters *Filters,
	body any,
	prefer string,
) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if q := filters.encode(); q != "" {
		endpoint += "?" + q
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", table, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", table, err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", method, table, core.ErrStorage, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", table, core.ErrStorage)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf(
			"%s %s: status %d: %s: %w",
			method,
			table,
			resp.StatusCode,
			truncate(respBody, maxErrorBody),
			core.ErrStorage,
		)
	}

	return respBody, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
