// Package backend provides a client for the hosted database's
// auto-generated REST interface.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/containerd/errdefs"
)

const restPrefix = "/rest/v1/"

// Client issues CRUD calls against the backend REST interface. It owns no
// logic beyond header construction, URL templating, and error decoding.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// New creates a backend client. The shared http.Client applies a fixed
// timeout to every outbound call; there is no retry.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Query accumulates filter parameters in the backend's filter syntax.
type Query struct {
	values url.Values
}

// NewQuery returns an empty query.
func NewQuery() Query {
	return Query{values: url.Values{}}
}

// Eq adds an equality filter on a column.
func (q Query) Eq(column, value string) Query {
	q.values.Set(column, "eq."+value)
	return q
}

// Lt adds a less-than filter on a column.
func (q Query) Lt(column, value string) Query {
	q.values.Set(column, "lt."+value)
	return q
}

// NotIn excludes rows whose column matches any of the given values.
func (q Query) NotIn(column string, values ...string) Query {
	q.values.Set(column, "not.in.("+strings.Join(values, ",")+")")
	return q
}

// Select restricts the returned columns.
func (q Query) Select(columns string) Query {
	q.values.Set("select", columns)
	return q
}

// Order sets the sort expression, e.g. "timestamp.desc".
func (q Query) Order(expr string) Query {
	q.values.Set("order", expr)
	return q
}

// Limit caps the number of returned rows.
func (q Query) Limit(n int) Query {
	q.values.Set("limit", strconv.Itoa(n))
	return q
}

// Encode renders the query string in the backend's filter syntax.
func (q Query) Encode() string {
	if q.values == nil {
		return ""
	}
	return q.values.Encode()
}

// Select fetches rows from a table. dest must be a pointer to a slice; the
// backend always answers reads with a JSON array.
func (c *Client) Select(ctx context.Context, table string, q Query, dest interface{}) error {
	return c.do(ctx, http.MethodGet, table, q, nil, dest)
}

// Insert creates a row. The created representation is decoded into dest when
// dest is non-nil.
func (c *Client) Insert(ctx context.Context, table string, payload interface{}, dest interface{}) error {
	return c.do(ctx, http.MethodPost, table, Query{}, payload, dest)
}

// Update patches rows matching the query and decodes the updated
// representation into dest when dest is non-nil.
func (c *Client) Update(ctx context.Context, table string, q Query, patch interface{}, dest interface{}) error {
	return c.do(ctx, http.MethodPatch, table, q, patch, dest)
}

// Delete removes rows matching the query.
func (c *Client) Delete(ctx context.Context, table string, q Query) error {
	return c.do(ctx, http.MethodDelete, table, q, nil, nil)
}

// Ping verifies that the backend REST interface is reachable.
func (c *Client) Ping(ctx context.Context) error {
	var rows []json.RawMessage
	return c.Select(ctx, "students", NewQuery().Select("id").Limit(1), &rows)
}

func (c *Client) do(ctx context.Context, method, table string, q Query, payload, dest interface{}) error {
	u := c.baseURL + restPrefix + table
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", table, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", table, err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s %s: %v: %w", method, table, err, errdefs.ErrUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("backend %s %s: read response: %v: %w", method, table, err, errdefs.ErrUnavailable)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(method, table, resp.StatusCode, raw)
	}

	if dest != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, dest); err != nil {
			return fmt.Errorf("backend %s %s: decode response: %w", method, table, err)
		}
	}
	return nil
}

// restError is the error body shape of the backend REST interface.
type restError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// duplicateKeyCode is the SQLSTATE for unique constraint violations. The
// backend reports it on inserts that race with an existing row.
const duplicateKeyCode = "23505"

func decodeError(method, table string, status int, raw []byte) error {
	var re restError
	_ = json.Unmarshal(raw, &re)
	msg := re.Message
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	var sentinel error
	switch {
	case re.Code == duplicateKeyCode || status == http.StatusConflict:
		sentinel = errdefs.ErrAlreadyExists
	case status == http.StatusNotFound:
		sentinel = errdefs.ErrNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		sentinel = errdefs.ErrInvalidArgument
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		sentinel = errdefs.ErrUnauthenticated
	default:
		sentinel = errdefs.ErrUnavailable
	}
	return fmt.Errorf("backend %s %s: %s: %w", method, table, msg, sentinel)
}
