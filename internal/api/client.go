// Package api is a typed client for the Val Town REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	DefaultBaseURL = "https://api.val.town"
	DefaultTimeout = 30 * time.Second

	// listPageSize is the page size used when draining paginated listings.
	listPageSize = 100
)

// ErrDecode marks a response body that is not valid JSON or lacks a required field.
var ErrDecode = errors.New("decode response")

// Error is returned for any non-2xx response. Body holds the raw response text.
type Error struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *Error) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = e.Status
	}
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.URL, e.StatusCode, msg)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	UserAgent  string
	Logger     *log.Logger
}

// Client talks to the REST API with a bearer token.
type Client struct {
	baseURL   string
	token     string
	http      *http.Client
	userAgent string
	logger    *log.Logger
}

// New builds a Client. Zero-valued fields fall back to defaults.
func New(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "vt"
	}

	return &Client{
		baseURL:   baseURL,
		token:     cfg.Token,
		http:      httpClient,
		userAgent: userAgent,
		logger:    logger,
	}
}

// BaseURL returns the API root the client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// resolve turns a request path into an absolute URL. Absolute URLs (pagination
// links) pass through unchanged.
func (c *Client) resolve(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}
	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	return c.baseURL + pathOrURL
}

// Do sends an authenticated request and returns the response for 2xx statuses.
// Any other status is returned as *Error with the body consumed.
func (c *Client) Do(ctx context.Context, method, pathOrURL string, header http.Header, body io.Reader) (*http.Response, error) {
	target := c.resolve(pathOrURL)
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "url", target, "err", err)
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	c.logger.Debug("request", "method", method, "url", target, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, &Error{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(data),
		}
	}
	return resp, nil
}

// call sends in as a JSON body (when non-nil) and returns the raw response body.
func (c *Client) call(ctx context.Context, method, pathOrURL string, in any) ([]byte, error) {
	var body io.Reader
	header := http.Header{}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
		header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(ctx, method, pathOrURL, header, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

// decodeRecord unmarshals data into out after checking that every required
// key is present and not null.
func decodeRecord(data []byte, out any, required ...string) error {
	if len(required) > 0 {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return fmt.Errorf("%w: %w", ErrDecode, err)
		}
		for _, key := range required {
			raw, ok := fields[key]
			if !ok || string(raw) == "null" {
				return fmt.Errorf("%w: missing required field %q", ErrDecode, key)
			}
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

// page is one response of a paginated listing.
type page struct {
	Data  []json.RawMessage `json:"data"`
	Links struct {
		Self string `json:"self"`
		Prev string `json:"prev"`
		Next string `json:"next"`
	} `json:"links"`
}

func decodePage(data []byte) (*page, error) {
	var p page
	if err := decodeRecord(data, &p, "data"); err != nil {
		return nil, err
	}
	return &p, nil
}

// drain follows links.next from first until it is absent and returns every item.
func (c *Client) drain(ctx context.Context, first string) ([]json.RawMessage, error) {
	var items []json.RawMessage
	seen := map[string]bool{}
	next := first
	for next != "" {
		if seen[next] {
			return nil, fmt.Errorf("%w: pagination loop at %s", ErrDecode, next)
		}
		seen[next] = true

		data, err := c.call(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}
		p, err := decodePage(data)
		if err != nil {
			return nil, err
		}
		items = append(items, p.Data...)
		next = p.Links.Next
	}
	return items, nil
}

func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}
