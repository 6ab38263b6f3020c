// Package backend is the HTTP client for the federation backend. Handlers
// forward browser calls through it with the caller's bearer token attached
// unchanged. Connection-level failures surface as ErrUnavailable so each
// call site decides visibly whether to mask or propagate them; upstream
// non-success statuses are relayed, never converted to errors.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"
)

// ErrUnavailable marks connection-level failures (refused, timeout, DNS).
var ErrUnavailable = errors.New("backend unavailable")

// RelayedError wraps a non-success upstream response for call sites that
// need to surface it as a failure rather than relay it.
type RelayedError struct {
	Response *Response
}

func (e *RelayedError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Response.Status)
}

// Response is a relayed upstream response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

type Client struct {
	baseURL string
	hc      *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		hc: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// HTTPClient exposes the underlying client for transport instrumentation in
// tests.
func (c *Client) HTTPClient() *http.Client {
	return c.hc
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET to path with the bearer token forwarded unchanged.
func (c *Client) Get(ctx context.Context, path, bearer string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, bearer, "", nil)
}

// PostJSON marshals body and POSTs it to path.
func (c *Client) PostJSON(ctx context.Context, path, bearer string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bearer, "application/json", bytes.NewReader(payload))
}

// ForwardMultipart rebuilds a multipart body from the parsed inbound form,
// keeping only the allow-listed value fields and file fields. Unlisted
// fields are dropped silently.
func (c *Client) ForwardMultipart(ctx context.Context, method, path, bearer string, form *multipart.Form, valueFields, fileFields []string) (*Response, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, name := range valueFields {
		for _, v := range form.Value[name] {
			if err := mw.WriteField(name, v); err != nil {
				return nil, fmt.Errorf("failed to write form field %s: %w", name, err)
			}
		}
	}

	for _, name := range fileFields {
		for _, fh := range form.File[name] {
			part, err := mw.CreateFormFile(name, fh.Filename)
			if err != nil {
				return nil, fmt.Errorf("failed to create form file %s: %w", name, err)
			}
			f, err := fh.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open uploaded file %s: %w", fh.Filename, err)
			}
			_, err = io.Copy(part, f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("failed to copy uploaded file %s: %w", fh.Filename, err)
			}
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return c.do(ctx, method, path, bearer, mw.FormDataContentType(), &buf)
}

func (c *Client) do(ctx context.Context, method, path, bearer, contentType string, body io.Reader) (*Response, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build backend request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		log.Printf("[Backend] %s %s failed: %v", method, path, err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	relayed, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	log.Printf("[Backend] %-6s %s -> %d in %v", method, path, resp.StatusCode, time.Since(start))

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   relayed,
	}, nil
}
