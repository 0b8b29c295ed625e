// Package remote talks to a hosted backend that exposes PostgREST-style row
// endpoints under /rest/v1 and GoTrue-style auth endpoints under /auth/v1.
package remote

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

	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/store"
)

const (
	restPrefix = "/rest/v1/"
	authPrefix = "/auth/v1/"

	maxErrorBody = 64 << 10
)

// APIError is a non-2xx response from the remote backend.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("remote: %d %s: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("remote: %d: %s", e.Status, msg)
}

// Unwrap maps well-known failures onto store errors.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusConflict || e.Code == "23505":
		return store.ErrConflict
	case e.Status == http.StatusNotFound || e.Code == "PGRST116":
		return store.ErrNotFound
	}
	return nil
}

// Client is shared by the row store and the identity adapter.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

type request struct {
	method string
	path   string
	query  url.Values
	token  string
	body   any
	header map[string]string
}

// do sends req and decodes a JSON response into out (when non-nil).
func (c *Client) do(ctx context.Context, req request, out any) error {
	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	token := req.token
	if token == "" {
		token = c.apiKey
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	for k, v := range req.header {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.FromContext(ctx).Error("Remote request failed", "method", req.method, "path", req.path, "error", err)
		return fmt.Errorf("remote %s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if len(raw) > 0 {
			decodeErrorBody(raw, apiErr)
		}
		logger.FromContext(ctx).Warn("Remote request rejected",
			"method", req.method, "path", req.path, "status", resp.StatusCode, "code", apiErr.Code)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s response: %w", req.method, req.path, err)
	}
	return nil
}

// decodeErrorBody understands both PostgREST and GoTrue error shapes.
func decodeErrorBody(raw []byte, apiErr *APIError) {
	var body struct {
		Code             json.RawMessage `json:"code"`
		ErrorCode        string          `json:"error_code"`
		Message          string          `json:"message"`
		Msg              string          `json:"msg"`
		Error            string          `json:"error"`
		ErrorDescription string          `json:"error_description"`
		Details          string          `json:"details"`
		Hint             string          `json:"hint"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
		return
	}

	var code string
	if err := json.Unmarshal(body.Code, &code); err != nil {
		code = body.ErrorCode
	}
	if code == "" {
		code = body.Error
	}
	apiErr.Code = code
	apiErr.Details = body.Details
	apiErr.Hint = body.Hint
	for _, m := range []string{body.Message, body.Msg, body.ErrorDescription, body.Error} {
		if m != "" {
			apiErr.Message = m
			break
		}
	}
}
