package api

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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxResponseSize is the maximum allowed response body size (10MB)
const maxResponseSize = 10 * 1024 * 1024

// TokenSource supplies the bearer credential of the active session, or the
// empty string when anonymous.
type TokenSource interface {
	Token() string
}

// SessionInvalidFunc is invoked when the backend invalidates the session:
// blocked is true for HTTP 403 (account blocked), false for HTTP 401.
type SessionInvalidFunc func(blocked bool)

// Client is the shared access point to the storefront REST backend. It
// attaches the bearer credential to every request and enforces the global
// failure policy: a 401 or 403 on a session-scoped request invalidates the
// session (the client forces re-authentication on either), 403 additionally
// signals a blocked account. Requests without a credential and calls to the
// auth endpoints are not session-scoped; their rejections describe the
// submitted credentials and stay local to the operation. Other non-2xx
// statuses become typed *Error values; nothing is retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	log        *zap.Logger

	onSessionInvalid SessionInvalidFunc
}

// NewClient creates a resource client for the given versioned base URL.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, log *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		log:        log,
	}
}

// OnSessionInvalid registers the cross-component side effect fired on 401/403
// (session clearing plus forced navigation). At most one hook is supported;
// wiring happens once at startup.
func (c *Client) OnSessionInvalid(fn SessionInvalidFunc) {
	c.onSessionInvalid = fn
}

// Do performs one request against the backend. body, when non-nil, is JSON
// encoded; out, when non-nil, receives the decoded 2xx response body.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	data, err := c.DoRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("api: failed to parse response for %s %s: %w", method, path, err)
	}
	return nil
}

// DoRaw performs one request and returns the raw 2xx response body.
func (c *Client) DoRaw(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), reader)
	if err != nil {
		return nil, fmt.Errorf("api: failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := c.tokens.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("api: failed to read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}

	sessionScoped := token != "" && !isAuthPath(path)
	return nil, c.failureFor(method, path, requestID, resp.StatusCode, data, sessionScoped)
}

// isAuthPath reports whether path is a credential-establishing endpoint.
// A 401 or 403 from these describes the submitted credentials, never the
// active session.
func isAuthPath(path string) bool {
	return strings.HasPrefix(strings.TrimLeft(path, "/"), "auth/")
}

// failureFor maps a non-2xx response to the client's failure policy. The
// invalidation hook fires only for session-scoped requests: a rejected login
// attempt must not destroy a session it was not made with.
func (c *Client) failureFor(method, path, requestID string, status int, body []byte, sessionScoped bool) error {
	code, message := parseErrorBody(body)

	switch status {
	case http.StatusUnauthorized:
		if sessionScoped {
			c.log.Warn("credential rejected, forcing re-authentication",
				zap.String("method", method),
				zap.String("path", path),
				zap.String("request_id", requestID))
			if c.onSessionInvalid != nil {
				c.onSessionInvalid(false)
			}
		}
		return fmt.Errorf("%w: %s", ErrUnauthorized, message)
	case http.StatusForbidden:
		if sessionScoped {
			c.log.Warn("account blocked, clearing session",
				zap.String("method", method),
				zap.String("path", path),
				zap.String("request_id", requestID))
			if c.onSessionInvalid != nil {
				c.onSessionInvalid(true)
			}
		}
		return fmt.Errorf("%w: %s", ErrForbidden, message)
	}

	c.log.Debug("request failed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.String("code", code),
		zap.String("request_id", requestID))
	return &Error{StatusCode: status, Code: code, Message: message}
}

// parseErrorBody extracts a code/message pair from an error response body.
// The backend emits either {"detail": "..."} or {"code": "...", "message": "..."}.
func parseErrorBody(body []byte) (code, message string) {
	var payload struct {
		Detail  string `json:"detail"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", ""
	}
	if payload.Message != "" {
		return payload.Code, payload.Message
	}
	return payload.Code, payload.Detail
}

// Query builds a query-string suffix from the given values, omitting empties.
// The caller's values are left untouched.
func Query(values url.Values) string {
	filtered := url.Values{}
	for key, vals := range values {
		if values.Get(key) == "" {
			continue
		}
		filtered[key] = vals
	}
	if len(filtered) == 0 {
		return ""
	}
	return "?" + filtered.Encode()
}
