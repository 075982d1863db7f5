package api

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

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/powerzone/gymclient/internal/config"
	"github.com/powerzone/gymclient/internal/credentials"
)

// ErrNetwork covers transport-level failures (DNS, timeout, refused
// connection). The raw cause is logged but callers get one generic shape.
var ErrNetwork = errors.New("Network error")

// APIError is a non-2xx response with the server's reason.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Validator is implemented by response types that carry invariants the
// server must uphold; decode fails if validation fails.
type Validator interface {
	Validate() error
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      credentials.Source
	logger     *zap.Logger
}

// NewClient creates an API client for the gym platform backend.
func NewClient(cfg config.APIConfig, creds credentials.Source, logger *zap.Logger) *Client {
	// Normalize base URL - remove trailing slashes
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		creds:  creds,
		logger: logger,
	}
}

// HasCredential reports whether a bearer token is currently available.
func (c *Client) HasCredential() bool {
	_, err := c.creds.Token()
	return err == nil
}

// errorBody is the `{"error": "..."}` shape the backend uses for rejections.
type errorBody struct {
	Error string `json:"error"`
}

// Do executes one JSON round trip. body is marshalled when non-nil; on 2xx
// the response is decoded into out (when non-nil) and validated. Non-2xx
// responses become *APIError carrying the server's message; transport
// failures become ErrNetwork.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token, err := c.creds.Token(); err == nil {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return ErrNetwork
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("failed to read response",
			zap.String("path", path),
			zap.Error(err),
		)
		return ErrNetwork
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		msg := http.StatusText(resp.StatusCode)
		if err := json.Unmarshal(respBody, &eb); err == nil && eb.Error != "" {
			msg = eb.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if v, ok := out.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid response body: %w", err)
		}
	}

	return nil
}

// Get is a convenience wrapper around Do.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post is a convenience wrapper around Do.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put is a convenience wrapper around Do.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete is a convenience wrapper around Do.
func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}
