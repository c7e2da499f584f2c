// Package orgclient is the Go client for the organization dashboard API.
// Every call goes through a single request path that attaches the session
// token, reads the body as text before decoding, and maps failures onto a
// small error taxonomy: APIError for server-reported failures,
// MalformedResponseError for undecodable success bodies, RequestError when
// no response arrived at all.
package orgclient

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

	"github.com/thrivewell/wellness-platform/pkg/logging"
)

// Client talks to the dashboard API. The TokenStore is injected at
// construction: the client reads the token from it on every request,
// persists it on login and refresh, and clears it on logout or when the
// server answers 401.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	logger     *logging.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the API at baseURL. A nil tokens store gets an
// in-memory one, which is enough for single-process use.
func New(baseURL string, tokens TokenStore, opts ...ClientOption) *Client {
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// responseEnvelope is the uniform wrapper every endpoint answers with.
// List endpoints additionally carry pagination counters.
type responseEnvelope struct {
	Success    bool                `json:"success"`
	Data       json.RawMessage     `json:"data"`
	Message    string              `json:"message"`
	Errors     map[string][]string `json:"errors"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	PerPage    int                 `json:"per_page"`
	TotalPages int                 `json:"total_pages"`
}

// do performs one API request and decodes the response envelope. body, when
// non-nil, is JSON-encoded. The whole response body is read as text first so
// error paths can report what the server actually sent.
//
// On 401 the stored token is cleared before the error is returned: the
// session is gone and retrying with the same token cannot succeed.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*responseEnvelope, error) {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("orgclient: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("orgclient: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	text := string(raw)

	if resp.StatusCode == http.StatusUnauthorized {
		if clearErr := c.tokens.Clear(); clearErr != nil {
			c.logger.Warn("failed to clear session token", "error", clearErr)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.apiError(resp.StatusCode, text)
	}

	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &MalformedResponseError{Body: text, Err: err}
	}
	if !env.Success {
		return nil, &APIError{
			Status:      resp.StatusCode,
			Message:     env.Message,
			FieldErrors: env.Errors,
			Body:        text,
		}
	}
	return &env, nil
}

// apiError builds an APIError from a failure body. The message prefers the
// envelope message, then the raw body text, then the status line.
func (c *Client) apiError(status int, body string) *APIError {
	apiErr := &APIError{Status: status, Body: body}
	var env responseEnvelope
	if err := json.Unmarshal([]byte(body), &env); err == nil {
		apiErr.Message = env.Message
		apiErr.FieldErrors = env.Errors
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(body)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// get performs a GET and unmarshals the envelope data into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	env, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return c.decodeData(env, out)
}

// getList performs a GET against a paginated endpoint.
func (c *Client) getList(ctx context.Context, path string, query url.Values, out any) (Page, error) {
	env, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return Page{}, err
	}
	page := Page{Total: env.Total, Page: env.Page, PerPage: env.PerPage, TotalPages: env.TotalPages}
	return page, c.decodeData(env, out)
}

// post performs a POST with a JSON body and unmarshals the envelope data
// into out when out is non-nil.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	env, err := c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	return c.decodeData(env, out)
}

// put performs a PUT with a JSON body.
func (c *Client) put(ctx context.Context, path string, body, out any) error {
	env, err := c.do(ctx, http.MethodPut, path, nil, body)
	if err != nil {
		return err
	}
	return c.decodeData(env, out)
}

func (c *Client) decodeData(env *responseEnvelope, out any) error {
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &MalformedResponseError{Body: string(env.Data), Err: err}
	}
	return nil
}

// Health checks the API health endpoint. No authentication is required.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil, nil)
}
