// Low-level JSON HTTP client shared by the auth and watchlist services
package services

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

	"github.com/desertthunder/watchwave/internal/shared"
)

// APIClient makes raw JSON requests against a single base URL.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new [APIClient]. A nil client falls back to [http.DefaultClient].
func NewAPIClient(baseURL string, client *http.Client) *APIClient {
	if client == nil {
		client = http.DefaultClient
	}

	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// BaseURL returns the base URL requests are resolved against.
func (a *APIClient) BaseURL() string {
	return a.baseURL
}

// HTTPClient returns the underlying [http.Client].
func (a *APIClient) HTTPClient() *http.Client {
	return a.httpClient
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Err converts a non-2xx response into a [*RemoteError]; it returns nil for 2xx responses.
func (r *APIResponse) Err() error {
	if r.OK() {
		return nil
	}

	kind := shared.ErrAPIRequest
	if r.StatusCode == http.StatusUnauthorized {
		kind = shared.ErrNotAuthenticated
	}

	return &RemoteError{
		StatusCode: r.StatusCode,
		Message:    remoteMessage(r.Body),
		kind:       kind,
	}
}

// RemoteError is a non-2xx response from a remote service.
//
// Message carries the service's own explanation verbatim, when it sent one.
type RemoteError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%v: status %d", e.kind, e.StatusCode)
}

func (e *RemoteError) Unwrap() error {
	return e.kind
}

// RemoteMessage extracts the service-provided message from err, if any.
func RemoteMessage(err error) (string, bool) {
	var re *RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message, true
	}
	return "", false
}

// remoteMessage reads {"message"}, {"status_message"} (catalog), or {"error"} from an error body.
func remoteMessage(body []byte) string {
	var payload struct {
		Message       string `json:"message"`
		StatusMessage string `json:"status_message"`
		Error         string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	switch {
	case payload.Message != "":
		return payload.Message
	case payload.StatusMessage != "":
		return payload.StatusMessage
	default:
		return payload.Error
	}
}

// Get performs a GET request to the specified path with optional query parameters.
func (a *APIClient) Get(ctx context.Context, path string, query url.Values) (*APIResponse, error) {
	fullURL := a.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return a.do(req)
}

// PostJSON performs a POST request with payload encoded as JSON.
func (a *APIClient) PostJSON(ctx context.Context, path string, payload any) (*APIResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return a.do(req)
}

// WithHTTPClient returns a copy of the client that sends requests through c.
func (a *APIClient) WithHTTPClient(c *http.Client) *APIClient {
	return &APIClient{baseURL: a.baseURL, httpClient: c}
}

func (a *APIClient) do(req *http.Request) (*APIResponse, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrServiceUnavailable, err)
	}

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}
