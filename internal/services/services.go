// package services implements typed clients for the festival HTTP API
//
// Users, festivals, jobs, reviews
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

	"github.com/desertthunder/festa/internal/shared"
)

const defaultBaseURL = "http://localhost:8080"

// APIService performs HTTP requests against the festival API base URL.
//
// The typed services ([FestivalService], [JobService], [ReviewService], [UserService]) are built on it.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewAPIService creates a new API service instance for the given base URL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func (a *APIService) WithUserAgent(ua string) *APIService {
	a.userAgent = ua
	return a
}

// BaseURL returns the API base URL without a trailing slash.
func (a *APIService) BaseURL() string { return a.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the response has a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// APIError is returned by typed calls for non-2xx responses.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string // server supplied "message", when present
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// Unwrap makes every APIError match [shared.ErrAPIRequest].
func (e *APIError) Unwrap() error { return shared.ErrAPIRequest }

// StatusCode returns the HTTP status carried by err, or 0 when err is not an [APIError].
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}
	return a.do(ctx, http.MethodPost, path, nil, body)
}

// call sends a request with an optional JSON payload and decodes a 2xx JSON response into out.
//
// Non-2xx responses become an [*APIError].
func (a *APIService) call(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}

	resp, err := a.do(ctx, method, path, nil, body)
	if err != nil {
		return err
	}

	if !resp.OK() {
		return newAPIError(method, path, resp)
	}

	if out == nil {
		return nil
	}
	return decodeJSON(resp, out)
}

// decodeJSON decodes a response body into out. An empty body leaves out untouched.
func decodeJSON(resp *APIResponse, out any) error {
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidResponse, err)
	}
	return nil
}

func (a *APIService) do(ctx context.Context, method, path string, header http.Header, body io.Reader) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

func newAPIError(method, path string, resp *APIResponse) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Method:     method,
		Path:       path,
		Body:       resp.Body,
	}

	if m, ok := resp.JSONData.(map[string]any); ok {
		if msg, ok := m["message"].(string); ok {
			apiErr.Message = msg
		}
	}
	return apiErr
}

// checker is implemented by decoded response records.
type checker interface {
	Check() error
}

// checkList validates every element of a decoded list and replaces a null list with an empty one.
func checkList[T any, PT interface {
	*T
	checker
}](items []T) ([]T, error) {
	if items == nil {
		return []T{}, nil
	}
	for i := range items {
		if err := PT(&items[i]).Check(); err != nil {
			return nil, fmt.Errorf("%w: item %d: %w", shared.ErrInvalidResponse, i, err)
		}
	}
	return items, nil
}

// checkOne validates a decoded record.
func checkOne(v checker) error {
	if err := v.Check(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidResponse, err)
	}
	return nil
}

func pageQuery(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": []string{fmt.Sprint(page)}}
}
