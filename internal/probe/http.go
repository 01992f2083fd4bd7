package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// httpClient wraps http.Client with timeout.
type httpClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *httpClient {
	return &httpClient{client: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

// get performs a GET request and returns the body of a 200 response.
func (c *httpClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s returned %d: %s", ErrBadResponse, path, resp.StatusCode, body)
	}
	return body, nil
}

func (c *httpClient) health(ctx context.Context) error {
	if _, err := c.get(ctx, "/healthz", nil); err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	return nil
}

func (c *httpClient) analysis(ctx context.Context, source string) (listResponse, []byte, error) {
	q := url.Values{}
	if source != "" {
		q.Set("source", source)
	}
	body, err := c.get(ctx, "/pricing-analysis", q)
	if err != nil {
		return listResponse{}, nil, err
	}
	var out listResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return listResponse{}, nil, fmt.Errorf("%w: decode analysis: %v", ErrBadResponse, err)
	}
	return out, body, nil
}
