package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent is sent with every asset request.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// API downloads remote assets such as chapter images and fonts.
type API struct {
	client    *http.Client
	userAgent string
}

func NewAPI(timeout time.Duration) *API {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &API{
		client:    &http.Client{Timeout: timeout},
		userAgent: DefaultUserAgent,
	}
}

// WithClient replaces the underlying HTTP client.
func (a *API) WithClient(client *http.Client) *API {
	a.client = client
	return a
}

// Get fetches url and returns the full response body. Non-2xx responses are
// reported as errors.
func (a *API) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
