// Package youtube scrapes video titles and search results from YouTube's
// public HTML pages. Every call is best effort.
package youtube

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"jukebox/internal/platform/logger"
)

// UserAgent is sent with every request; YouTube serves a consent or bot page
// to clients without a browser agent.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const defaultBaseURL = "https://www.youtube.com"

// Client implements jukebox.TitleResolver and jukebox.Searcher.
type Client struct {
	http    *http.Client
	baseURL string
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points search requests at another host, e.g. an httptest server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for swallowed failures.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a Client with a 10 second overall timeout.
func New(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultBaseURL,
		log:     logger.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// get issues a GET with the browser user agent and returns the open body.
// The caller closes it.
func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, res.Status)
	}
	return res.Body, nil
}
