package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bytefinance/internal/tokenstore"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=api_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the ByteFinance backend. Every request carries the
// bearer token from the token store when one is present, and every
// unauthorized response clears the stored token as a side effect, no
// matter which endpoint produced it.
type Client struct {
	baseURL    string
	tokens     tokenstore.Store
	httpClient HTTPClient
	logger     *slog.Logger
	header     http.Header
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc HTTPClient) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithHeader adds headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a backend API client rooted at baseURL.
func NewClient(baseURL string, tokens tokenstore.Store, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: slog.Default(),
		header: http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
