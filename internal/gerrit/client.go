// Package gerrit wraps the go-gerrit REST client with the basic-auth setup
// and connection checks used by the connection manager.
package gerrit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gerrit "github.com/andygrunwald/go-gerrit"
)

// DefaultTimeout is the HTTP request timeout used when none is configured.
const DefaultTimeout = 30 * time.Second

var (
	// ErrInvalidURL indicates the configured Gerrit URL cannot be used
	ErrInvalidURL = errors.New("invalid gerrit url")
	// ErrUnauthorized indicates the server rejected the credentials
	ErrUnauthorized = errors.New("gerrit rejected the credentials")
)

// Account is the subset of the Gerrit account info the CLI displays.
type Account struct {
	ID       int
	Name     string
	Email    string
	Username string
}

// Client is an authenticated Gerrit REST client.
type Client struct {
	baseURL  string
	username string
	api      *gerrit.Client
}

type options struct {
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures New.
type Option func(*options)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// New creates a client for the Gerrit instance at rawURL using HTTP basic
// auth. It performs no network I/O.
func New(rawURL, username, password string, opts ...Option) (*Client, error) {
	o := options{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	endpoint, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: o.timeout}
	}

	api, err := gerrit.NewClient(context.Background(), endpoint, hc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gerrit client: %w", err)
	}

	api.Authentication.SetBasicAuth(username, password)

	return &Client{
		baseURL:  endpoint,
		username: username,
		api:      api,
	}, nil
}

// URL returns the normalized base URL of the instance.
func (c *Client) URL() string {
	return c.baseURL
}

// Username returns the account name used for authentication.
func (c *Client) Username() string {
	return c.username
}

// TestConnection performs one authenticated round trip against the server.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.Self(ctx)
	return err
}

// Self returns the account the credentials belong to.
func (c *Client) Self(ctx context.Context) (*Account, error) {
	info, resp, err := c.api.Accounts.GetAccount(ctx, "self")
	if err != nil {
		return nil, classify(resp, err)
	}

	return &Account{
		ID:       info.AccountID,
		Name:     info.Name,
		Email:    info.Email,
		Username: info.Username,
	}, nil
}

// Version returns the Gerrit server version.
func (c *Client) Version(ctx context.Context) (string, error) {
	v, resp, err := c.api.Config.GetVersion(ctx)
	if err != nil {
		return "", classify(resp, err)
	}

	return v, nil
}

func classify(resp *gerrit.Response, err error) error {
	if resp != nil && resp.Response != nil {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
	}

	return fmt.Errorf("gerrit request failed: %w", err)
}

// normalizeURL trims the trailing slash, drops embedded user info and
// rejects anything that is not an absolute http(s) URL.
func normalizeURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidURL, rawURL)
	}

	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidURL, rawURL)
	}

	u.User = nil
	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String(), nil
}
