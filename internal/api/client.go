// Package api is the client for the budget service. Every authenticated
// request goes through a single fetch wrapper that ends the local session on
// 401 and 429 responses.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/my-budget-client/internal/credentials"
	"github.com/Veraticus/my-budget-client/internal/store"
)

// Client talks to one budget service instance.
type Client struct {
	httpClient    *http.Client
	auth          *store.AuthStore
	creds         credentials.Store
	limiter       *rateLimiter
	logger        *slog.Logger
	categoryLocks *keyedMutex
	baseURL       string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the request timeout. The client configured so far is
// copied, so an http.Client passed to WithHTTPClient is left untouched.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		httpClient := *c.httpClient
		httpClient.Timeout = timeout
		c.httpClient = &httpClient
	}
}

// WithAuthStore shares an existing auth store with the client.
func WithAuthStore(auth *store.AuthStore) Option {
	return func(c *Client) {
		c.auth = auth
	}
}

// WithCredentials sets where tokens are read from and cleared.
func WithCredentials(creds credentials.Store) Option {
	return func(c *Client) {
		c.creds = creds
	}
}

// WithRateLimit throttles outgoing requests to requestsPerMinute.
// Zero or less leaves requests unthrottled.
func WithRateLimit(requestsPerMinute int) Option {
	return func(c *Client) {
		if requestsPerMinute > 0 {
			c.limiter = newRateLimiter(requestsPerMinute, time.Now)
		}
	}
}

// WithLogger sets the logger used for failed calls.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		auth:          store.NewAuthStore(),
		creds:         credentials.NewMemoryStore(credentials.Credentials{}),
		logger:        slog.Default(),
		categoryLocks: newKeyedMutex(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Auth returns the state store the client updates.
func (c *Client) Auth() *store.AuthStore {
	return c.auth
}

// Credentials returns the credential store the client reads tokens from.
func (c *Client) Credentials() credentials.Store {
	return c.creds
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// keyedMutex hands out one mutex per integer key. Entries are dropped once
// nobody holds or waits on them.
type keyedMutex struct {
	locks map[int]*keyedEntry
	mu    sync.Mutex
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int]*keyedEntry)}
}

func (k *keyedMutex) lock(key int) (unlock func()) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			k.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.locks, key)
			}
			k.mu.Unlock()
		})
	}
}
