package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/matzehuels/releasetower/pkg/buildinfo"
	"github.com/matzehuels/releasetower/pkg/cache"
	rterrors "github.com/matzehuels/releasetower/pkg/errors"
	"github.com/matzehuels/releasetower/pkg/httputil"
	"github.com/matzehuels/releasetower/pkg/observability"
)

const (
	defaultRetries    = 3
	defaultRetryDelay = time.Second
)

// Options configures the shared HTTP client of every registry client.
// The zero value is usable: no response cache, no host rules, default
// timeout and retries.
type Options struct {
	Cache      cache.Cache   // raw response cache; nil disables it
	Keyer      cache.Keyer   // key builder for Cache; nil uses cache.NewDefaultKeyer
	TTL        time.Duration // lifetime of cached responses
	Hosts      *HostRules    // per-host enablement, auth and failure policy
	Timeout    time.Duration // per-request timeout; 0 uses the package default
	Retries    int           // attempts per request; 0 uses the package default
	RetryDelay time.Duration // initial backoff; 0 uses the package default
}

// Client provides shared HTTP functionality for all registry API clients.
// It handles host rules, response caching, retry logic, and common request
// headers, and classifies failures for the release engine.
type Client struct {
	http       *http.Client
	cache      cache.Cache
	keyer      cache.Keyer
	namespace  string
	ttl        time.Duration
	headers    map[string]string
	hosts      *HostRules
	retries    int
	retryDelay time.Duration
}

// NewClient creates a Client for one registry. namespace prefixes cached
// response keys. Headers are applied to all requests made through this
// client; pass nil if no default headers are needed.
func NewClient(opts Options, namespace string, headers map[string]string) *Client {
	c := &Client{
		http:       NewHTTPClient(),
		cache:      opts.Cache,
		keyer:      opts.Keyer,
		namespace:  namespace,
		ttl:        opts.TTL,
		headers:    headers,
		hosts:      opts.Hosts,
		retries:    opts.Retries,
		retryDelay: opts.RetryDelay,
	}
	if c.cache == nil {
		c.cache = cache.NewNullCache()
	}
	if c.keyer == nil {
		c.keyer = cache.NewDefaultKeyer()
	}
	if opts.Timeout > 0 {
		c.http.Timeout = opts.Timeout
	}
	if c.retries <= 0 {
		c.retries = defaultRetries
	}
	if c.retryDelay <= 0 {
		c.retryDelay = defaultRetryDelay
	}
	return c
}

// SetHTTPClient replaces the underlying HTTP client. Used by tests to talk
// to httptest servers.
func (c *Client) SetHTTPClient(h *http.Client) {
	c.http = h
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	k := c.keyer.HTTPKey(c.namespace, key)
	if !refresh {
		if data, ok, err := c.cache.Get(ctx, k); err == nil && ok {
			if json.Unmarshal(data, v) == nil {
				observability.Cache().OnCacheHit(ctx, "http")
				return nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "http")
	}
	if err := fetch(); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		if c.cache.Set(ctx, k, data, c.ttl) == nil {
			observability.Cache().OnCacheSet(ctx, "http", len(data))
		}
	}
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers and handles retries automatically.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	return c.do(ctx, url, headers, func(body io.Reader) error {
		return json.NewDecoder(body).Decode(v)
	})
}

// GetText performs an HTTP GET request and returns the response body as a string.
// Useful for non-JSON endpoints like version lists or XML documents.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	var text string
	err := c.do(ctx, url, nil, func(body io.Reader) error {
		data, err := io.ReadAll(body)
		text = string(data)
		return err
	})
	return text, err
}

// do applies host rules, retries transient failures and classifies the
// final error: a disabled host yields a host-disabled error; a network or
// server failure on a host with AbortOnError yields a hard host error.
func (c *Client) do(ctx context.Context, rawURL string, headers map[string]string, read func(io.Reader) error) error {
	rule := c.hosts.Find(rawURL)
	host := hostOf(rawURL)
	if !rule.IsEnabled() {
		return rterrors.HostDisabled(host)
	}

	err := httputil.Retry(ctx, c.retries, c.retryDelay, func() error {
		body, err := c.doRequest(ctx, rawURL, rule, headers)
		if err != nil {
			return err
		}
		defer body.Close()
		return read(body)
	})
	if err != nil && rule.AbortOnError && errors.Is(err, ErrNetwork) {
		return rterrors.ExternalHost(host, err)
	}
	return err
}

// doRequest sends one request. A rule timeout that expires is a network
// failure; only cancellation of the caller's ctx is returned as ctx.Err().
func (c *Client) doRequest(ctx context.Context, rawURL string, rule HostRule, headers map[string]string) (io.ReadCloser, error) {
	if rule.Timeout > 0 {
		reqCtx, cancel := context.WithTimeout(ctx, rule.Timeout)
		body, err := c.send(ctx, reqCtx, rawURL, rule, headers)
		if err != nil {
			cancel()
			return nil, err
		}
		return &cancelOnClose{ReadCloser: body, cancel: cancel}, nil
	}
	return c.send(ctx, ctx, rawURL, rule, headers)
}

func (c *Client) send(parent, ctx context.Context, rawURL string, rule HostRule, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range rule.Headers {
		req.Header.Set(k, v)
	}
	if rule.Token != "" {
		authType := rule.AuthType
		if authType == "" {
			authType = "Bearer"
		}
		if authType == "PRIVATE-TOKEN" {
			req.Header.Set("PRIVATE-TOKEN", rule.Token)
		} else {
			req.Header.Set("Authorization", authType+" "+rule.Token)
		}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	path := pathOf(req.URL)
	hooks.OnRequest(ctx, req.Method, req.URL.Host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, path, err)
		if parent.Err() != nil {
			return nil, parent.Err()
		}
		return nil, httputil.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	hooks.OnResponse(ctx, req.Method, req.URL.Host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return ErrNotFound
	case code == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return httputil.Retryable(fmt.Errorf("%w: %w", ErrNetwork, &rterrors.RateLimitedError{RetryAfter: retryAfter}))
	case code >= 500:
		return httputil.Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrRequest, code)
	}
}

func pathOf(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.Path
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
