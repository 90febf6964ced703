package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperifyio/textcorpus/internal/cache"
)

// DefaultTimeout bounds a single retrieval when Client.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// DefaultMaxBodyBytes is the largest body accepted; bigger responses fail.
const DefaultMaxBodyBytes = 32 << 20

// DefaultUserAgents is rotated through when Client.UserAgent is empty.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Edge/120.0.0.0",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
}

// Response is the raw outcome of a successful retrieval.
type Response struct {
	URL         string
	Body        []byte
	ContentType string
	Status      int
	// FromCache is true when a 304 was answered from the on-disk cache.
	FromCache bool
}

// Error describes a failed retrieval with a short human-readable reason.
type Error struct {
	URL    string
	Reason string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Client performs exactly one GET per call and never retries.
type Client struct {
	HTTPClient *http.Client
	// UserAgent is sent on every request. Empty picks one of DefaultUserAgents.
	UserAgent string
	// Timeout bounds the request including the body read. Zero means DefaultTimeout.
	Timeout time.Duration
	// RedirectMaxHops caps redirect following. Zero means 10.
	RedirectMaxHops int
	// MaxBodyBytes rejects larger bodies. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// Cache enables conditional requests against a previous response.
	Cache *cache.HTTPCache
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{CheckRedirect: c.checkRedirectFunc()}
}

func (c *Client) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return DefaultUserAgents[rand.Intn(len(DefaultUserAgents))]
}

// Get retrieves rawURL once, bounded by the client timeout.
func (c *Client) Get(ctx context.Context, rawURL string) (Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Response{}, &Error{URL: rawURL, Reason: "invalid url", Err: err}
	}
	if !isHTTPScheme(u) {
		return Response{}, &Error{URL: rawURL, Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Response{}, &Error{URL: rawURL, Reason: "new request", Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")

	var cached *cache.Entry
	if c.Cache != nil {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			cached = meta
			if meta.ETag != "" {
				req.Header.Set("If-None-Match", meta.ETag)
			}
			if meta.LastModified != "" {
				req.Header.Set("If-Modified-Since", meta.LastModified)
			}
		}
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return Response{}, &Error{URL: rawURL, Reason: classify(ctx, err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		body, err := c.Cache.LoadBody(ctx, rawURL)
		if err != nil {
			return Response{}, &Error{URL: rawURL, Reason: "cache miss after 304", Status: resp.StatusCode, Err: err}
		}
		return Response{URL: rawURL, Body: body, ContentType: cached.ContentType, Status: resp.StatusCode, FromCache: true}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, &Error{URL: rawURL, Reason: fmt.Sprintf("status %d", resp.StatusCode), Status: resp.StatusCode}
	}

	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return Response{}, &Error{URL: rawURL, Reason: classify(ctx, err), Status: resp.StatusCode, Err: err}
	}
	if int64(len(body)) > limit {
		return Response{}, &Error{URL: rawURL, Reason: "body too large", Status: resp.StatusCode}
	}
	ct := resp.Header.Get("Content-Type")
	if c.Cache != nil {
		_ = c.Cache.Save(ctx, rawURL, ct, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), body)
	}
	return Response{URL: rawURL, Body: body, ContentType: ct, Status: resp.StatusCode}, nil
}

func classify(ctx context.Context, err error) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return "timeout"
	}
	if errors.Is(err, errTooManyRedirects) || errors.Is(err, errRedirectScheme) {
		return "redirect"
	}
	return "connection error"
}

var (
	errTooManyRedirects = errors.New("too many redirects")
	errRedirectScheme   = errors.New("redirect to unsupported scheme")
)

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 10
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errTooManyRedirects
		}
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errRedirectScheme
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
