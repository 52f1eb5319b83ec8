// Package gh wraps the GitHub API client behind the read-through cache and
// exposes the read/write surface the compliance checks consume.
package gh

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/flemzord/github-compliance-sub000/internal/cache"
	"github.com/google/go-github/v81/github"
	"golang.org/x/oauth2"
)

type Client struct {
	api   *github.Client
	http  *http.Client
	cache *cache.Cache

	// org is the organization context; empty means the authenticated user.
	org string
}

type options struct {
	verbose bool
	// writer controls where verbose HTTP logs go (typically stderr) so
	// structured output on stdout stays clean and tests can capture logs.
	writer    io.Writer
	cache     *cache.Cache
	org       string
	transport http.RoundTripper
}

type Option func(*options)

func WithVerbose(enabled bool, writer io.Writer) Option {
	return func(o *options) {
		o.verbose = enabled
		o.writer = writer
	}
}

func WithCache(c *cache.Cache) Option {
	return func(o *options) { o.cache = c }
}

func WithOrganization(org string) Option {
	return func(o *options) { o.org = org }
}

// WithTransport replaces the base HTTP transport. Tests use this to serve
// canned API responses.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// loggingRoundTripper emits one line per request and response (including
// latency) when verbose logging is enabled.
type loggingRoundTripper struct {
	base http.RoundTripper
	w    io.Writer
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	if t.w != nil {
		_, _ = fmt.Fprintf(t.w, "[verbose] github api: %s %s\n", req.Method, req.URL.String())
	}
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start)
	if t.w != nil {
		if err != nil {
			_, _ = fmt.Fprintf(t.w, "[verbose] github api: error after %s: %v\n", dur.Truncate(time.Millisecond), err)
		} else {
			_, _ = fmt.Fprintf(t.w, "[verbose] github api: %d %s (%s)\n", resp.StatusCode, http.StatusText(resp.StatusCode), dur.Truncate(time.Millisecond))
		}
	}
	return resp, err
}

func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.verbose && o.writer == nil {
		o.writer = os.Stderr
	}

	transport := o.transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if o.verbose {
		transport = &loggingRoundTripper{base: transport, w: o.writer}
	}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	hc := &http.Client{Transport: transport}

	return &Client{
		api:   github.NewClient(hc),
		http:  hc,
		cache: o.cache,
		org:   o.org,
	}, nil
}

// Organization returns the configured organization context, or "" for the
// authenticated user.
func (c *Client) Organization() string {
	return c.org
}

// cacheOwner scopes cache keys. The sentinel keeps per-user entries from
// colliding with per-org entries.
func (c *Client) cacheOwner() string {
	if c.org == "" {
		return cache.SelfOwner
	}
	return c.org
}
