// internal/adapters/transparent/client.go
package transparent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"transparent_roi/internal/adapters/observability"
	"transparent_roi/internal/domain"
)

const (
	BaseURI            = "https://listingroiapi.seetransparent.com/"
	EndpointAggregated = "aggregated"
	EndpointListings   = "listings"

	service      = "transparent"
	maxBodyBytes = 16 << 20
)

type callState int

const (
	notStarted callState = iota
	requested
	decoded
	unfulfilled
)

// exchange is the memoized request/response pair for one endpoint.
type exchange struct {
	endpoint string
	state    callState
	status   int
	body     []byte
}

func (e *exchange) served() bool {
	return e.status >= 200 && e.status < 300 && len(bytes.TrimSpace(e.body)) > 0
}

// Client queries the listing ROI API for a single set of filters.
// Use a fresh Client per query; an instance must not be shared across goroutines.
type Client struct {
	base  string
	hc    *http.Client
	cfg   *Configuration
	rl    *rate.Limiter
	query NormalizedQuery

	agg, lst exchange

	aggregated *domain.AggregatedResult
	listings   []domain.ListingResult
}

type Option func(*Client)

// WithBaseURL points the client at another host (test servers, proxies).
func WithBaseURL(base string) Option {
	return func(c *Client) { c.base = strings.TrimRight(base, "/") + "/" }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithRateLimiter shares one limiter across clients so a process stays under the API quota.
func WithRateLimiter(rl *rate.Limiter) Option {
	return func(c *Client) { c.rl = rl }
}

func New(cfg *Configuration, f domain.QueryFilters, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrMissingConfiguration
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		base:  BaseURI,
		hc:    &http.Client{Timeout: 20 * time.Second},
		cfg:   cfg,
		query: Normalize(f),
		agg:   exchange{endpoint: EndpointAggregated},
		lst:   exchange{endpoint: EndpointListings},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Factory adapts New to domain.ClientFactory.
func Factory(cfg *Configuration, opts ...Option) domain.ClientFactory {
	return func(f domain.QueryFilters) (domain.PricingClient, error) {
		return New(cfg, f, opts...)
	}
}

// ---- Public API ----

// Aggregated fetches the market summary. A non-2xx status or an empty body
// yields an unfulfilled outcome; a malformed 2xx body is an error.
func (c *Client) Aggregated(ctx context.Context) (domain.Outcome[domain.AggregatedResult], error) {
	key, err := c.cfg.APIKey()
	if err != nil {
		return domain.Unfulfilled[domain.AggregatedResult](), err
	}
	if err := c.fetch(ctx, key, &c.agg); err != nil {
		return domain.Unfulfilled[domain.AggregatedResult](), err
	}
	if !c.agg.served() {
		c.agg.state = unfulfilled
		return domain.Unfulfilled[domain.AggregatedResult](), nil
	}
	a, err := c.decodedAggregated()
	if err != nil {
		return domain.Unfulfilled[domain.AggregatedResult](), err
	}
	return domain.Fulfilled(a), nil
}

// Combined fetches the summary and the listings concurrently and waits for both.
// Either side failing to serve makes the whole outcome unfulfilled.
func (c *Client) Combined(ctx context.Context) (domain.Outcome[domain.CombinedResult], error) {
	none := domain.Unfulfilled[domain.CombinedResult]()

	key, err := c.cfg.APIKey()
	if err != nil {
		return none, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.fetch(gctx, key, &c.agg) })
	g.Go(func() error { return c.fetch(gctx, key, &c.lst) })
	if err := g.Wait(); err != nil {
		return none, err
	}

	aggOK, lstOK := c.agg.served(), c.lst.served()
	if !aggOK {
		c.agg.state = unfulfilled
	}
	if !lstOK {
		c.lst.state = unfulfilled
	}
	if !aggOK || !lstOK {
		log.Debug().
			Int("aggregated_status", c.agg.status).
			Int("listings_status", c.lst.status).
			Msg("combined query unfulfilled")
		return none, nil
	}

	a, err := c.decodedAggregated()
	if err != nil {
		return none, err
	}
	ls, err := c.decodedListings()
	if err != nil {
		return none, err
	}
	return domain.Fulfilled(domain.CombinedResult{Aggregated: a, Listings: ls}), nil
}

// ---- Internals ----

func (c *Client) decodedAggregated() (domain.AggregatedResult, error) {
	if c.agg.state == decoded {
		return *c.aggregated, nil
	}
	a, err := decodeAggregated(c.agg.body)
	if err != nil {
		return domain.AggregatedResult{}, err
	}
	c.aggregated = &a
	c.agg.state = decoded
	return a, nil
}

func (c *Client) decodedListings() ([]domain.ListingResult, error) {
	if c.lst.state == decoded {
		return c.listings, nil
	}
	ls, err := decodeListings(c.lst.body)
	if err != nil {
		return nil, err
	}
	c.listings = ls
	c.lst.state = decoded
	return ls, nil
}

// fetch issues the GET for ex once; later calls reuse the stored response.
// Transport failures are recorded as status 0 so they read as "not served".
func (c *Client) fetch(ctx context.Context, key string, ex *exchange) error {
	if ex.state != notStarted {
		return nil
	}
	if c.rl != nil {
		if err := c.rl.Wait(ctx); err != nil {
			return err
		}
	}

	u := c.base + ex.endpoint + "?" + c.query.Values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("transparent: build %s request: %w", ex.endpoint, err)
	}
	req.Header.Set("apikey", key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "transparent-roi/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		observability.ObserveExternal(service, ex.endpoint, 0, time.Since(start))
		log.Warn().Err(err).Str("endpoint", ex.endpoint).Msg("transparent request failed")
		ex.state, ex.status, ex.body = requested, 0, nil
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// a half-read body is treated like no body at all
		log.Warn().Err(err).Str("endpoint", ex.endpoint).Msg("transparent response read failed")
		body = nil
	}
	observability.ObserveExternal(service, ex.endpoint, resp.StatusCode, time.Since(start))

	ex.state, ex.status, ex.body = requested, resp.StatusCode, body
	return nil
}
