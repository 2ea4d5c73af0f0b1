// Package omdb is the OMDb metadata client behind the poster resolver.
package omdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/okian/marquee/internal/domain/failure"
	"github.com/okian/marquee/internal/domain/poster"
	"github.com/okian/marquee/pkg/logger"
	"github.com/okian/marquee/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultBaseURL         = "https://www.omdbapi.com/"
	defaultHTTPTimeout     = 15 * time.Second
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 30 * time.Second
	maxBodyBytes           = 1 << 20
	breakerName            = "omdb"
)

// response is the subset of an OMDb answer the client reads.
type response struct {
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	IMDbID   string `json:"imdbID"`
	Poster   string `json:"Poster"`
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// Client queries the OMDb API. It implements poster.Metadata.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[response]
	logger  logger.Logger

	breakerFailures uint32
	breakerTimeout  time.Duration
}

var _ poster.Metadata = (*Client)(nil)

// NewClient creates an OMDb client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:          apiKey,
		baseURL:         defaultBaseURL,
		http:            &http.Client{Timeout: defaultHTTPTimeout},
		breakerFailures: defaultBreakerFailures,
		breakerTimeout:  defaultBreakerTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("omdb")
	}
	c.breaker = c.newBreaker()
	return c
}

func (c *Client) newBreaker() *gobreaker.CircuitBreaker[response] {
	metrics.UpdateBreakerState(stateToFloat(gobreaker.StateClosed))

	failures := c.breakerFailures
	return gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     c.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// a miss, an unparsable body or a caller that went away is not an outage
		IsSuccessful: func(err error) bool {
			return err == nil ||
				failure.KindOf(err) == failure.KindMalformedResponse ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			c.logger.Warn(context.Background(), "circuit breaker state changed",
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
			metrics.UpdateBreakerState(stateToFloat(to))
			metrics.RecordBreakerTransition(from.String(), to.String())
		},
	})
}

// BreakerState reports the circuit breaker state: closed, half-open or open.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Lookup runs one query against the API.
//
// Transport failures, non-2xx statuses, rate limiter waits that cannot be
// satisfied and an open breaker are network failures. A body that is not
// valid JSON is a malformed-response failure. An OMDb "Response":"False"
// answer is a miss and yields an empty record.
func (c *Client) Lookup(ctx context.Context, q poster.Query) (poster.Record, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return poster.Record{}, failure.Wrap(failure.KindNetwork, err, "omdb rate limit wait")
		}
	}

	resp, err := c.breaker.Execute(func() (response, error) {
		return c.fetch(ctx, q)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return poster.Record{}, failure.Wrap(failure.KindNetwork, err, "omdb unavailable")
		}
		return poster.Record{}, err
	}

	if !strings.EqualFold(resp.Response, "true") {
		c.logger.Debug(ctx, "omdb reported no match",
			logger.String("query", describe(q)),
			logger.String("reason", resp.Error),
		)
		return poster.Record{}, nil
	}
	return poster.Record{Poster: resp.Poster}, nil
}

func (c *Client) fetch(ctx context.Context, q poster.Query) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(q), nil)
	if err != nil {
		return response{}, failure.Wrap(failure.KindNetwork, err, "build omdb request")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return response{}, failure.Wrap(failure.KindNetwork, err, "omdb request")
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return response{}, failure.Wrap(failure.KindNetwork, err, "read omdb response")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return response{}, failure.Newf(failure.KindNetwork, "omdb returned status %d", res.StatusCode)
	}

	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return response{}, failure.Wrap(failure.KindMalformedResponse, err, "decode omdb response")
	}
	return out, nil
}

func (c *Client) endpoint(q poster.Query) string {
	v := url.Values{}
	v.Set("apikey", c.apiKey)
	if q.ID != "" {
		v.Set("i", q.ID)
	} else {
		v.Set("t", q.Title)
		if q.Year != nil {
			v.Set("y", strconv.Itoa(*q.Year))
		}
	}
	return c.baseURL + "?" + v.Encode()
}

func describe(q poster.Query) string {
	if q.ID != "" {
		return "i=" + q.ID
	}
	if q.Year != nil {
		return fmt.Sprintf("t=%s y=%d", q.Title, *q.Year)
	}
	return "t=" + q.Title
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
