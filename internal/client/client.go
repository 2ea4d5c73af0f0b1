// Package client talks to the marquee HTTP API.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/okian/marquee/internal/domain/model"
	"github.com/okian/marquee/pkg/logger"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client is a thin wrapper over the recommendation endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logger.Logger
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("client")
	}
	return c
}

// Health returns nil when the service answers its liveness probe.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if _, err := c.get(ctx, "/healthz", nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("%w: status %q", ErrUnhealthy, out.Status)
	}
	return nil
}

// Movies lists the catalog titles.
func (c *Client) Movies(ctx context.Context) ([]string, error) {
	var out struct {
		Titles []string `json:"titles"`
	}
	if _, err := c.get(ctx, "/movies", nil, &out); err != nil {
		return nil, err
	}
	return out.Titles, nil
}

// Recommend fetches recommendations for title. A title the catalog does not
// know yields the (empty) answer together with an *APIError of status 404.
func (c *Client) Recommend(ctx context.Context, title string) (model.Recommendations, error) {
	var out model.Recommendations
	status, err := c.get(ctx, "/recommendations", url.Values{"title": {title}}, &out)
	if err != nil {
		return out, err
	}
	if status == http.StatusNotFound {
		return out, &APIError{Status: status, Code: "not_found", Message: strings.Join(out.Warnings, "; ")}
	}
	return out, nil
}

// Poster resolves a single poster. id and year are optional.
func (c *Client) Poster(ctx context.Context, title, id string, year *int) (model.PosterAnswer, error) {
	q := url.Values{"title": {title}}
	if id != "" {
		q.Set("id", id)
	}
	if year != nil {
		q.Set("year", strconv.Itoa(*year))
	}
	var out model.PosterAnswer
	_, err := c.get(ctx, "/posters", q, &out)
	return out, err
}

// Stats fetches the service statistics.
func (c *Client) Stats(ctx context.Context) (model.Stats, error) {
	var out model.Stats
	_, err := c.get(ctx, "/stats", nil, &out)
	return out, err
}

// get decodes a JSON body into out. 404 from /recommendations carries a
// regular body, so it is decoded rather than turned into an APIError.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) (int, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read %s: %w", path, err)
	}
	c.logger.Debug(ctx, "api response",
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Int("bytes", len(body)),
	)

	if resp.StatusCode == http.StatusOK || (resp.StatusCode == http.StatusNotFound && path == "/recommendations") {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
		}
		return resp.StatusCode, nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
	}
	return resp.StatusCode, apiErr
}
