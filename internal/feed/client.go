package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/pulseboard/pulseboard/pkg/types"
)

// Client is an HTTP implementation of Searcher against the feed's
// recent-search endpoint. Search calls run through a circuit breaker so a
// misbehaving feed fails fast instead of eating the invocation's time budget.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenProvider
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger

	bearer string
}

var _ Searcher = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// WithClientLogger sets the client's logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(cl *Client) { cl.logger = l }
}

// NewClient creates a feed search client.
func NewClient(baseURL string, tokens TokenProvider, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("feed base URL required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("feed token provider required")
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "feed-search",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("feed search breaker state change", "from", from.String(), "to", to.String())
		},
	})
	return c, nil
}

// Authenticate resolves the bearer token for this invocation. Credentials are
// not re-validated per search call.
func (c *Client) Authenticate(ctx context.Context) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("authenticating against feed search: %w", err)
	}
	c.bearer = token
	return nil
}

// searchResponse is the wire shape of the recent-search endpoint.
type searchResponse struct {
	Data []struct {
		Text string `json:"text"`
		URI  string `json:"uri"`
	} `json:"data"`
}

// Search returns up to limit posts matching query. The limit is clamped to
// the endpoint's 1..100 range.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]types.Post, error) {
	if c.bearer == "" {
		return nil, fmt.Errorf("feed search called before Authenticate")
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxSearchResults {
		limit = MaxSearchResults
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doSearch(ctx, query, limit)
	})
	if err != nil {
		return nil, err
	}
	return out.([]types.Post), nil
}

func (c *Client) doSearch(ctx context.Context, query string, limit int) ([]types.Post, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("max_results", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search/recent?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed search request for %q: %w", query, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("feed search for %q: status %d: %s", query, resp.StatusCode, string(body))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	posts := make([]types.Post, 0, len(sr.Data))
	for _, d := range sr.Data {
		posts = append(posts, types.Post{Text: d.Text, URI: d.URI})
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}
