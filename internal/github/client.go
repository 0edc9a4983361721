package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pushrelay/internal/constants"
	"pushrelay/internal/logger"
	"pushrelay/pkg/telemetry"
)

// HTTPClient allows swapping the transport in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL    string
	token      string
	httpClient HTTPClient
	sink       telemetry.Sink
	logger     logger.Logger
}

func NewClient(baseURL, token string, httpClient HTTPClient, sink telemetry.Sink, log logger.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.DefaultHTTPTimeout}
	}
	if sink == nil {
		sink = telemetry.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger()
	}

	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
		sink:       sink,
		logger:     log,
	}
}

// ListUserEvents fetches one page of a user's public events, newest first.
func (c *Client) ListUserEvents(ctx context.Context, user string, perPage, page int) ([]Event, error) {
	reqURL := fmt.Sprintf("%s/users/%s/events?per_page=%d&page=%d", c.baseURL, url.PathEscape(user), perPage, page)

	var events []Event
	if err := c.doRequest(ctx, reqURL, &events); err != nil {
		return nil, fmt.Errorf("failed to list events for %s: %w", user, err)
	}

	return events, nil
}

// GetCommit fetches the full commit detail behind an event's commit URL.
func (c *Client) GetCommit(ctx context.Context, commitURL string) (*FullCommit, error) {
	var commit FullCommit
	if err := c.doRequest(ctx, commitURL, &commit); err != nil {
		return nil, fmt.Errorf("failed to fetch commit: %w", err)
	}

	return &commit, nil
}

func (c *Client) doRequest(ctx context.Context, reqURL string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "pushrelay-poller")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.sink.ObserveRequest(req.URL.Host, http.MethodGet, 0, time.Since(start))
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.sink.ObserveRequest(req.URL.Host, http.MethodGet, resp.StatusCode, time.Since(start))
	c.observeRateLimit(ctx, resp)

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("github returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// observeRateLimit surfaces GitHub quota headers as telemetry. Observation
// only; responses are handled the same whatever the remaining quota says.
func (c *Client) observeRateLimit(ctx context.Context, resp *http.Response) {
	remainingHeader := resp.Header.Get("X-RateLimit-Remaining")
	if remainingHeader == "" {
		return
	}

	remaining, err := strconv.Atoi(remainingHeader)
	if err != nil {
		return
	}

	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))

	var reset time.Time
	if resetUnix, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		reset = time.Unix(resetUnix, 0)
	}

	resource := resp.Header.Get("X-RateLimit-Resource")
	if resource == "" {
		resource = "core"
	}

	c.sink.ObserveRateLimit(telemetry.RateLimit{
		Resource:  resource,
		Limit:     limit,
		Remaining: remaining,
		Reset:     reset,
	})

	c.logger.DebugwCtx(ctx, "GitHub rate limit",
		"resource", resource,
		"limit", limit,
		"remaining", remaining,
		"reset", reset,
	)
}
