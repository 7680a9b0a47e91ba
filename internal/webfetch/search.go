package webfetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/runnerr0/recollect/internal/retry"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// SearchResult is one web search hit.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// ErrMissingAPIKey is returned when a SearchClient is built without a key.
var ErrMissingAPIKey = errors.New("webfetch: Brave Search API key is required")

// SearchClient queries the Brave Search API. Rate limits and timeouts are
// retried with exponential backoff; other API errors are fatal.
type SearchClient struct {
	APIKey   string
	Endpoint string // defaults to the Brave endpoint; tests override
	Client   *http.Client
	Policy   retry.Policy
	Logger   *slog.Logger
}

// NewSearchClient builds a SearchClient, failing fast on a missing key.
func NewSearchClient(apiKey string) (*SearchClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &SearchClient{
		APIKey:   apiKey,
		Endpoint: braveEndpoint,
		Client:   &http.Client{Timeout: 10 * time.Second},
		Policy:   retry.Policy{MaxAttempts: 3, BaseDelay: time.Second},
	}, nil
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search runs a web search and returns up to count results.
func (c *SearchClient) Search(ctx context.Context, query string, count int) ([]SearchResult, error) {
	if count <= 0 {
		count = 5
	}

	var results []SearchResult
	policy := c.Policy
	policy.Logger = c.Logger
	err := retry.Do(ctx, policy, "brave_search", func(ctx context.Context) error {
		var err error
		results, err = c.searchOnce(ctx, query, count)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("web search failed: %w", err)
	}
	return results, nil
}

func (c *SearchClient) searchOnce(ctx context.Context, query string, count int) ([]SearchResult, error) {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = braveEndpoint
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("X-Subscription-Token", c.APIKey)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, retry.Retryable(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, retry.Retryable(fmt.Errorf("rate limited (HTTP 429)"))
	case resp.StatusCode >= 500:
		return nil, retry.Retryable(fmt.Errorf("server error (HTTP %d)", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, DefaultMaxResponseBytes))
	if err != nil {
		return nil, retry.Retryable(err)
	}

	var parsed braveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]SearchResult, 0, count)
	for _, r := range parsed.Web.Results {
		if len(results) >= count {
			break
		}
		results = append(results, SearchResult{Title: r.Title, URL: r.URL, Description: r.Description})
	}
	return results, nil
}
