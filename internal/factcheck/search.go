package factcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vzaikin/claimlens/internal/worker"
)

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchClient runs one web search query.
type SearchClient interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// BraveSearchClient queries the Brave web search API. Calls are rate
// limited per host through the shared limiter.
type BraveSearchClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	maxResults int
	limiter    *worker.Limiter
}

// BraveSearchConfig configures the client.
type BraveSearchConfig struct {
	Endpoint   string
	APIKey     string
	Timeout    int // seconds, 0 means 20
	MaxResults int // per query, 0 means 5
}

// NewBraveSearchClient creates the client.
func NewBraveSearchClient(cfg BraveSearchConfig, limiter *worker.Limiter) (*BraveSearchClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("search API key is required")
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	if limiter == nil {
		limiter = worker.NewLimiter(1, 1)
	}
	return &BraveSearchClient{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		maxResults: maxResults,
		limiter:    limiter,
	}, nil
}

func (c *BraveSearchClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if err := c.limiter.Wait(ctx, c.endpoint); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s?q=%s&count=%d", c.endpoint, url.QueryEscape(query), c.maxResults)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	var parsed struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	results := make([]SearchResult, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Description,
		})
	}
	return results, nil
}

// DedupeByURL drops results whose URL was already seen, preserving order.
func DedupeByURL(results []SearchResult) []SearchResult {
	seen := make(map[string]bool, len(results))
	out := results[:0:0]
	for _, r := range results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, r)
	}
	return out
}

// gatherEvidence runs all queries for one claim in parallel and returns the
// deduplicated aggregate. A failed query degrades to zero results for that
// query; it never fails the claim.
func gatherEvidence(ctx context.Context, client SearchClient, queries []string, logger *zap.Logger) []SearchResult {
	perQuery := make([][]SearchResult, len(queries))
	var wg sync.WaitGroup

	for i, q := range queries {
		wg.Add(1)
		go func(idx int, query string) {
			defer wg.Done()
			results, err := client.Search(ctx, query)
			if err != nil {
				logger.Warn("search query failed", zap.String("query", query), zap.Error(err))
				return
			}
			perQuery[idx] = results
		}(i, q)
	}
	wg.Wait()

	var aggregate []SearchResult
	for _, results := range perQuery {
		aggregate = append(aggregate, results...)
	}
	return DedupeByURL(aggregate)
}
