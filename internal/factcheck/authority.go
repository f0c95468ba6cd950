package factcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/vzaikin/claimlens/internal/cache"
)

// AuthorityResult is a hit from an external fact-check index.
type AuthorityResult struct {
	Rating    string
	Publisher string
	URL       string
	Title     string
}

// AuthorityClient queries a pre-existing fact-check index by claim text.
// A (nil, nil) return is a miss.
type AuthorityClient interface {
	Lookup(ctx context.Context, claimText string) (*AuthorityResult, error)
}

// GoogleAuthorityClient queries the Google Fact Check Tools claim search
// API. Lookups are cached so executor retries and repeated claims do not
// burn quota; with a disk-backed cache, repeated CLI runs do not either.
type GoogleAuthorityClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	cache      cache.Cache
	ttl        time.Duration
}

// GoogleAuthorityConfig configures the client.
type GoogleAuthorityConfig struct {
	Endpoint string
	APIKey   string
	Timeout  int         // seconds, 0 means 15
	CacheTTL int         // minutes, 0 means 60
	Cache    cache.Cache // nil means in-memory only
}

// NewGoogleAuthorityClient creates the client.
func NewGoogleAuthorityClient(cfg GoogleAuthorityConfig) (*GoogleAuthorityClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("fact check API key is required")
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	ttl := time.Duration(cfg.CacheTTL) * time.Minute
	if ttl == 0 {
		ttl = time.Hour
	}
	store := cfg.Cache
	if store == nil {
		store = cache.NewMemoryCache(ttl, 2*ttl)
	}
	return &GoogleAuthorityClient{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		cache:      store,
		ttl:        ttl,
	}, nil
}

// claimSearchResponse is the subset of the Fact Check Tools schema we read.
type claimSearchResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
			} `json:"publisher"`
			URL           string `json:"url"`
			Title         string `json:"title"`
			TextualRating string `json:"textualRating"`
		} `json:"claimReview"`
	} `json:"claims"`
}

// cachedLookup is the cache entry shape. Misses are cached too, so a claim
// that found nothing is not re-queried within the TTL.
type cachedLookup struct {
	Hit    bool             `json:"hit"`
	Result *AuthorityResult `json:"result,omitempty"`
}

// Lookup searches the index for the claim text.
func (c *GoogleAuthorityClient) Lookup(ctx context.Context, claimText string) (*AuthorityResult, error) {
	key := cache.Key(claimText)
	if data, found := c.cache.Get(key); found {
		var entry cachedLookup
		if err := json.Unmarshal(data, &entry); err == nil {
			return entry.Result, nil
		}
	}

	reqURL := fmt.Sprintf("%s?query=%s&key=%s",
		c.endpoint, url.QueryEscape(claimText), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fact check lookup: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fact check lookup: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read fact check response: %w", err)
	}

	var parsed claimSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse fact check response: %w", err)
	}

	result := firstReview(parsed)
	if data, err := json.Marshal(cachedLookup{Hit: result != nil, Result: result}); err == nil {
		_ = c.cache.Set(key, data, c.ttl)
	}
	return result, nil
}

func firstReview(parsed claimSearchResponse) *AuthorityResult {
	for _, claim := range parsed.Claims {
		for _, review := range claim.ClaimReview {
			if review.TextualRating == "" {
				continue
			}
			return &AuthorityResult{
				Rating:    review.TextualRating,
				Publisher: review.Publisher.Name,
				URL:       review.URL,
				Title:     review.Title,
			}
		}
	}
	return nil
}
