package factcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/vzaikin/claimlens/internal/util"
	"github.com/vzaikin/claimlens/internal/worker"
)

const (
	enrichUserAgent   = "claimlens/0.1 (+https://github.com/vzaikin/claimlens)"
	enrichMaxBytes    = 512 * 1024
	enrichSnippetLen  = 600
	shortSnippetBelow = 120
)

var errDisallowed = errors.New("robots.txt disallows fetch")

// Enricher expands short search snippets by fetching the result page and
// extracting its visible text. Strictly best-effort: any failure, robots.txt
// disallow, or oversized page leaves the original snippet in place. Fetches
// share the outbound per-host rate limiter.
type Enricher struct {
	httpClient *http.Client
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	logger     *zap.Logger
}

// NewEnricher creates an enricher.
func NewEnricher(limiter *worker.Limiter, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = worker.NewLimiter(1, 1)
	}
	return &Enricher{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		robots:     util.NewRobotsChecker(enrichUserAgent, 10*time.Second),
		limiter:    limiter,
		logger:     logger,
	}
}

// Enrich returns the evidence with short snippets expanded where possible.
func (e *Enricher) Enrich(ctx context.Context, evidence []SearchResult) []SearchResult {
	out := make([]SearchResult, len(evidence))
	copy(out, evidence)

	for i := range out {
		if len(out[i].Snippet) >= shortSnippetBelow {
			continue
		}
		text, err := e.fetchText(ctx, out[i].URL)
		if err != nil {
			e.logger.Debug("snippet enrichment skipped",
				zap.String("url", out[i].URL), zap.Error(err))
			continue
		}
		if len(text) > len(out[i].Snippet) {
			out[i].Snippet = text
		}
	}
	return out
}

func (e *Enricher) fetchText(ctx context.Context, pageURL string) (string, error) {
	allowed, crawlDelay, err := e.robots.CanFetch(ctx, pageURL)
	if err != nil {
		return "", err
	}
	if !allowed {
		return "", errDisallowed
	}

	if err := e.limiter.WaitWithDelay(ctx, pageURL, crawlDelay); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", enrichUserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, enrichMaxBytes))
	if err != nil {
		return "", err
	}

	text := visibleText(string(body))
	if len(text) > enrichSnippetLen {
		text = text[:enrichSnippetLen]
	}
	return strings.TrimSpace(text), nil
}

// visibleText extracts text nodes from HTML, skipping script/style blocks.
func visibleText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return buf.String()
}
