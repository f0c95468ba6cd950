package factcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"go.uber.org/zap"
)

func TestBraveSearchClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Subscription-Token"); got != "test-key" {
			t.Errorf("X-Subscription-Token = %q, want test-key", got)
		}
		if got := r.URL.Query().Get("q"); got != "eiffel tower height" {
			t.Errorf("q = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"web": {"results": [
			{"title": "Wikipedia", "url": "https://en.wikipedia.org/eiffel", "description": "330m"},
			{"title": "No URL", "url": "", "description": "dropped"}]}}`))
	}))
	defer server.Close()

	client, err := NewBraveSearchClient(BraveSearchConfig{
		Endpoint: server.URL,
		APIKey:   "test-key",
	}, nil)
	if err != nil {
		t.Fatalf("NewBraveSearchClient failed: %v", err)
	}

	results, err := client.Search(context.Background(), "eiffel tower height")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result (URL-less hit dropped), got %d", len(results))
	}
	if results[0].URL != "https://en.wikipedia.org/eiffel" || results[0].Snippet != "330m" {
		t.Errorf("Result = %+v", results[0])
	}
}

func TestBraveSearchClient_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, _ := NewBraveSearchClient(BraveSearchConfig{Endpoint: server.URL, APIKey: "k"}, nil)
	if _, err := client.Search(context.Background(), "q"); err == nil {
		t.Error("Expected error for non-OK status")
	}
}

func TestNewBraveSearchClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewBraveSearchClient(BraveSearchConfig{}, nil); err == nil {
		t.Error("Expected error without API key")
	}
}

func TestDedupeByURL(t *testing.T) {
	in := []SearchResult{
		{URL: "https://a.example.com", Title: "first"},
		{URL: "https://b.example.com"},
		{URL: "https://a.example.com", Title: "duplicate"},
		{URL: ""},
	}

	out := DedupeByURL(in)
	want := []SearchResult{
		{URL: "https://a.example.com", Title: "first"},
		{URL: "https://b.example.com"},
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("DedupeByURL = %+v, want %+v", out, want)
	}
}

type queryAwareSearch struct {
	byQuery map[string][]SearchResult
	errFor  string
}

func (s *queryAwareSearch) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if query == s.errFor {
		return nil, errors.New("query failed")
	}
	return s.byQuery[query], nil
}

func TestGatherEvidence_AggregatesAndDegrades(t *testing.T) {
	search := &queryAwareSearch{
		byQuery: map[string][]SearchResult{
			"q1": {{URL: "https://a.example.com"}, {URL: "https://shared.example.com"}},
			"q2": {{URL: "https://shared.example.com"}, {URL: "https://b.example.com"}},
		},
		errFor: "q3",
	}

	evidence := gatherEvidence(context.Background(), search, []string{"q1", "q2", "q3"}, zap.NewNop())

	if len(evidence) != 3 {
		t.Fatalf("Expected 3 deduplicated results, got %d: %+v", len(evidence), evidence)
	}
	seen := make(map[string]bool)
	for _, ev := range evidence {
		if seen[ev.URL] {
			t.Errorf("Duplicate URL %s survived dedupe", ev.URL)
		}
		seen[ev.URL] = true
	}
}

func TestGatherEvidence_AllQueriesFail(t *testing.T) {
	search := &fakeSearch{err: errors.New("down")}
	evidence := gatherEvidence(context.Background(), search, []string{"q1", "q2"}, zap.NewNop())
	if len(evidence) != 0 {
		t.Errorf("Expected no evidence, got %+v", evidence)
	}
}
