package factcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestVisibleText(t *testing.T) {
	page := `<html><head><title>ignored</title><style>.x{}</style></head>
	<body><script>var x = "ignored";</script>
	<h1>Eiffel Tower</h1><p>The tower is <b>330 meters</b> tall.</p>
	<noscript>ignored too</noscript></body></html>`

	text := visibleText(page)

	for _, want := range []string{"Eiffel Tower", "330 meters", "tall."} {
		if !strings.Contains(text, want) {
			t.Errorf("Visible text missing %q: %q", want, text)
		}
	}
	for _, skip := range []string{"ignored", "var x"} {
		if strings.Contains(text, skip) {
			t.Errorf("Visible text leaked %q: %q", skip, text)
		}
	}
}

func TestEnricher_ExpandsShortSnippets(t *testing.T) {
	longText := strings.Repeat("The tower is 330 meters tall. ", 10)
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow:\n"))
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>" + longText + "</p></body></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	e := NewEnricher(nil, nil)
	evidence := []SearchResult{
		{URL: server.URL + "/page", Snippet: "short"},
		{URL: server.URL + "/page", Snippet: strings.Repeat("long snippet ", 20)},
	}

	out := e.Enrich(context.Background(), evidence)

	if len(out[0].Snippet) <= len("short") {
		t.Errorf("Short snippet was not expanded: %q", out[0].Snippet)
	}
	if out[1].Snippet != evidence[1].Snippet {
		t.Error("Long snippet should be left untouched")
	}
	// Input slice must not be mutated.
	if evidence[0].Snippet != "short" {
		t.Error("Enrich mutated its input")
	}
}

func TestEnricher_DisallowedPageKeepsSnippet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /\n"))
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		t.Error("Page fetched despite robots.txt disallow")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	e := NewEnricher(nil, nil)
	out := e.Enrich(context.Background(), []SearchResult{
		{URL: server.URL + "/page", Snippet: "short"},
	})

	if out[0].Snippet != "short" {
		t.Errorf("Snippet = %q, want original preserved", out[0].Snippet)
	}
}

func TestEnricher_ErrorPageKeepsSnippet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow:\n"))
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	e := NewEnricher(nil, nil)
	out := e.Enrich(context.Background(), []SearchResult{
		{URL: server.URL + "/page", Snippet: "short"},
	})

	if out[0].Snippet != "short" {
		t.Errorf("Snippet = %q, want original preserved", out[0].Snippet)
	}
}
