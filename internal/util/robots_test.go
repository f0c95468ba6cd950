package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRobotsChecker_DisallowedPath(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\nCrawl-delay: 2\n"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	checker := NewRobotsChecker("testbot/1.0", 5*time.Second)

	allowed, delay, err := checker.CanFetch(context.Background(), server.URL+"/private/page")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if allowed {
		t.Error("Expected /private/ to be disallowed")
	}
	if delay != 2*time.Second {
		t.Errorf("Crawl delay = %v, want 2s", delay)
	}

	allowed, _, err = checker.CanFetch(context.Background(), server.URL+"/public/page")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("Expected /public/ to be allowed")
	}
}

func TestRobotsChecker_CachesPerHost(t *testing.T) {
	var fetches int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		_, _ = w.Write([]byte("User-agent: *\nDisallow:\n"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	checker := NewRobotsChecker("testbot/1.0", 5*time.Second)

	for i := 0; i < 3; i++ {
		if _, _, err := checker.CanFetch(context.Background(), server.URL+"/page"); err != nil {
			t.Fatalf("CanFetch %d failed: %v", i, err)
		}
	}
	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", n)
	}
}

func TestRobotsChecker_UnreachableRobotsAllows(t *testing.T) {
	checker := NewRobotsChecker("testbot/1.0", 100*time.Millisecond)

	// Port 1 refuses connections; fetch should be allowed anyway.
	allowed, _, err := checker.CanFetch(context.Background(), "http://127.0.0.1:1/page")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("Unreachable robots.txt must not block the fetch")
	}
}

func TestRobotsChecker_MalformedURL(t *testing.T) {
	checker := NewRobotsChecker("testbot/1.0", time.Second)
	if _, _, err := checker.CanFetch(context.Background(), "://bad"); err == nil {
		t.Error("Expected error for malformed URL")
	}
}
