package news

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/locallens/internal/security"
)

// testWriter はテストログへの出力アダプタ。
type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, nil))
}

func newTestGNewsClient(t *testing.T, handler http.HandlerFunc) *GNewsClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewGNewsClient(
		&http.Client{Timeout: 5 * time.Second},
		testLogger(t),
		security.NewTextSanitizer(),
		GNewsConfig{
			BaseURL:     server.URL,
			APIKey:      "test-key",
			Language:    "en",
			MaxArticles: 10,
		},
	)
}

func TestGNewsSearch_ReturnsArticles(t *testing.T) {
	client := newTestGNewsClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q, want /search", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Austin" {
			t.Errorf("q = %q, want %q", q.Get("q"), "Austin")
		}
		if q.Get("token") != "test-key" {
			t.Errorf("token = %q, want %q", q.Get("token"), "test-key")
		}
		if q.Get("lang") != "en" {
			t.Errorf("lang = %q, want %q", q.Get("lang"), "en")
		}
		if q.Get("max") != "10" {
			t.Errorf("max = %q, want %q", q.Get("max"), "10")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"totalArticles": 2,
			"articles": [
				{
					"title": "City council approves new budget",
					"description": "The Austin city council voted on the annual budget.",
					"url": "https://example.com/budget",
					"publishedAt": "2025-06-01T12:00:00Z",
					"source": {"name": "Austin Chronicle", "url": "https://example.com"}
				},
				{
					"title": "Local team wins <b>championship</b>",
					"description": "Fans celebrate <a href=\"https://x.test\">downtown</a>.",
					"url": "https://example.com/sports",
					"publishedAt": "2025-06-01T10:00:00Z",
					"source": {"name": "KXAN", "url": "https://example.com"}
				}
			]
		}`))
	})

	articles, err := client.Search(context.Background(), "Austin")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("len(articles) = %d, want 2", len(articles))
	}

	first := articles[0]
	if first.Title != "City council approves new budget" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Source != "Austin Chronicle" {
		t.Errorf("Source = %q, want %q", first.Source, "Austin Chronicle")
	}
	if first.PublishedAt == nil || !first.PublishedAt.Equal(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("PublishedAt = %v", first.PublishedAt)
	}

	// 上流フィールドのタグはサニタイズで除去される
	second := articles[1]
	if second.Title != "Local team wins championship" {
		t.Errorf("sanitized Title = %q", second.Title)
	}
	if second.Description != "Fans celebrate downtown." {
		t.Errorf("sanitized Description = %q", second.Description)
	}
}

func TestGNewsSearch_EmptyResult(t *testing.T) {
	client := newTestGNewsClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"totalArticles": 0, "articles": []}`))
	})

	articles, err := client.Search(context.Background(), "Nowhere")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("len(articles) = %d, want 0", len(articles))
	}
}

func TestGNewsSearch_UpstreamError(t *testing.T) {
	client := newTestGNewsClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.Search(context.Background(), "Austin")
	if err == nil {
		t.Fatal("expected error for upstream 403, got nil")
	}
}

func TestGNewsSearch_OversizedResponse_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"totalArticles": 1, "articles": [{"title": "` + strings.Repeat("a", 1024) + `"}]}`))
	}))
	t.Cleanup(server.Close)

	client := NewGNewsClient(
		&http.Client{Timeout: 5 * time.Second},
		testLogger(t),
		security.NewTextSanitizer(),
		GNewsConfig{
			BaseURL:         server.URL,
			APIKey:          "test-key",
			Language:        "en",
			MaxArticles:     10,
			MaxResponseSize: 64, // 上限を超えた分は切り捨てられ、JSONとして壊れる
		},
	)

	_, err := client.Search(context.Background(), "Austin")
	if err == nil {
		t.Fatal("expected error for oversized response, got nil")
	}
}

func TestGNewsSearch_InvalidJSON(t *testing.T) {
	client := newTestGNewsClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>error</html>`))
	})

	_, err := client.Search(context.Background(), "Austin")
	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}
