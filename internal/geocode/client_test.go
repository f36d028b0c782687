package geocode

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(
		&http.Client{Timeout: 5 * time.Second},
		slog.New(slog.NewTextHandler(testWriter{t}, nil)),
		ClientConfig{
			BaseURL:   server.URL,
			UserAgent: "LocalLens test",
			RateLimit: 1000, // テストではレート制限を実質無効化
		},
	)
}

// testWriter はテストログへの出力アダプタ。
type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestReverseCity_ExtractsCity(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("path = %q, want /reverse", r.URL.Path)
		}
		if got := r.URL.Query().Get("lat"); got != "30.2672" {
			t.Errorf("lat = %q, want %q", got, "30.2672")
		}
		if got := r.URL.Query().Get("lon"); got != "-97.7431" {
			t.Errorf("lon = %q, want %q", got, "-97.7431")
		}
		if got := r.Header.Get("User-Agent"); got != "LocalLens test" {
			t.Errorf("User-Agent = %q, want %q", got, "LocalLens test")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"address":{"city":"Austin","county":"Travis County"}}`))
	})

	city, err := client.ReverseCity(context.Background(), 30.2672, -97.7431)
	if err != nil {
		t.Fatalf("ReverseCity failed: %v", err)
	}
	if city != "Austin" {
		t.Errorf("city = %q, want %q", city, "Austin")
	}
}

func TestReverseCity_FallbackChain(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"town when no city", `{"address":{"town":"Round Rock"}}`, "Round Rock"},
		{"village when no town", `{"address":{"village":"Wimberley"}}`, "Wimberley"},
		{"county as last resort", `{"address":{"county":"Travis County"}}`, "Travis County"},
		{"fallback literal when empty", `{"address":{}}`, "local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			city, err := client.ReverseCity(context.Background(), 30.0, -97.0)
			if err != nil {
				t.Fatalf("ReverseCity failed: %v", err)
			}
			if city != tt.want {
				t.Errorf("city = %q, want %q", city, tt.want)
			}
		})
	}
}

func TestReverseCity_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.ReverseCity(context.Background(), 30.0, -97.0)
	if err == nil {
		t.Fatal("expected error for upstream 503, got nil")
	}
}

func TestGeocode_ReturnsCoordinates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q, want /search", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "Austin, TX" {
			t.Errorf("q = %q, want %q", got, "Austin, TX")
		}
		if got := r.URL.Query().Get("limit"); got != "1" {
			t.Errorf("limit = %q, want %q", got, "1")
		}
		w.Write([]byte(`[{"lat":"30.2672","lon":"-97.7431","address":{"city":"Austin"}}]`))
	})

	result, err := client.Geocode(context.Background(), "Austin, TX")
	if err != nil {
		t.Fatalf("Geocode failed: %v", err)
	}
	if result == nil {
		t.Fatal("expected result, got nil")
	}
	if result.Lat != 30.2672 || result.Lng != -97.7431 {
		t.Errorf("coords = (%v, %v), want (30.2672, -97.7431)", result.Lat, result.Lng)
	}
	if result.City != "Austin" {
		t.Errorf("City = %q, want %q", result.City, "Austin")
	}
}

func TestGeocode_NoResults_ReturnsNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	result, err := client.Geocode(context.Background(), "nowhere at all")
	if err != nil {
		t.Fatalf("Geocode failed: %v", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil for no results", result)
	}
}

func TestGeocode_InvalidJSON_ReturnsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := client.Geocode(context.Background(), "Austin")
	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestReverseCity_OversizedResponse_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address":{"city":"` + strings.Repeat("A", 1024) + `"}}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(
		&http.Client{Timeout: 5 * time.Second},
		slog.New(slog.NewTextHandler(testWriter{t}, nil)),
		ClientConfig{
			BaseURL:         server.URL,
			UserAgent:       "LocalLens test",
			RateLimit:       1000,
			MaxResponseSize: 64, // 上限を超えた分は切り捨てられ、JSONとして壊れる
		},
	)

	_, err := client.ReverseCity(context.Background(), 30.0, -97.0)
	if err == nil {
		t.Fatal("expected error for oversized response, got nil")
	}
}

func TestClient_RateLimiterDelaysSecondRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address":{"city":"Austin"}}`))
	})
	// 20 req/secに制限して2回目の呼び出しが待たされることを確認する
	client.limiter.SetLimit(20)

	ctx := context.Background()
	start := time.Now()
	if _, err := client.ReverseCity(ctx, 30.0, -97.0); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if _, err := client.ReverseCity(ctx, 30.0, -97.0); err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < 40*time.Millisecond {
		t.Errorf("second call should be delayed by the limiter, elapsed = %v", elapsed)
	}
}
