package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *TMDbClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewTMDbClient("test-token", Options{BaseURL: server.URL, Timeout: 5 * time.Second})
}

func TestTMDbClient_SearchMovies_Request(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "The Matrix" {
			t.Errorf("unexpected query %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if r.URL.Query().Get("api_key") != "" {
			t.Error("credential must not be sent as a query parameter")
		}
		w.Write([]byte(`{"page":1,"total_results":2,"results":[
			{"id":603,"title":"The Matrix","release_date":"1999-03-30"},
			{"id":604,"title":"The Matrix Reloaded","release_date":"2003-05-15"}
		]}`))
	})

	movies, err := client.SearchMovies(context.Background(), "The Matrix")
	if err != nil {
		t.Fatalf("SearchMovies failed: %v", err)
	}

	if len(movies) != 2 {
		t.Fatalf("Expected 2 movies, got %d", len(movies))
	}
	if movies[0].ID != 603 || movies[0].ReleaseDate != "1999-03-30" {
		t.Errorf("Unexpected first movie: %+v", movies[0])
	}
}

func TestTMDbClient_MovieVideos(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/603/videos" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"id":603,"results":[
			{"key":"vKQi3bBA1y8","site":"YouTube","type":"Trailer","published_at":"2021-12-09T17:00:02.000Z"}
		]}`))
	})

	videos, err := client.MovieVideos(context.Background(), 603)
	if err != nil {
		t.Fatalf("MovieVideos failed: %v", err)
	}

	if len(videos) != 1 {
		t.Fatalf("Expected 1 video, got %d", len(videos))
	}
	if videos[0].Key != "vKQi3bBA1y8" || videos[0].Type != "Trailer" {
		t.Errorf("Unexpected video: %+v", videos[0])
	}
}

func TestTMDbClient_StatusError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, false},
		{"not found", http.StatusNotFound, false},
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.SearchMovies(context.Background(), "x")
			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected StatusError, got %v", err)
			}
			if statusErr.Code != tt.status {
				t.Errorf("expected code %d, got %d", tt.status, statusErr.Code)
			}
			if statusErr.Retryable() != tt.retryable {
				t.Errorf("Retryable() = %v, expected %v", statusErr.Retryable(), tt.retryable)
			}
		})
	}
}

func TestTMDbClient_MalformedBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [`))
	})

	if _, err := client.SearchMovies(context.Background(), "x"); err == nil {
		t.Error("Expected decoding error")
	}
}

func TestTMDbClient_CancelledContext(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.SearchMovies(ctx, "x"); err == nil {
		t.Error("Expected error when context is cancelled")
	}
}

func TestTMDbClient_RateLimited(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	})
	limited := NewTMDbClient("test-token", Options{BaseURL: client.baseURL, RequestsPerSecond: 1})

	if _, err := limited.SearchMovies(context.Background(), "first"); err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := limited.SearchMovies(ctx, "second"); err == nil {
		t.Error("Expected second request to exceed the limiter within the deadline")
	}
}

func TestTMDbClient_GetImageURL(t *testing.T) {
	client := NewTMDbClient("dummy_token", Options{})

	tests := []struct {
		name     string
		path     string
		size     string
		expected string
	}{
		{
			name:     "valid poster path",
			path:     "/8Vt6mWEReuy4Of61Lnj5Xj704m8.jpg",
			size:     "w500",
			expected: "https://image.tmdb.org/t/p/w500/8Vt6mWEReuy4Of61Lnj5Xj704m8.jpg",
		},
		{
			name:     "empty path",
			path:     "",
			size:     "w500",
			expected: "",
		},
		{
			name:     "original size",
			path:     "/poster.jpg",
			size:     "original",
			expected: "https://image.tmdb.org/t/p/original/poster.jpg",
		},
		{
			name:     "missing leading slash",
			path:     "poster.jpg",
			size:     "w185",
			expected: "https://image.tmdb.org/t/p/w185/poster.jpg",
		},
		{
			name:     "absolute url",
			path:     "https://example.com/poster.jpg",
			size:     "w500",
			expected: "https://example.com/poster.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := client.GetImageURL(tt.path, tt.size)
			if result != tt.expected {
				t.Errorf("GetImageURL(%q, %q) = %q, expected %q",
					tt.path, tt.size, result, tt.expected)
			}
		})
	}
}
