package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/kdimtricp/movierec/internal/metrics"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p"
)

type TMDbClient struct {
	token        string
	baseURL      string
	imageBaseURL string
	httpClient   *http.Client
	limiter      *rate.Limiter
}

type Options struct {
	BaseURL      string
	ImageBaseURL string
	Timeout      time.Duration
	// RequestsPerSecond caps outgoing calls. Zero disables limiting.
	RequestsPerSecond float64
}

type SearchMovieResult struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalResults int     `json:"total_results"`
}

type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
}

type VideosResult struct {
	ID      int     `json:"id"`
	Results []Video `json:"results"`
}

// Video is a related media entry of a movie (trailer, teaser, clip...).
type Video struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Key         string `json:"key"`
	Site        string `json:"site"`
	Type        string `json:"type"`
	Official    bool   `json:"official"`
	PublishedAt string `json:"published_at"`
}

// StatusError is returned when TMDb answers with a non-200 status.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("TMDb %s returned status %d", e.Endpoint, e.Code)
}

// Retryable reports whether the request may succeed if sent again.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// NewTMDbClient returns a client authenticating with a TMDb v4 read access
// token.
func NewTMDbClient(token string, opts Options) *TMDbClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.ImageBaseURL == "" {
		opts.ImageBaseURL = DefaultImageBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	c := &TMDbClient{
		token:        token,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		imageBaseURL: strings.TrimRight(opts.ImageBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return c
}

func (c *TMDbClient) get(ctx context.Context, endpoint, path string, params url.Values, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.TMDbRequestDuration.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()
	metrics.TMDbRequestDuration.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// SearchMovies returns TMDb's ranked matches for query.
func (c *TMDbClient) SearchMovies(ctx context.Context, query string) ([]Movie, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("page", "1")

	var result SearchMovieResult
	if err := c.get(ctx, "search", "/search/movie", params, &result); err != nil {
		return nil, err
	}

	return result.Results, nil
}

// MovieVideos returns the related media entries of a movie.
func (c *TMDbClient) MovieVideos(ctx context.Context, movieID int) ([]Video, error) {
	var result VideosResult
	if err := c.get(ctx, "videos", fmt.Sprintf("/movie/%d/videos", movieID), nil, &result); err != nil {
		return nil, err
	}

	return result.Results, nil
}

// GetImageURL turns a poster path into a full image URL. Absolute URLs are
// returned unchanged.
func (c *TMDbClient) GetImageURL(path string, size string) string {
	return ImageURL(c.imageBaseURL, path, size)
}

func ImageURL(base, path, size string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("%s/%s%s", strings.TrimRight(base, "/"), size, path)
}
