// Package enrichment looks up trailers for recommended movies. Lookups are
// best-effort: every failure degrades to an empty models.Enrichment.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kdimtricp/movierec/internal/logging"
	"github.com/kdimtricp/movierec/internal/metrics"
	"github.com/kdimtricp/movierec/internal/models"
	"github.com/kdimtricp/movierec/internal/search"
	gobreaker "github.com/sony/gobreaker/v2"
)

// MetadataSource is the remote metadata service. *search.TMDbClient
// satisfies it.
type MetadataSource interface {
	SearchMovies(ctx context.Context, query string) ([]search.Movie, error)
	MovieVideos(ctx context.Context, movieID int) ([]search.Video, error)
}

type Config struct {
	// AttemptTimeout bounds each remote call.
	AttemptTimeout time.Duration
	// Retries is the number of extra attempts after a retryable failure.
	Retries    int
	RetryDelay time.Duration
	// BreakerFailures is the number of consecutive failed lookups that
	// opens the circuit.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		AttemptTimeout:  5 * time.Second,
		Retries:         1,
		RetryDelay:      200 * time.Millisecond,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

const (
	outcomeOK          = "ok"
	outcomeNotFound    = "not_found"
	outcomeNoTrailer   = "no_trailer"
	outcomeError       = "error"
	outcomeCircuitOpen = "circuit_open"
	outcomeDisabled    = "disabled"
	outcomeCanceled    = "canceled"
)

// errCallerDone marks lookups abandoned because the caller's context ended.
// They do not count against the breaker.
var errCallerDone = errors.New("lookup abandoned by caller")

type lookup struct {
	outcome    string
	enrichment models.Enrichment
}

type Client struct {
	source MetadataSource
	config Config
	cb     *gobreaker.CircuitBreaker[lookup]
}

func NewClient(source MetadataSource, config Config) *Client {
	defaults := DefaultConfig()
	if config.AttemptTimeout == 0 {
		config.AttemptTimeout = defaults.AttemptTimeout
	}
	if config.Retries < 0 {
		config.Retries = 0
	}
	if config.BreakerFailures == 0 {
		config.BreakerFailures = defaults.BreakerFailures
	}
	if config.BreakerTimeout == 0 {
		config.BreakerTimeout = defaults.BreakerTimeout
	}

	const cbName = "tmdb"
	metrics.SetBreakerState(cbName, gobreaker.StateClosed)

	cb := gobreaker.NewCircuitBreaker[lookup](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerDone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.SetBreakerState(name, to)
		},
	})

	return &Client{
		source: source,
		config: config,
		cb:     cb,
	}
}

// Enrich finds a trailer for title. It never fails: errors are logged and
// an empty Enrichment is returned.
func (c *Client) Enrich(ctx context.Context, title string) models.Enrichment {
	logger := logging.Ctx(ctx).With().Str("component", "enrichment").Str("title", title).Logger()

	if c == nil || c.source == nil {
		metrics.EnrichmentOutcomes.WithLabelValues(outcomeDisabled).Inc()
		return models.Enrichment{}
	}

	result, err := c.cb.Execute(func() (lookup, error) {
		l, err := c.lookup(ctx, title)
		if err != nil && ctx.Err() != nil {
			return l, fmt.Errorf("%w: %w", errCallerDone, ctx.Err())
		}
		return l, err
	})
	if errors.Is(err, errCallerDone) {
		metrics.EnrichmentOutcomes.WithLabelValues(outcomeCanceled).Inc()
		logger.Debug().Err(err).Str("outcome", outcomeCanceled).Msg("Trailer lookup abandoned")
		return models.Enrichment{}
	}
	if err != nil {
		outcome := outcomeError
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = outcomeCircuitOpen
		}
		metrics.EnrichmentOutcomes.WithLabelValues(outcome).Inc()
		logger.Warn().Err(err).Str("outcome", outcome).Msg("Trailer lookup failed")
		return models.Enrichment{}
	}

	metrics.EnrichmentOutcomes.WithLabelValues(result.outcome).Inc()
	logger.Debug().Str("outcome", result.outcome).Msg("Trailer lookup finished")
	return result.enrichment
}

func (c *Client) lookup(ctx context.Context, title string) (lookup, error) {
	movies, err := withRetry(ctx, c.config, func(ctx context.Context) ([]search.Movie, error) {
		return c.source.SearchMovies(ctx, title)
	})
	if err != nil {
		return lookup{}, err
	}
	if len(movies) == 0 {
		return lookup{outcome: outcomeNotFound}, nil
	}

	videos, err := withRetry(ctx, c.config, func(ctx context.Context) ([]search.Video, error) {
		return c.source.MovieVideos(ctx, movies[0].ID)
	})
	if err != nil {
		return lookup{}, err
	}

	video, ok := SelectTrailer(videos)
	if !ok {
		return lookup{outcome: outcomeNoTrailer}, nil
	}
	enrichment := models.Enrichment{TrailerURL: TrailerURL(video)}
	if at, ok := parsePublishedAt(video.PublishedAt); ok {
		enrichment.PublishedAt = &at
	}

	return lookup{outcome: outcomeOK, enrichment: enrichment}, nil
}

func withRetry[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(cfg.RetryDelay):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, cfg.AttemptTimeout)
		v, err := fn(attemptCtx)
		cancel()
		if err == nil {
			return v, nil
		}

		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}

	return zero, lastErr
}

func retryable(err error) bool {
	var statusErr *search.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return !errors.Is(err, context.Canceled)
}
