package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/kdimtricp/movierec/internal/catalog"
	"github.com/kdimtricp/movierec/internal/logging"
	"github.com/kdimtricp/movierec/internal/metrics"
	"github.com/kdimtricp/movierec/internal/models"
	"golang.org/x/sync/errgroup"
)

// Enricher fetches best-effort metadata for a title. It must not block past
// ctx's deadline.
type Enricher interface {
	Enrich(ctx context.Context, title string) models.Enrichment
}

type Config struct {
	K int
	// Workers bounds concurrent enrichment lookups per request.
	Workers int
	// RequestTimeout bounds the enrichment fan-out of one request.
	RequestTimeout time.Duration
	PosterURL      func(path string) string
}

type Service struct {
	catalog     *catalog.Catalog
	recommender *Recommender
	enricher    Enricher
	config      Config
}

func NewService(c *catalog.Catalog, enricher Enricher, config Config) *Service {
	if config.K <= 0 {
		config.K = DefaultK
	}
	if config.Workers <= 0 {
		config.Workers = config.K
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 10 * time.Second
	}
	if config.PosterURL == nil {
		config.PosterURL = func(path string) string { return path }
	}

	return &Service{
		catalog:     c,
		recommender: NewRecommender(c),
		enricher:    enricher,
		config:      config,
	}
}

func (s *Service) Titles() []string {
	return s.catalog.Titles()
}

func (s *Service) K() int {
	return s.config.K
}

// Recommend returns the configured number of recommendations for title.
func (s *Service) Recommend(ctx context.Context, title string) ([]models.Recommendation, error) {
	return s.RecommendK(ctx, title, s.config.K)
}

// RecommendK resolves title, ranks its neighbours and enriches each of the
// top k concurrently. Results keep rank order. Enrichment that does not
// finish before the request deadline is left empty.
func (s *Service) RecommendK(ctx context.Context, title string, k int) ([]models.Recommendation, error) {
	start := time.Now()
	logger := logging.Ctx(ctx).With().Str("component", "recommend").Str("title", title).Logger()

	neighbors, err := s.recommender.RecommendTitle(title, k)
	if err != nil {
		result := "error"
		if errors.Is(err, catalog.ErrNotFound) {
			result = "not_found"
		}
		metrics.RecommendationRequests.WithLabelValues(result).Inc()
		return nil, err
	}

	recs := make([]models.Recommendation, len(neighbors))
	for i, nb := range neighbors {
		movie, err := s.catalog.Movie(nb.Index)
		if err != nil {
			metrics.RecommendationRequests.WithLabelValues("error").Inc()
			return nil, err
		}
		recs[i] = models.Recommendation{
			Movie:     movie,
			PosterURL: s.config.PosterURL(movie.PosterPath),
		}
	}

	if s.enricher != nil && len(recs) > 0 {
		s.enrich(ctx, recs)
	}

	metrics.RecommendationRequests.WithLabelValues("ok").Inc()
	metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	logger.Info().Int("results", len(recs)).Dur("elapsed", time.Since(start)).Msg("Recommendations served")

	return recs, nil
}

type enriched struct {
	index      int
	enrichment models.Enrichment
}

func (s *Service) enrich(ctx context.Context, recs []models.Recommendation) {
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	titles := make([]string, len(recs))
	for i, rec := range recs {
		titles[i] = rec.Movie.Title
	}

	// Buffered so workers never block once the collector gives up.
	results := make(chan enriched, len(recs))

	go func() {
		var g errgroup.Group
		g.SetLimit(s.config.Workers)
		for i, title := range titles {
			index, title := i, title
			g.Go(func() error {
				if ctx.Err() != nil {
					results <- enriched{index: index}
					return nil
				}
				results <- enriched{index: index, enrichment: s.enricher.Enrich(ctx, title)}
				return nil
			})
		}
		_ = g.Wait()
	}()

	for received := 0; received < len(recs); received++ {
		select {
		case r := <-results:
			recs[r.index].Enrichment = r.enrichment
		case <-ctx.Done():
			logging.Ctx(ctx).Warn().Int("pending", len(recs)-received).
				Msg("Request deadline reached before all enrichment finished")
			return
		}
	}
}
