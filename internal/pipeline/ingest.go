// Package pipeline orchestrates the batch runs: ingestion keeps observation
// history fresh, analysis turns recent history into extreme events. Both
// treat locations as independent units of work; one location's failure never
// aborts the batch.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/weather-watch/internal/cache"
	"github.com/couchcryptid/weather-watch/internal/domain"
	"github.com/couchcryptid/weather-watch/internal/observability"
)

// Ingestor drives cache lookup, fetch-on-miss, and history persistence for
// each tracked location.
type Ingestor struct {
	registry domain.LocationRegistry
	cache    *cache.Cache
	provider domain.WeatherProvider
	history  domain.ObservationStore
	logger   *slog.Logger
	metrics  *observability.Metrics
	workers  int
}

// NewIngestor creates the ingestion pipeline.
func NewIngestor(registry domain.LocationRegistry, c *cache.Cache, provider domain.WeatherProvider, history domain.ObservationStore, logger *slog.Logger, metrics *observability.Metrics, workers int) *Ingestor {
	if workers <= 0 {
		workers = 3
	}
	return &Ingestor{
		registry: registry,
		cache:    c,
		provider: provider,
		history:  history,
		logger:   logger,
		metrics:  metrics,
		workers:  workers,
	}
}

// Run ingests every tracked location. A registry failure is fatal (there is
// nothing to process); everything else is a per-location outcome.
func (in *Ingestor) Run(ctx context.Context) (IngestionSummary, error) {
	locs, err := in.registry.ListTracked(ctx)
	if err != nil {
		return IngestionSummary{}, fmt.Errorf("list tracked locations: %w", err)
	}
	return in.run(ctx, locs), nil
}

// RunLocation ingests a single location on demand, e.g. right after a user
// starts tracking it.
func (in *Ingestor) RunLocation(ctx context.Context, locationID int64) (IngestionSummary, error) {
	loc, err := in.registry.Get(ctx, locationID)
	if err != nil {
		return IngestionSummary{}, fmt.Errorf("get location %d: %w", locationID, err)
	}
	return in.run(ctx, []domain.TrackedLocation{loc}), nil
}

func (in *Ingestor) run(ctx context.Context, locs []domain.TrackedLocation) IngestionSummary {
	start := time.Now()
	in.metrics.RunsStarted.WithLabelValues("ingestion").Inc()
	in.logger.Info("ingestion run started", "locations", len(locs), "workers", in.workers)

	outcomes := make([]IngestionOutcome, len(locs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.workers)
	for i, loc := range locs {
		g.Go(func() error {
			outcomes[i] = in.ingestOne(gctx, loc)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers record failures in their outcome

	summary := IngestionSummary{
		StartedAt: start.UTC(),
		Locations: len(locs),
		Outcomes:  outcomes,
	}
	for _, o := range outcomes {
		if o.Error != "" {
			summary.Failures++
			continue
		}
		if o.CacheHit {
			summary.CacheHits++
		} else {
			summary.CacheMisses++
		}
		summary.ObservationsWritten += o.ObservationsWritten
	}
	summary.DurationSeconds = time.Since(start).Seconds()
	in.metrics.RunDuration.WithLabelValues("ingestion").Observe(summary.DurationSeconds)

	in.logger.Info("ingestion run finished",
		"locations", summary.Locations,
		"cache_hits", summary.CacheHits,
		"cache_misses", summary.CacheMisses,
		"observations_written", summary.ObservationsWritten,
		"failures", summary.Failures,
	)
	return summary
}

func (in *Ingestor) ingestOne(ctx context.Context, loc domain.TrackedLocation) IngestionOutcome {
	outcome := IngestionOutcome{LocationID: loc.ID, Name: loc.Name}

	if err := loc.Validate(); err != nil {
		outcome.Error = err.Error()
		in.metrics.LocationFailures.WithLabelValues("ingestion").Inc()
		return outcome
	}

	key := cache.Key(loc)
	if _, ok := in.cache.Get(key); ok {
		// The cached observation was persisted when it was first fetched, so
		// a hit writes nothing.
		outcome.CacheHit = true
		in.metrics.CacheHits.Inc()
		in.logger.Debug("cache hit", "location_id", loc.ID, "key", key)
		return outcome
	}
	in.metrics.CacheMisses.Inc()
	in.logger.Debug("cache miss", "location_id", loc.ID, "key", key)

	in.metrics.ProviderCalls.Inc()
	obs, err := in.provider.Fetch(ctx, loc.Query())
	if err != nil {
		outcome.Error = err.Error()
		in.metrics.ProviderErrors.Inc()
		in.metrics.LocationFailures.WithLabelValues("ingestion").Inc()
		in.logger.Warn("fetch failed, skipping location",
			"location_id", loc.ID, "location", loc.Name, "error", err)
		return outcome
	}
	obs.LocationID = loc.ID

	in.cache.Put(key, obs)

	written, err := in.history.Append(ctx, obs)
	if err != nil {
		outcome.Error = err.Error()
		in.metrics.LocationFailures.WithLabelValues("ingestion").Inc()
		in.logger.Error("history append failed",
			"location_id", loc.ID, "observed_at", obs.ObservedAt, "error", err)
		return outcome
	}
	if written {
		outcome.ObservationsWritten = 1
		in.metrics.ObservationsWritten.Inc()
	}
	return outcome
}
