package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/weather-watch/internal/domain"
	"github.com/couchcryptid/weather-watch/internal/observability"
)

// SkipInsufficientHistory is the skip reason for locations with too little
// accumulated history to analyze.
const SkipInsufficientHistory = "insufficient history"

// Analyzer drives detection, deduplication, and event persistence for each
// tracked location.
type Analyzer struct {
	registry  domain.LocationRegistry
	history   domain.ObservationStore
	events    domain.EventStore
	detector  *domain.Detector
	publisher domain.EventPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	workers   int
}

// NewAnalyzer creates the analysis pipeline. publisher may be nil when alert
// publishing is disabled.
func NewAnalyzer(registry domain.LocationRegistry, history domain.ObservationStore, events domain.EventStore, detector *domain.Detector, publisher domain.EventPublisher, logger *slog.Logger, metrics *observability.Metrics, workers int) *Analyzer {
	if workers <= 0 {
		workers = 3
	}
	return &Analyzer{
		registry:  registry,
		history:   history,
		events:    events,
		detector:  detector,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		workers:   workers,
	}
}

// Run analyzes every tracked location. A registry failure is fatal;
// everything else is a per-location outcome.
func (a *Analyzer) Run(ctx context.Context) (AnalysisSummary, error) {
	start := time.Now()
	a.metrics.RunsStarted.WithLabelValues("analysis").Inc()

	locs, err := a.registry.ListTracked(ctx)
	if err != nil {
		return AnalysisSummary{}, fmt.Errorf("list tracked locations: %w", err)
	}
	a.logger.Info("analysis run started", "locations", len(locs), "workers", a.workers)

	outcomes := make([]AnalysisOutcome, len(locs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, loc := range locs {
		g.Go(func() error {
			outcomes[i] = a.analyzeOne(gctx, loc)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers record failures in their outcome

	summary := AnalysisSummary{
		StartedAt: start.UTC(),
		Locations: len(locs),
		Outcomes:  outcomes,
	}
	for _, o := range outcomes {
		summary.EventsCreated += o.EventsCreated
		summary.Deduplicated += o.Deduplicated
		if o.Degraded {
			summary.Degraded++
		}
		if o.Skipped != "" {
			summary.Skipped++
		}
		if o.Error != "" {
			summary.Failures++
		}
	}
	summary.DurationSeconds = time.Since(start).Seconds()
	a.metrics.RunDuration.WithLabelValues("analysis").Observe(summary.DurationSeconds)

	a.logger.Info("analysis run finished",
		"locations", summary.Locations,
		"events_created", summary.EventsCreated,
		"deduplicated", summary.Deduplicated,
		"degraded", summary.Degraded,
		"skipped", summary.Skipped,
		"failures", summary.Failures,
	)
	return summary, nil
}

func (a *Analyzer) analyzeOne(ctx context.Context, loc domain.TrackedLocation) AnalysisOutcome {
	outcome := AnalysisOutcome{LocationID: loc.ID, Name: loc.Name}

	cfg := a.detector.Config()
	obs, err := a.history.ListRecent(ctx, loc.ID, cfg.Lookback)
	if err != nil {
		outcome.Error = err.Error()
		a.metrics.LocationFailures.WithLabelValues("analysis").Inc()
		a.logger.Error("history read failed", "location_id", loc.ID, "error", err)
		return outcome
	}
	outcome.ObservationsExamined = len(obs)

	if len(obs) < cfg.MinObservations {
		outcome.Skipped = SkipInsufficientHistory
		a.logger.Debug("skipping location",
			"location_id", loc.ID, "reason", outcome.Skipped,
			"observations", len(obs), "required", cfg.MinObservations)
		return outcome
	}

	candidates, degraded := a.detector.Detect(ctx, loc, obs)
	outcome.Candidates = len(candidates)
	if degraded {
		outcome.Degraded = true
		a.metrics.InferenceDegradations.Inc()
	}

	for _, cand := range candidates {
		dup, err := a.events.HasOverlapping(ctx, cand.LocationID, cand.EventType, cand.WindowStart, cand.WindowEnd)
		if err != nil {
			outcome.Error = err.Error()
			a.metrics.LocationFailures.WithLabelValues("analysis").Inc()
			a.logger.Error("overlap check failed",
				"location_id", loc.ID, "event_type", cand.EventType, "error", err)
			continue
		}
		if dup {
			outcome.Deduplicated++
			a.metrics.EventsDeduplicated.Inc()
			a.logger.Debug("candidate overlaps existing event",
				"location_id", loc.ID, "event_type", cand.EventType,
				"window_start", cand.WindowStart, "window_end", cand.WindowEnd)
			continue
		}

		ev := domain.ExtremeEvent{
			ID:          uuid.NewString(),
			LocationID:  cand.LocationID,
			EventType:   cand.EventType,
			Severity:    cand.Severity,
			WindowStart: cand.WindowStart,
			WindowEnd:   cand.WindowEnd,
			Details:     cand.Details,
			Advice:      cand.Advice,
			Source:      cand.Source,
			CreatedAt:   cand.DetectedAt,
		}
		if err := a.events.Insert(ctx, ev); err != nil {
			outcome.Error = err.Error()
			a.metrics.LocationFailures.WithLabelValues("analysis").Inc()
			a.logger.Error("event insert failed",
				"location_id", loc.ID, "event_type", ev.EventType, "error", err)
			continue
		}
		outcome.EventsCreated++
		a.metrics.EventsCreated.Inc()
		a.logger.Info("extreme event recorded",
			"event_id", ev.ID, "location_id", ev.LocationID,
			"event_type", ev.EventType, "severity", ev.Severity, "source", ev.Source)

		a.publish(ctx, ev)
	}
	return outcome
}

// publish sends the event to the alert topic. Best-effort: the event is
// already durable, so a publish failure is logged and counted, nothing more.
func (a *Analyzer) publish(ctx context.Context, ev domain.ExtremeEvent) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Publish(ctx, ev); err != nil {
		a.metrics.PublishErrors.Inc()
		a.logger.Warn("alert publish failed", "event_id", ev.ID, "error", err)
	}
}
