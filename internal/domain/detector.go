package domain

import (
	"context"
	"log/slog"
)

// DetectorConfig bounds the history window the detector examines.
type DetectorConfig struct {
	// Lookback is the maximum number of recent observations to examine.
	Lookback int
	// MinObservations is the minimum history required before analyzing a
	// location; below it the location is skipped with a reason.
	MinObservations int
}

// DefaultDetectorConfig mirrors the daily cadence: two weeks of history.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{Lookback: 14, MinObservations: 14}
}

// Detector turns recent observations into extreme event candidates.
// Threshold rules always run; when an inference client is configured its
// classifications refine or extend the threshold findings. An inference
// failure degrades the detector to threshold-only output, it never fails
// the location.
type Detector struct {
	inference InferenceClient
	cfg       DetectorConfig
	logger    *slog.Logger
}

// NewDetector creates a detector. Pass a nil inference client to run
// threshold rules only.
func NewDetector(inference InferenceClient, cfg DetectorConfig, logger *slog.Logger) *Detector {
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultDetectorConfig().Lookback
	}
	return &Detector{inference: inference, cfg: cfg, logger: logger}
}

// Config returns the detector's window configuration.
func (d *Detector) Config() DetectorConfig { return d.cfg }

// Detect returns candidates for the location plus a degraded flag that is
// true when the inference service was configured but unusable.
// Observations must be ordered ascending by ObservedAt.
func (d *Detector) Detect(ctx context.Context, loc TrackedLocation, obs []Observation) ([]ExtremeEventCandidate, bool) {
	candidates := DetectThresholds(loc.ID, obs)

	if d.inference == nil || len(obs) == 0 {
		return candidates, false
	}

	classifications, err := d.inference.Classify(ctx, Summarize(loc, obs))
	if err != nil {
		d.logger.Warn("inference unavailable, falling back to threshold classification",
			"location_id", loc.ID, "location", loc.Name, "error", err)
		return candidates, true
	}

	return mergeClassifications(loc, obs, candidates, classifications, d.logger), false
}

// mergeClassifications overlays inference findings onto threshold candidates.
// A classification matching a threshold candidate's type refines its
// severity, details, and advice; an unmatched one becomes a new candidate
// spanning the examined window. Invalid classifications are dropped one by one.
func mergeClassifications(loc TrackedLocation, obs []Observation, candidates []ExtremeEventCandidate, classifications []Classification, logger *slog.Logger) []ExtremeEventCandidate {
	for _, cl := range classifications {
		if !cl.Valid() {
			logger.Warn("discarding invalid classification",
				"location_id", loc.ID, "event_type", cl.EventType, "severity", cl.Severity)
			continue
		}

		refined := false
		for i := range candidates {
			if candidates[i].EventType != cl.EventType {
				continue
			}
			candidates[i].Severity = cl.Severity
			candidates[i].Details = cl.Details
			if cl.Advice != "" {
				candidates[i].Advice = cl.Advice
			}
			candidates[i].Source = SourceInference
			refined = true
			break
		}
		if refined {
			continue
		}

		candidates = append(candidates, ExtremeEventCandidate{
			LocationID:  loc.ID,
			DetectedAt:  clock.Now().UTC(),
			EventType:   cl.EventType,
			Severity:    cl.Severity,
			WindowStart: obs[0].ObservedAt,
			WindowEnd:   obs[len(obs)-1].ObservedAt,
			Details:     cl.Details,
			Advice:      cl.Advice,
			Source:      SourceInference,
		})
	}
	return candidates
}
