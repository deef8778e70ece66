package pipeline

import "time"

// Run statuses reported to the trigger surface. A fatal error (registry or
// store unreachable) surfaces as a Go error instead of a summary.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
)

// IngestionOutcome is the per-location result of an ingestion run.
type IngestionOutcome struct {
	LocationID          int64  `json:"location_id"`
	Name                string `json:"name"`
	CacheHit            bool   `json:"cache_hit"`
	ObservationsWritten int    `json:"observations_written"`
	Error               string `json:"error,omitempty"`
}

// IngestionSummary is the structured result of one ingestion run.
type IngestionSummary struct {
	StartedAt           time.Time          `json:"started_at"`
	DurationSeconds     float64            `json:"duration_seconds"`
	Locations           int                `json:"locations"`
	CacheHits           int                `json:"cache_hits"`
	CacheMisses         int                `json:"cache_misses"`
	ObservationsWritten int                `json:"observations_written"`
	Failures            int                `json:"failures"`
	Outcomes            []IngestionOutcome `json:"outcomes"`
}

// Status reports ok when every location succeeded, partial otherwise.
func (s IngestionSummary) Status() string {
	if s.Failures > 0 {
		return StatusPartial
	}
	return StatusOK
}

// AnalysisOutcome is the per-location result of an analysis run.
type AnalysisOutcome struct {
	LocationID           int64  `json:"location_id"`
	Name                 string `json:"name"`
	ObservationsExamined int    `json:"observations_examined"`
	Candidates           int    `json:"candidates"`
	EventsCreated        int    `json:"events_created"`
	Deduplicated         int    `json:"deduplicated"`
	Degraded             bool   `json:"degraded"`
	Skipped              string `json:"skipped,omitempty"`
	Error                string `json:"error,omitempty"`
}

// AnalysisSummary is the structured result of one analysis run.
type AnalysisSummary struct {
	StartedAt       time.Time         `json:"started_at"`
	DurationSeconds float64           `json:"duration_seconds"`
	Locations       int               `json:"locations"`
	EventsCreated   int               `json:"events_created"`
	Deduplicated    int               `json:"deduplicated"`
	Degraded        int               `json:"degraded"`
	Skipped         int               `json:"skipped"`
	Failures        int               `json:"failures"`
	Outcomes        []AnalysisOutcome `json:"outcomes"`
}

// Status reports ok when every location succeeded, partial otherwise.
// Degraded locations still count as processed; degradation shows in its own
// field, not in the status.
func (s AnalysisSummary) Status() string {
	if s.Failures > 0 {
		return StatusPartial
	}
	return StatusOK
}
