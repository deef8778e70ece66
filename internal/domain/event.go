package domain

import "time"

// Event types the detector can emit.
const (
	EventWildfireRisk = "wildfire_risk"
	EventHeatStress   = "heat_stress"
	EventPestOutbreak = "pest_outbreak"
)

// Severity levels, least to most severe.
const (
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// Candidate sources.
const (
	SourceThreshold = "threshold"
	SourceInference = "inference"
)

// KnownEventType reports whether t is one of the event types this service emits.
func KnownEventType(t string) bool {
	switch t {
	case EventWildfireRisk, EventHeatStress, EventPestOutbreak:
		return true
	}
	return false
}

// KnownSeverity reports whether s is a recognized severity level.
func KnownSeverity(s string) bool {
	switch s {
	case SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ExtremeEventCandidate is a detector finding before deduplication.
// It is transient; only candidates that survive the overlap check are persisted.
type ExtremeEventCandidate struct {
	LocationID    int64       `json:"location_id"`
	DetectedAt    time.Time   `json:"detected_at"`
	EventType     string      `json:"event_type"`
	Severity      string      `json:"severity"`
	WindowStart   time.Time   `json:"window_start"`
	WindowEnd     time.Time   `json:"window_end"`
	Details       string      `json:"details"`
	Advice        string      `json:"advice,omitempty"`
	Source        string      `json:"source"`
	EvidenceTimes []time.Time `json:"evidence_times,omitempty"`
}

// ExtremeEvent is a confirmed, persisted extreme weather event.
// Append-only; never mutated after creation.
type ExtremeEvent struct {
	ID          string    `json:"event_id"`
	LocationID  int64     `json:"location_id"`
	EventType   string    `json:"event_type"`
	Severity    string    `json:"severity"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Details     string    `json:"details"`
	Advice      string    `json:"advice,omitempty"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

// Classification is one finding returned by the inference service.
type Classification struct {
	EventType  string  `json:"event_type"`
	Severity   string  `json:"severity"`
	Details    string  `json:"details"`
	Advice     string  `json:"advice"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Valid reports whether the classification carries the fields required to
// act on it. Invalid classifications are discarded individually.
func (c Classification) Valid() bool {
	return KnownEventType(c.EventType) && KnownSeverity(c.Severity) && c.Details != ""
}
