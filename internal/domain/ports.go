package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrLocationNotFound is returned by registries when a location id is unknown.
var ErrLocationNotFound = errors.New("location not found")

// ProviderError wraps a weather provider failure: network errors, timeouts,
// and malformed upstream responses. Per-location recoverable; the ingestion
// pipeline skips the location and reports it.
type ProviderError struct {
	Query string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("weather provider: query %q: %v", e.Query, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// InferenceError wraps an inference service failure. The detector degrades
// to threshold-only classification instead of failing the analysis run.
type InferenceError struct {
	Op  string
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference: %s: %v", e.Op, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// LocationRegistry reads tracked locations. The registry is an external
// collaborator; this service never writes to it.
type LocationRegistry interface {
	ListTracked(ctx context.Context) ([]TrackedLocation, error)
	Get(ctx context.Context, id int64) (TrackedLocation, error)
	LocationExists(ctx context.Context, id int64) (bool, error)
}

// ObservationStore is the durable, append-mostly history of observations.
type ObservationStore interface {
	// Append writes the observation. It returns false when a row for
	// (LocationID, ObservedAt) already exists, which is not an error.
	Append(ctx context.Context, o Observation) (bool, error)
	// ListRecent returns up to limit of the newest observations for a
	// location, ordered ascending by ObservedAt.
	ListRecent(ctx context.Context, locationID int64, limit int) ([]Observation, error)
}

// EventStore holds confirmed extreme events.
type EventStore interface {
	HasOverlapping(ctx context.Context, locationID int64, eventType string, windowStart, windowEnd time.Time) (bool, error)
	Insert(ctx context.Context, ev ExtremeEvent) error
}

// WeatherProvider fetches a current observation for a free-text location query.
type WeatherProvider interface {
	Fetch(ctx context.Context, query string) (Observation, error)
}

// InferenceClient classifies a summary of recent observations.
type InferenceClient interface {
	Classify(ctx context.Context, summary ObservationSummary) ([]Classification, error)
}

// EventPublisher announces newly recorded events. Best-effort; publish
// failures never fail an analysis run.
type EventPublisher interface {
	Publish(ctx context.Context, ev ExtremeEvent) error
}
