package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/weather-watch/internal/domain"
)

// EventStore holds confirmed extreme events, append-only.
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore returns an event store backed by pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

// HasOverlapping reports whether an event of the same type for the same
// location already covers any instant of [windowStart, windowEnd].
// The bounds are strict: windows that merely touch do not overlap,
// matching domain.WindowsOverlap.
func (s *EventStore) HasOverlapping(ctx context.Context, locationID int64, eventType string, windowStart, windowEnd time.Time) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM extreme_events
			WHERE location_id = $1
			  AND event_type = $2
			  AND window_start < $4
			  AND window_end > $3
		)`,
		locationID, eventType, windowStart, windowEnd).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check overlapping events for location %d: %w", locationID, err)
	}
	return exists, nil
}

// Insert persists a confirmed event.
func (s *EventStore) Insert(ctx context.Context, ev domain.ExtremeEvent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO extreme_events
			(event_id, location_id, event_type, severity, window_start, window_end, details, advice, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		ev.ID, ev.LocationID, ev.EventType, ev.Severity, ev.WindowStart, ev.WindowEnd,
		ev.Details, ev.Advice, ev.Source, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event %s for location %d: %w", ev.EventType, ev.LocationID, err)
	}
	return nil
}

var _ domain.EventStore = (*EventStore)(nil)
