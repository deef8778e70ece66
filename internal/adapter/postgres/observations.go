package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/weather-watch/internal/domain"
)

// ObservationStore is the durable observation history. Appends are
// idempotent on (location_id, observed_at) so concurrent ingestion runs
// cannot duplicate rows.
type ObservationStore struct {
	pool *pgxpool.Pool
}

// NewObservationStore returns an observation history backed by pool.
func NewObservationStore(pool *pgxpool.Pool) *ObservationStore {
	return &ObservationStore{pool: pool}
}

// Append writes the observation, returning false when a row for the same
// location and timestamp already exists.
func (s *ObservationStore) Append(ctx context.Context, o domain.Observation) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO observations
			(location_id, observed_at, temp_c, humidity, wind_kph, uv_index, condition_code, condition_text, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (location_id, observed_at) DO NOTHING`,
		o.LocationID, o.ObservedAt, o.TempC, o.Humidity, o.WindKph, o.UVIndex,
		o.ConditionCode, o.ConditionText, o.Raw)
	if err != nil {
		return false, fmt.Errorf("append observation for location %d: %w", o.LocationID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListRecent returns up to limit of the newest observations for a location,
// ordered ascending by observed_at.
func (s *ObservationStore) ListRecent(ctx context.Context, locationID int64, limit int) ([]domain.Observation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT location_id, observed_at, temp_c, humidity, wind_kph, uv_index, condition_code, condition_text, raw
		FROM (
			SELECT location_id, observed_at, temp_c, humidity, wind_kph, uv_index, condition_code, condition_text, raw
			FROM observations
			WHERE location_id = $1
			ORDER BY observed_at DESC
			LIMIT $2
		) recent
		ORDER BY observed_at ASC`,
		locationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent observations for location %d: %w", locationID, err)
	}
	defer rows.Close()

	var out []domain.Observation
	for rows.Next() {
		var o domain.Observation
		if err := rows.Scan(&o.LocationID, &o.ObservedAt, &o.TempC, &o.Humidity, &o.WindKph,
			&o.UVIndex, &o.ConditionCode, &o.ConditionText, &o.Raw); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recent observations for location %d: %w", locationID, err)
	}
	return out, nil
}

var _ domain.ObservationStore = (*ObservationStore)(nil)
