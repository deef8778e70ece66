package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/weather-watch/internal/domain"
)

// LocationStore reads tracked locations. The registry service owns the
// rows; this store never writes them.
type LocationStore struct {
	pool *pgxpool.Pool
}

// NewLocationStore returns a registry reader backed by pool.
func NewLocationStore(pool *pgxpool.Pool) *LocationStore {
	return &LocationStore{pool: pool}
}

// ListTracked returns all active tracked locations.
func (s *LocationStore) ListTracked(ctx context.Context) ([]domain.TrackedLocation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT location_id, name, latitude, longitude, is_active, user_ids
		FROM locations
		WHERE is_active
		ORDER BY location_id`)
	if err != nil {
		return nil, fmt.Errorf("list tracked locations: %w", err)
	}
	defer rows.Close()

	var out []domain.TrackedLocation
	for rows.Next() {
		var loc domain.TrackedLocation
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Lat, &loc.Lon, &loc.Active, &loc.UserIDs); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tracked locations: %w", err)
	}
	return out, nil
}

// Get returns the location with the given id, or domain.ErrLocationNotFound.
func (s *LocationStore) Get(ctx context.Context, id int64) (domain.TrackedLocation, error) {
	var loc domain.TrackedLocation
	err := s.pool.QueryRow(ctx, `
		SELECT location_id, name, latitude, longitude, is_active, user_ids
		FROM locations
		WHERE location_id = $1`, id).
		Scan(&loc.ID, &loc.Name, &loc.Lat, &loc.Lon, &loc.Active, &loc.UserIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.TrackedLocation{}, domain.ErrLocationNotFound
	}
	if err != nil {
		return domain.TrackedLocation{}, fmt.Errorf("get location %d: %w", id, err)
	}
	return loc, nil
}

// LocationExists reports whether a location id is present in the registry.
func (s *LocationStore) LocationExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM locations WHERE location_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("location exists %d: %w", id, err)
	}
	return exists, nil
}

var _ domain.LocationRegistry = (*LocationStore)(nil)
