package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-watch/internal/cache"
	"github.com/couchcryptid/weather-watch/internal/domain"
	"github.com/couchcryptid/weather-watch/internal/pipeline"
)

func trackedLocations(n int) []domain.TrackedLocation {
	names := []string{"Da Nang", "Hanoi", "Hue", "Can Tho", "Nha Trang"}
	locs := make([]domain.TrackedLocation, n)
	for i := range locs {
		locs[i] = domain.TrackedLocation{
			ID: int64(i + 1), Name: names[i%len(names)], Lat: 16, Lon: 108, Active: true,
		}
	}
	return locs
}

func newIngestor(reg *memRegistry, c *cache.Cache, p *fakeProvider, h *memHistory) *pipeline.Ingestor {
	return pipeline.NewIngestor(reg, c, p, h, slog.Default(), newTestMetrics(), 3)
}

func TestIngestor_Run_HappyPath(t *testing.T) {
	reg := &memRegistry{locs: trackedLocations(3)}
	c := cache.New(5*time.Minute, clockwork.NewFakeClock())
	prov := &fakeProvider{observedAt: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC), temp: 30}
	hist := newMemHistory()

	sum, err := newIngestor(reg, c, prov, hist).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Locations)
	assert.Equal(t, 0, sum.CacheHits)
	assert.Equal(t, 3, sum.CacheMisses)
	assert.Equal(t, 3, sum.ObservationsWritten)
	assert.Equal(t, 0, sum.Failures)
	assert.Equal(t, pipeline.StatusOK, sum.Status())
	assert.Equal(t, 3, prov.callCount())

	for _, loc := range reg.locs {
		assert.Equal(t, 1, hist.count(loc.ID))
	}
}

func TestIngestor_Run_IdempotentWithinTTL(t *testing.T) {
	reg := &memRegistry{locs: trackedLocations(1)}
	fake := clockwork.NewFakeClock()
	c := cache.New(5*time.Minute, fake)
	prov := &fakeProvider{observedAt: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC), temp: 30}
	hist := newMemHistory()
	ing := newIngestor(reg, c, prov, hist)

	first, err := ing.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.ObservationsWritten)

	fake.Advance(2 * time.Minute)

	second, err := ing.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, second.CacheHits)
	assert.Equal(t, 0, second.ObservationsWritten, "cache hit must not rewrite history")
	assert.Equal(t, 1, prov.callCount(), "cache hit must not refetch")
	assert.Equal(t, 1, hist.count(1))
}

func TestIngestor_Run_RefetchAfterTTL(t *testing.T) {
	reg := &memRegistry{locs: trackedLocations(1)}
	fake := clockwork.NewFakeClock()
	c := cache.New(5*time.Minute, fake)
	prov := &fakeProvider{observedAt: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC), temp: 30}
	hist := newMemHistory()
	ing := newIngestor(reg, c, prov, hist)

	_, err := ing.Run(context.Background())
	require.NoError(t, err)

	fake.Advance(6 * time.Minute)

	sum, err := ing.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.CacheMisses)
	assert.Equal(t, 2, prov.callCount())
	// Provider returned the same observation timestamp, so the idempotent
	// append path keeps history at one row.
	assert.Equal(t, 0, sum.ObservationsWritten)
	assert.Equal(t, 1, hist.count(1))
}

func TestIngestor_Run_PartialFailureIsolation(t *testing.T) {
	locs := trackedLocations(5)
	reg := &memRegistry{locs: locs}
	c := cache.New(5*time.Minute, clockwork.NewFakeClock())
	prov := &fakeProvider{
		observedAt: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
		temp:       30,
		failFor:    map[string]bool{"Hanoi": true, "Hue": true},
	}
	hist := newMemHistory()

	sum, err := newIngestor(reg, c, prov, hist).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Failures)
	assert.Equal(t, 3, sum.ObservationsWritten)
	assert.Equal(t, pipeline.StatusPartial, sum.Status())

	var failedNames []string
	for _, o := range sum.Outcomes {
		if o.Error != "" {
			failedNames = append(failedNames, o.Name)
			assert.Zero(t, hist.count(o.LocationID))
		}
	}
	assert.ElementsMatch(t, []string{"Hanoi", "Hue"}, failedNames)
}

func TestIngestor_Run_RegistryErrorIsFatal(t *testing.T) {
	reg := &memRegistry{err: errors.New("connection refused")}
	c := cache.New(5*time.Minute, clockwork.NewFakeClock())
	hist := newMemHistory()

	_, err := newIngestor(reg, c, &fakeProvider{}, hist).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list tracked locations")
}

func TestIngestor_Run_InvalidLocationIsSkipped(t *testing.T) {
	locs := trackedLocations(2)
	locs[1].Lat = 123 // corrupt registry row
	reg := &memRegistry{locs: locs}
	c := cache.New(5*time.Minute, clockwork.NewFakeClock())
	prov := &fakeProvider{observedAt: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)}
	hist := newMemHistory()

	sum, err := newIngestor(reg, c, prov, hist).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Failures)
	assert.Equal(t, 1, prov.callCount(), "invalid location must not reach the provider")
}

func TestIngestor_RunLocation(t *testing.T) {
	reg := &memRegistry{locs: trackedLocations(3)}
	c := cache.New(5*time.Minute, clockwork.NewFakeClock())
	prov := &fakeProvider{observedAt: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)}
	hist := newMemHistory()
	ing := newIngestor(reg, c, prov, hist)

	sum, err := ing.RunLocation(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Locations)
	assert.Equal(t, 1, hist.count(2))
	assert.Zero(t, hist.count(1))
}

func TestIngestor_RunLocation_Unknown(t *testing.T) {
	reg := &memRegistry{locs: trackedLocations(1)}
	c := cache.New(5*time.Minute, clockwork.NewFakeClock())
	ing := newIngestor(reg, c, &fakeProvider{}, newMemHistory())

	_, err := ing.RunLocation(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLocationNotFound))
}
