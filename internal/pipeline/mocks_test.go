package pipeline_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/couchcryptid/weather-watch/internal/domain"
	"github.com/couchcryptid/weather-watch/internal/observability"
)

// --- shared mocks, hand-rolled against the domain ports ---

type memRegistry struct {
	locs []domain.TrackedLocation
	err  error
}

func (r *memRegistry) ListTracked(_ context.Context) ([]domain.TrackedLocation, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.locs, nil
}

func (r *memRegistry) Get(_ context.Context, id int64) (domain.TrackedLocation, error) {
	if r.err != nil {
		return domain.TrackedLocation{}, r.err
	}
	for _, l := range r.locs {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.TrackedLocation{}, domain.ErrLocationNotFound
}

func (r *memRegistry) LocationExists(ctx context.Context, id int64) (bool, error) {
	_, err := r.Get(ctx, id)
	if err == domain.ErrLocationNotFound {
		return false, nil
	}
	return err == nil, err
}

// fakeProvider counts fetches and can fail for selected queries.
type fakeProvider struct {
	mu         sync.Mutex
	calls      int
	failFor    map[string]bool
	observedAt time.Time
	temp       float64
}

func (p *fakeProvider) Fetch(_ context.Context, query string) (domain.Observation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failFor[query] {
		return domain.Observation{}, &domain.ProviderError{Query: query, Err: fmt.Errorf("connection reset")}
	}
	return domain.Observation{
		ObservedAt: p.observedAt,
		TempC:      p.temp,
		Humidity:   60,
	}, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// memHistory is an in-memory observation store with the same idempotent
// append contract as the Postgres store.
type memHistory struct {
	mu      sync.Mutex
	rows    map[int64][]domain.Observation
	listErr map[int64]error
}

func newMemHistory() *memHistory {
	return &memHistory{rows: map[int64][]domain.Observation{}, listErr: map[int64]error{}}
}

func (h *memHistory) Append(_ context.Context, o domain.Observation) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, have := range h.rows[o.LocationID] {
		if have.ObservedAt.Equal(o.ObservedAt) {
			return false, nil
		}
	}
	h.rows[o.LocationID] = append(h.rows[o.LocationID], o)
	return true, nil
}

func (h *memHistory) ListRecent(_ context.Context, locationID int64, limit int) ([]domain.Observation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.listErr[locationID]; err != nil {
		return nil, err
	}
	rows := h.rows[locationID]
	if len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	return append([]domain.Observation(nil), rows...), nil
}

func (h *memHistory) count(locationID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rows[locationID])
}

// memEvents applies the same strict overlap rule as the SQL store.
type memEvents struct {
	mu        sync.Mutex
	events    []domain.ExtremeEvent
	insertErr error
}

func (s *memEvents) HasOverlapping(_ context.Context, locationID int64, eventType string, start, end time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ev.LocationID == locationID && ev.EventType == eventType &&
			domain.WindowsOverlap(start, end, ev.WindowStart, ev.WindowEnd) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memEvents) Insert(_ context.Context, ev domain.ExtremeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *memEvents) all() []domain.ExtremeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ExtremeEvent(nil), s.events...)
}

// stubPublisher records published events and can fail.
type stubPublisher struct {
	mu        sync.Mutex
	published []domain.ExtremeEvent
	err       error
}

func (p *stubPublisher) Publish(_ context.Context, ev domain.ExtremeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, ev)
	return nil
}

func (p *stubPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

// stubInference returns canned classifications or an error.
type stubInference struct {
	classifications []domain.Classification
	err             error
}

func (s *stubInference) Classify(_ context.Context, _ domain.ObservationSummary) ([]domain.Classification, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.classifications, nil
}

func newTestMetrics() *observability.Metrics {
	// Fresh registry per test to avoid "already registered" panics.
	return observability.NewMetricsForTesting()
}
