package weatherapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-watch/internal/domain"
)

func testLogger() *slog.Logger { return slog.Default() }

const currentBody = `{
	"location": {"name": "Da Nang", "lat": 16.07, "lon": 108.22},
	"current": {
		"last_updated_epoch": 1767261600,
		"temp_c": 31.5,
		"humidity": 66,
		"wind_kph": 14.4,
		"uv": 8.0,
		"condition": {"text": "Partly cloudy", "code": 1003}
	}
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("test-key", 2*time.Second, testLogger(), WithBaseURL(srv.URL))
	return srv, c
}

func TestClient_Fetch(t *testing.T) {
	var gotQuery, gotKey string
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/current.json", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(currentBody)) //nolint:errcheck
	})

	obs, err := c.Fetch(context.Background(), "Da Nang")
	require.NoError(t, err)

	assert.Equal(t, "Da Nang", gotQuery)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, 31.5, obs.TempC)
	assert.Equal(t, 66.0, obs.Humidity)
	assert.Equal(t, 14.4, obs.WindKph)
	assert.Equal(t, 8.0, obs.UVIndex)
	assert.Equal(t, 1003, obs.ConditionCode)
	assert.Equal(t, time.Unix(1767261600, 0).UTC(), obs.ObservedAt)
	assert.JSONEq(t, currentBody, string(obs.Raw))
}

func TestClient_Fetch_ErrorStatus(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":1006,"message":"No matching location found."}}`, http.StatusBadRequest)
	})

	_, err := c.Fetch(context.Background(), "nowhere")
	require.Error(t, err)

	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "nowhere", perr.Query)
	assert.Contains(t, perr.Error(), "status 400")
}

func TestClient_Fetch_MalformedBody(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>upstream proxy error</html>")) //nolint:errcheck
	})

	_, err := c.Fetch(context.Background(), "Da Nang")
	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
}

func TestClient_Fetch_MissingCurrentBlock(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"location": {"name": "Da Nang"}}`)) //nolint:errcheck
	})

	_, err := c.Fetch(context.Background(), "Da Nang")
	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, perr.Error(), "missing current block")
}

func TestClient_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(currentBody)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)

	c := NewClient("test-key", 50*time.Millisecond, testLogger(), WithBaseURL(srv.URL))

	_, err := c.Fetch(context.Background(), "Da Nang")
	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
}

func TestRateLimited_ForwardsAndBounds(t *testing.T) {
	calls := 0
	_, inner := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Write([]byte(currentBody)) //nolint:errcheck
	})

	rl := NewRateLimited(inner, 100, 1)
	for i := 0; i < 3; i++ {
		_, err := rl.Fetch(context.Background(), "Da Nang")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
}

func TestRateLimited_CancelledWaitIsProviderError(t *testing.T) {
	_, inner := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(currentBody)) //nolint:errcheck
	})

	// Zero rate with an exhausted burst: Wait can never be satisfied.
	rl := NewRateLimited(inner, 0, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := rl.Fetch(ctx, "Da Nang")
	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
}
