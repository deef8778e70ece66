// Package weatherapi adapts the WeatherAPI.com current-conditions endpoint
// to the domain WeatherProvider port.
package weatherapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-watch/internal/domain"
)

const defaultBaseURL = "https://api.weatherapi.com/v1"

// Client implements domain.WeatherProvider against api.weatherapi.com.
// Stateless; each Fetch is an independent request.
type Client struct {
	key        string
	httpClient *http.Client
	baseURL    string
	clk        clockwork.Clock
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithClock replaces the fallback timestamp source.
func WithClock(clk clockwork.Clock) Option {
	return func(c *Client) { c.clk = clk }
}

// NewClient creates a WeatherAPI.com client. The timeout bounds each request;
// a timeout surfaces as a ProviderError like any other fetch failure.
func NewClient(key string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		key: key,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		clk:     clockwork.NewRealClock(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves the current observation for a free-text location query.
// All failure modes return a *domain.ProviderError.
func (c *Client) Fetch(ctx context.Context, query string) (domain.Observation, error) {
	params := url.Values{
		"key": {c.key},
		"q":   {query},
		"aqi": {"no"},
	}
	fullURL := fmt.Sprintf("%s/current.json?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Observation{}, &domain.ProviderError{Query: query, Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Observation{}, &domain.ProviderError{Query: query, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Observation{}, &domain.ProviderError{Query: query, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return domain.Observation{}, &domain.ProviderError{
			Query: query,
			Err:   fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200)),
		}
	}

	var cur currentResponse
	if err := json.Unmarshal(body, &cur); err != nil {
		return domain.Observation{}, &domain.ProviderError{Query: query, Err: fmt.Errorf("decode response: %w", err)}
	}
	if cur.Current == nil {
		return domain.Observation{}, &domain.ProviderError{Query: query, Err: fmt.Errorf("response missing current block")}
	}

	observedAt := c.clk.Now().UTC()
	if cur.Current.LastUpdatedEpoch > 0 {
		observedAt = time.Unix(cur.Current.LastUpdatedEpoch, 0).UTC()
	}

	return domain.Observation{
		ObservedAt:    observedAt,
		TempC:         cur.Current.TempC,
		Humidity:      float64(cur.Current.Humidity),
		WindKph:       cur.Current.WindKph,
		UVIndex:       cur.Current.UV,
		ConditionCode: cur.Current.Condition.Code,
		ConditionText: cur.Current.Condition.Text,
		Raw:           json.RawMessage(body),
	}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// WeatherAPI.com response types, current-conditions subset.

type currentResponse struct {
	Location *struct {
		Name string  `json:"name"`
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
	} `json:"location"`
	Current *struct {
		LastUpdatedEpoch int64   `json:"last_updated_epoch"`
		TempC            float64 `json:"temp_c"`
		Humidity         int     `json:"humidity"`
		WindKph          float64 `json:"wind_kph"`
		UV               float64 `json:"uv"`
		Condition        struct {
			Text string `json:"text"`
			Code int    `json:"code"`
		} `json:"condition"`
	} `json:"current"`
}
