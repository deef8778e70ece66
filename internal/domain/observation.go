package domain

import (
	"encoding/json"
	"time"
)

// Observation is a single weather reading for a tracked location.
// Immutable once appended to history; (LocationID, ObservedAt) is unique.
type Observation struct {
	LocationID    int64           `json:"location_id"`
	ObservedAt    time.Time       `json:"observed_at"`
	TempC         float64         `json:"temp_c"`
	Humidity      float64         `json:"humidity"`
	WindKph       float64         `json:"wind_kph"`
	UVIndex       float64         `json:"uv_index"`
	ConditionCode int             `json:"condition_code"`
	ConditionText string          `json:"condition_text,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

// ObservationSummary is the structured digest of recent history handed to
// the inference service.
type ObservationSummary struct {
	LocationID   int64          `json:"location_id"`
	LocationName string         `json:"location_name"`
	Series       []SummaryPoint `json:"series"`
}

// SummaryPoint is one row of the summary series.
type SummaryPoint struct {
	ObservedAt time.Time `json:"observed_at"`
	TempC      float64   `json:"temp_c"`
	Humidity   float64   `json:"humidity"`
	WindKph    float64   `json:"wind_kph"`
	UVIndex    float64   `json:"uv_index"`
}

// Summarize builds the inference input from a location's recent observations.
func Summarize(loc TrackedLocation, obs []Observation) ObservationSummary {
	s := ObservationSummary{
		LocationID:   loc.ID,
		LocationName: loc.Name,
		Series:       make([]SummaryPoint, len(obs)),
	}
	for i, o := range obs {
		s.Series[i] = SummaryPoint{
			ObservedAt: o.ObservedAt,
			TempC:      o.TempC,
			Humidity:   o.Humidity,
			WindKph:    o.WindKph,
			UVIndex:    o.UVIndex,
		}
	}
	return s
}
