package domain

import (
	"fmt"
	"time"
)

// Threshold rules derived from NWS-style severe weather criteria, tuned for
// the tropical climates this service tracks. A rule fires when its condition
// holds for at least minRun consecutive observations.
type thresholdRule struct {
	eventType   string
	minRun      int
	criticalRun int // run length that escalates to CRITICAL; 0 = never
	severity    string
	match       func(Observation) bool
	describe    func(run []Observation) string
	advice      string
}

var thresholdRules = []thresholdRule{
	{
		eventType:   EventWildfireRisk,
		minRun:      3,
		criticalRun: 5,
		severity:    SeverityHigh,
		match: func(o Observation) bool {
			return o.TempC > 37 && o.Humidity < 40
		},
		describe: func(run []Observation) string {
			return fmt.Sprintf("temperature above 37.0C with humidity below 40%% for %d consecutive observations (peak %.1fC)",
				len(run), peakTemp(run))
		},
		advice: "Restrict open burning and pre-position fire response resources.",
	},
	{
		eventType: EventHeatStress,
		minRun:    2,
		severity:  SeverityHigh,
		match: func(o Observation) bool {
			return o.TempC > 38 && o.UVIndex > 10
		},
		describe: func(run []Observation) string {
			return fmt.Sprintf("temperature above 38.0C with UV index above 10 for %d consecutive observations (peak %.1fC)",
				len(run), peakTemp(run))
		},
		advice: "Advise limiting outdoor exposure during midday hours and monitor vulnerable groups.",
	},
	{
		eventType: EventPestOutbreak,
		minRun:    4,
		severity:  SeverityMedium,
		match: func(o Observation) bool {
			return o.Humidity > 90 && o.TempC > 25
		},
		describe: func(run []Observation) string {
			return fmt.Sprintf("humidity above 90%% with temperature above 25.0C for %d consecutive observations",
				len(run))
		},
		advice: "Increase crop inspection frequency; conditions favor fungal and insect outbreaks.",
	},
}

// DetectThresholds evaluates the rules over observations ordered ascending
// by ObservedAt and returns zero or more candidates. For each rule only the
// longest qualifying consecutive run produces a candidate, so one sustained
// episode yields one window rather than one per sub-run.
func DetectThresholds(locationID int64, obs []Observation) []ExtremeEventCandidate {
	var out []ExtremeEventCandidate
	for _, rule := range thresholdRules {
		run := longestRun(obs, rule.match)
		if len(run) < rule.minRun {
			continue
		}
		severity := rule.severity
		if rule.criticalRun > 0 && len(run) >= rule.criticalRun {
			severity = SeverityCritical
		}
		out = append(out, ExtremeEventCandidate{
			LocationID:    locationID,
			DetectedAt:    clock.Now().UTC(),
			EventType:     rule.eventType,
			Severity:      severity,
			WindowStart:   run[0].ObservedAt,
			WindowEnd:     run[len(run)-1].ObservedAt,
			Details:       rule.describe(run),
			Advice:        rule.advice,
			Source:        SourceThreshold,
			EvidenceTimes: evidenceTimes(run),
		})
	}
	return out
}

// longestRun returns the longest consecutive slice of obs satisfying match.
func longestRun(obs []Observation, match func(Observation) bool) []Observation {
	var best, cur []Observation
	for i := range obs {
		if match(obs[i]) {
			cur = append(cur, obs[i])
			if len(cur) > len(best) {
				best = cur
			}
			continue
		}
		cur = nil
	}
	return best
}

func peakTemp(run []Observation) float64 {
	peak := run[0].TempC
	for _, o := range run[1:] {
		if o.TempC > peak {
			peak = o.TempC
		}
	}
	return peak
}

func evidenceTimes(run []Observation) []time.Time {
	ts := make([]time.Time, len(run))
	for i, o := range run {
		ts[i] = o.ObservedAt
	}
	return ts
}
