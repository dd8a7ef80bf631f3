package dashboard

import (
	"time"

	"github.com/coal/linkguard/internal/pipeline"
	"github.com/coal/linkguard/internal/ruleset"
)

// FeedEvent wraps an EvaluationEvent with a unique feed ID.
type FeedEvent struct {
	ID string `json:"id"`
	pipeline.EvaluationEvent
}

// WSMessage is the envelope for all WebSocket messages.
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// StatsSnapshot is a point-in-time snapshot of accumulated statistics.
type StatsSnapshot struct {
	TotalEvaluations uint64            `json:"total_evaluations"`
	SafeCount        uint64            `json:"safe_count"`
	UnsafeCount      uint64            `json:"unsafe_count"`
	AvgScore         float64           `json:"avg_score"`
	ProfileCounts    map[string]uint64 `json:"profile_counts"`
	DegradedCounts   map[string]uint64 `json:"degraded_counts"`
	ScoreHistogram   [10]uint64        `json:"score_histogram"`
	TimeSeries       []TimeSeriesPoint `json:"time_series"`
}

// TimeSeriesPoint is a single point in the 60-minute time series.
type TimeSeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Count     uint64    `json:"count"`
	Unsafe    uint64    `json:"unsafe"`
}

// InitialState is sent to clients on WebSocket connect.
type InitialState struct {
	Events  []*FeedEvent     `json:"events"`
	Stats   *StatsSnapshot   `json:"stats"`
	Ruleset *ruleset.Ruleset `json:"ruleset"`
}
