package observe

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// meterName scopes the analyzer's instruments.
const meterName = "pulseboard/analyzer"

// Metrics holds the analyzer's counters. Instruments resolve against the
// global meter provider, so they are no-ops until Init configures one.
type Metrics struct {
	IntervalsTotal      metric.Int64Counter
	PostsScored         metric.Int64Counter
	ScoreFailures       metric.Int64Counter
	SubtopicsDiscovered metric.Int64Counter
	TriggersDeleted     metric.Int64Counter
	NotificationsSent   metric.Int64Counter
}

// NewMetrics creates the analyzer's instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	m := &Metrics{}
	var err error
	if m.IntervalsTotal, err = meter.Int64Counter("analysis_intervals_total",
		metric.WithDescription("Analysis invocations handled")); err != nil {
		return nil, fmt.Errorf("creating counter: %w", err)
	}
	if m.PostsScored, err = meter.Int64Counter("posts_scored_total",
		metric.WithDescription("Posts successfully scored for sentiment")); err != nil {
		return nil, fmt.Errorf("creating counter: %w", err)
	}
	if m.ScoreFailures, err = meter.Int64Counter("score_failures_total",
		metric.WithDescription("Per-post scoring calls that errored")); err != nil {
		return nil, fmt.Errorf("creating counter: %w", err)
	}
	if m.SubtopicsDiscovered, err = meter.Int64Counter("subtopics_discovered_total",
		metric.WithDescription("Subtopics registered during first-interval discovery")); err != nil {
		return nil, fmt.Errorf("creating counter: %w", err)
	}
	if m.TriggersDeleted, err = meter.Int64Counter("triggers_deleted_total",
		metric.WithDescription("Recurring triggers deleted at completion")); err != nil {
		return nil, fmt.Errorf("creating counter: %w", err)
	}
	if m.NotificationsSent, err = meter.Int64Counter("notifications_sent_total",
		metric.WithDescription("Completion notifications dispatched")); err != nil {
		return nil, fmt.Errorf("creating counter: %w", err)
	}
	return m, nil
}
