// Package schedule manages the recurring trigger that re-invokes the analyzer
// for a topic. Trigger names derive deterministically from the query ID so
// deletion never needs an opaque handle, and deleting an absent trigger is
// success.
package schedule

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pulseboard/pulseboard/pkg/types"
)

// Controller creates and deletes the recurring trigger for a query.
type Controller interface {
	CreateRecurringTrigger(ctx context.Context, queryID int64, topic string, length int32, unit types.IntervalUnit) error
	DeleteTrigger(ctx context.Context, queryID int64) error
}

// TriggerName returns the deterministic trigger name for a query.
func TriggerName(queryID int64) string {
	return fmt.Sprintf("sentiment-analysis-%d", queryID)
}

// RateExpression builds the schedule expression for a period, e.g.
// "rate(1 hour)" or "rate(30 minutes)".
func RateExpression(length int32, unit types.IntervalUnit) (string, error) {
	if length < 1 {
		return "", fmt.Errorf("interval length must be >= 1, got %d", length)
	}
	var word string
	switch unit {
	case types.UnitMinutes:
		word = "minute"
	case types.UnitHours:
		word = "hour"
	case types.UnitDays:
		word = "day"
	default:
		return "", fmt.Errorf("unknown interval unit %q", unit)
	}
	if length > 1 {
		word += "s"
	}
	return fmt.Sprintf("rate(%d %s)", length, word), nil
}

// triggerInput is the fixed payload delivered to the analyzer on every tick.
type triggerInput struct {
	QueryID int64  `json:"queryId"`
	Topic   string `json:"topic,omitempty"`
}

func marshalTriggerInput(queryID int64, topic string) (string, error) {
	data, err := json.Marshal(triggerInput{QueryID: queryID, Topic: topic})
	if err != nil {
		return "", fmt.Errorf("marshaling trigger payload: %w", err)
	}
	return string(data), nil
}
