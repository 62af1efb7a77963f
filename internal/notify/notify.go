// Package notify delivers one-time completion messages to topic owners via a
// subscribe-then-publish pattern. A dispatcher fans completions out to
// configured sinks; each sink failure is retried a bounded number of times
// and then logged, never aborting the other sinks.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pulseboard/pulseboard/pkg/types"
)

// DefaultSubject is the completion message subject, kept from the original
// notification wording.
const DefaultSubject = "It's Done!"

// dispatchAttempts bounds retries per sink for one completion.
const dispatchAttempts = 2

// Notifier is the notification capability consumed by the coordinator.
type Notifier interface {
	// Subscribe registers the owner's address for future deliveries,
	// filtering them to that address. Re-subscribing an already-subscribed
	// address is not an error.
	Subscribe(ctx context.Context, address string) error

	// NotifyComplete sends the one-time completion message for a topic.
	NotifyComplete(ctx context.Context, topic *types.Topic) error
}

// Sink is one completion delivery backend.
type Sink interface {
	Name() string
	SendComplete(ctx context.Context, topic *types.Topic) error
}

// Subscriber is implemented by sinks that maintain their own subscription
// state (SNS).
type Subscriber interface {
	Subscribe(ctx context.Context, address string) error
}

// CompletionBody renders the completion message text for a topic.
func CompletionBody(topic *types.Topic) string {
	return fmt.Sprintf("Sentiment analysis for %q has finished: all %d intervals are complete. Your dashboard is ready.",
		topic.Topic, topic.NumIntervals)
}

// Dispatcher routes subscriptions and completions to configured sinks.
type Dispatcher struct {
	sinks  []Sink
	logger *slog.Logger
}

var _ Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher over the given sinks.
func NewDispatcher(logger *slog.Logger, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sinks: sinks, logger: logger}
}

// AddSink appends a sink.
func (d *Dispatcher) AddSink(s Sink) { d.sinks = append(d.sinks, s) }

// Subscribe forwards the subscription to every sink that manages one.
func (d *Dispatcher) Subscribe(ctx context.Context, address string) error {
	var lastErr error
	for _, s := range d.sinks {
		sub, ok := s.(Subscriber)
		if !ok {
			continue
		}
		if err := sub.Subscribe(ctx, address); err != nil {
			d.logger.Error("subscription failed", "sink", s.Name(), "error", err)
			lastErr = err
		}
	}
	return lastErr
}

// NotifyComplete fans the completion out to all sinks. Each sink gets
// dispatchAttempts tries; failures are logged and do not affect siblings.
func (d *Dispatcher) NotifyComplete(ctx context.Context, topic *types.Topic) error {
	for _, s := range d.sinks {
		var err error
		for attempt := 1; attempt <= dispatchAttempts; attempt++ {
			if err = s.SendComplete(ctx, topic); err == nil {
				break
			}
			if attempt < dispatchAttempts {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
				}
			}
		}
		if err != nil {
			d.logger.Error("completion notification failed",
				"sink", s.Name(), "queryId", topic.QueryID, "error", err)
		}
	}
	return nil
}

// ConsoleSink logs completions; used for local runs and as a fallback when no
// delivery backend is configured.
type ConsoleSink struct {
	logger *slog.Logger
}

// NewConsoleSink creates a console sink.
func NewConsoleSink(logger *slog.Logger) *ConsoleSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleSink{logger: logger}
}

// Name returns the sink identifier.
func (c *ConsoleSink) Name() string { return "console" }

// SendComplete logs the completion.
func (c *ConsoleSink) SendComplete(_ context.Context, topic *types.Topic) error {
	c.logger.Info("analysis complete",
		"queryId", topic.QueryID, "topic", topic.Topic, "email", topic.Email,
		"numIntervals", topic.NumIntervals)
	return nil
}
