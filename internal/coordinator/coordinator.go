// Package coordinator implements the recurring-analysis job: the
// per-invocation state machine that samples the feed, scores sentiment,
// accumulates per-interval summaries, and terminates its own trigger once the
// topic's run budget is exhausted.
//
// The job is stateless between invocations. Its phase is derived on every
// tick from a fresh count of stored main-topic summaries, which keeps
// redelivered invocations idempotent: a retry that already wrote its summary
// sees a count that reflects the write and falls through to the completion
// guard instead of double-writing.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pulseboard/pulseboard/internal/feed"
	"github.com/pulseboard/pulseboard/internal/language"
	"github.com/pulseboard/pulseboard/internal/notify"
	"github.com/pulseboard/pulseboard/internal/observe"
	"github.com/pulseboard/pulseboard/internal/schedule"
	"github.com/pulseboard/pulseboard/internal/store"
	"github.com/pulseboard/pulseboard/pkg/types"
)

// Deps holds the coordinator's injected collaborators.
type Deps struct {
	Topics    store.TopicStore
	Results   store.ResultStore
	Subtopics store.SubtopicStore
	Search    feed.Searcher
	Scorer    language.Scorer
	Phrases   language.PhraseExtractor
	Schedule  schedule.Controller
	Notifier  notify.Notifier
	Metrics   *observe.Metrics
	Logger    *slog.Logger
}

// Coordinator runs one analysis interval per invocation.
type Coordinator struct {
	topics    store.TopicStore
	results   store.ResultStore
	subtopics store.SubtopicStore
	search    feed.Searcher
	scorer    language.Scorer
	phrases   language.PhraseExtractor
	schedule  schedule.Controller
	notifier  notify.Notifier
	metrics   *observe.Metrics
	tracer    trace.Tracer
	logger    *slog.Logger
}

// New creates a Coordinator, validating that every collaborator is present.
func New(deps Deps) (*Coordinator, error) {
	switch {
	case deps.Topics == nil:
		return nil, fmt.Errorf("topic store required")
	case deps.Results == nil:
		return nil, fmt.Errorf("result store required")
	case deps.Subtopics == nil:
		return nil, fmt.Errorf("subtopic store required")
	case deps.Search == nil:
		return nil, fmt.Errorf("feed searcher required")
	case deps.Scorer == nil:
		return nil, fmt.Errorf("sentiment scorer required")
	case deps.Phrases == nil:
		return nil, fmt.Errorf("phrase extractor required")
	case deps.Schedule == nil:
		return nil, fmt.Errorf("schedule controller required")
	case deps.Notifier == nil:
		return nil, fmt.Errorf("notifier required")
	}
	if deps.Metrics == nil {
		m, err := observe.NewMetrics()
		if err != nil {
			return nil, err
		}
		deps.Metrics = m
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Coordinator{
		topics:    deps.Topics,
		results:   deps.Results,
		subtopics: deps.Subtopics,
		search:    deps.Search,
		scorer:    deps.Scorer,
		phrases:   deps.Phrases,
		schedule:  deps.Schedule,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		tracer:    otel.Tracer("pulseboard/coordinator"),
		logger:    deps.Logger,
	}, nil
}

// IntervalResult summarizes one invocation for manual and test callers. The
// scheduled-trigger path ignores it.
type IntervalResult struct {
	MainTopicStored bool `json:"mainTopicStored"`
	RunCountAfter   int  `json:"runCountAfter"`
	IntervalsNeeded int  `json:"intervalsNeeded"`
}

// HandleInterval performs one analysis interval for a query. topicHint, when
// set, short-cuts the topic lookup; it is never required.
//
// Fatal errors (topic not found, feed authentication, run-count scan) are
// returned so the host's retry policy applies. Per-post and per-subtopic
// failures are isolated and logged, never aborting siblings.
//
// Known gap, preserved deliberately: the run count advances only when a
// main-topic summary is stored, so a topic whose search or scoring fails
// every interval keeps its trigger firing past the nominal budget. There is
// no maximum-attempts or backoff policy.
func (c *Coordinator) HandleInterval(ctx context.Context, queryID int64, topicHint string) (*IntervalResult, error) {
	ctx, span := c.tracer.Start(ctx, "HandleInterval",
		trace.WithAttributes(attribute.Int64("queryId", queryID)))
	defer span.End()

	logger := c.logger.With("queryId", queryID, "invocation", ulid.Make().String())
	c.metrics.IntervalsTotal.Add(ctx, 1)

	topic, err := c.topics.Get(ctx, queryID, topicHint)
	if err != nil {
		return nil, fmt.Errorf("fetching topic for query %d: %w", queryID, err)
	}

	// A terminal status means a prior invocation finished the topic but its
	// trigger deletion may not have stuck. Clean up and do no work.
	if status := topic.EffectiveStatus(); status.Terminal() {
		logger.Info("topic already terminal, removing any lingering trigger", "status", string(status))
		if err := c.schedule.DeleteTrigger(ctx, queryID); err != nil {
			logger.Error("deleting lingering trigger failed", "error", err)
		}
		return &IntervalResult{
			RunCountAfter:   topic.NumIntervals,
			IntervalsNeeded: topic.NumIntervals,
		}, nil
	}

	// Fresh every invocation: the stored-summary count is the sole source of
	// truth for how many intervals have completed.
	runCount, err := c.results.CountMainRuns(ctx, queryID)
	if err != nil {
		return nil, fmt.Errorf("computing run count for query %d: %w", queryID, err)
	}

	// Idempotent-completion guard for redelivered final-interval invocations:
	// the summary is already stored, so resend the notification (acceptable
	// duplicate) and retry the trigger deletion.
	if runCount >= topic.NumIntervals {
		logger.Info("run budget already exhausted", "runCount", runCount, "numIntervals", topic.NumIntervals)
		c.finalize(ctx, logger, topic)
		return &IntervalResult{
			RunCountAfter:   runCount,
			IntervalsNeeded: topic.NumIntervals,
		}, nil
	}

	firstRun := runCount == 0

	if err := c.search.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("query %d: %w", queryID, err)
	}

	posts, err := c.search.Search(ctx, topic.Topic, topic.PostsToAnalyze)
	if err != nil {
		// Not fatal: the interval produces no data point and the run count
		// does not advance.
		logger.Error("main topic search failed", "topic", topic.Topic, "error", err)
		posts = nil
	}

	mainStored := false
	if summary := c.analyzeTerm(ctx, logger, topic.Topic, posts, false, ""); summary != nil {
		summary.QueryID = queryID
		if err := c.results.PutResult(ctx, summary); err != nil {
			logger.Error("storing main topic summary failed", "error", err)
		} else {
			mainStored = true
		}
	}

	if firstRun {
		// Owner subscription happens on the first interval even when the
		// search came back empty.
		if err := c.notifier.Subscribe(ctx, topic.Email); err != nil {
			logger.Error("subscribing topic owner failed", "email", topic.Email, "error", err)
		}
		if len(posts) > 0 {
			c.discoverSubtopics(ctx, logger, topic, posts)
		}
	} else {
		labels, err := c.subtopics.ListSubtopics(ctx, queryID)
		if err != nil {
			logger.Error("listing subtopics failed", "error", err)
		} else if len(labels) > 0 {
			c.analyzeSubtopics(ctx, logger, topic, labels)
		}
	}

	effective := runCount
	if mainStored {
		effective++
	}
	if effective >= topic.NumIntervals {
		logger.Info("run budget exhausted, finalizing", "runCount", effective)
		c.finalize(ctx, logger, topic)
	}

	return &IntervalResult{
		MainTopicStored: mainStored,
		RunCountAfter:   effective,
		IntervalsNeeded: topic.NumIntervals,
	}, nil
}

// finalize sends the completion notification, deletes the recurring trigger,
// and best-effort flips the topic's status. All three are independent; none
// is load-bearing for correctness, which rests on the run-count guard.
func (c *Coordinator) finalize(ctx context.Context, logger *slog.Logger, topic *types.Topic) {
	if err := c.notifier.NotifyComplete(ctx, topic); err != nil {
		logger.Error("completion notification failed", "error", err)
	} else {
		c.metrics.NotificationsSent.Add(ctx, 1)
	}

	if err := c.schedule.DeleteTrigger(ctx, topic.QueryID); err != nil {
		// The next redelivered tick hits the completion guard and retries.
		logger.Error("deleting trigger failed", "error", err)
	} else {
		c.metrics.TriggersDeleted.Add(ctx, 1)
	}

	if topic.EffectiveStatus() != types.TopicCompleted {
		if err := c.topics.SetStatus(ctx, topic.QueryID, topic.Topic, types.TopicCompleted); err != nil {
			logger.Warn("status transition to COMPLETED failed", "error", err)
		}
	}
}
