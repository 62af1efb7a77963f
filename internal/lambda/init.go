package lambda

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/pulseboard/pulseboard/internal/coordinator"
	"github.com/pulseboard/pulseboard/internal/feed"
	"github.com/pulseboard/pulseboard/internal/language"
	"github.com/pulseboard/pulseboard/internal/notify"
	"github.com/pulseboard/pulseboard/internal/observe"
	"github.com/pulseboard/pulseboard/internal/schedule"
	"github.com/pulseboard/pulseboard/internal/store/dynamo"
)

// Deps holds the shared dependencies for the analyzer handler.
type Deps struct {
	Coordinator *coordinator.Coordinator
	Logger      *slog.Logger
	Shutdown    func(context.Context) error
}

var (
	depsOnce sync.Once
	deps     *Deps
	depsErr  error
)

// GetDeps memoizes Init across warm invocations.
func GetDeps() (*Deps, error) {
	depsOnce.Do(func() {
		deps, depsErr = Init(context.Background())
	})
	return deps, depsErr
}

// Init creates shared dependencies from environment variables.
// Required: AWS_REGION, QUERIES_TABLE, DATA_TABLE, SUBTOPICS_TABLE,
// COUNTERS_TABLE, FEED_BASE_URL, and one of FEED_TOKEN_SECRET_ID or
// FEED_BEARER_TOKEN.
func Init(ctx context.Context) (*Deps, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	region := os.Getenv("AWS_REGION")
	if region == "" {
		return nil, fmt.Errorf("AWS_REGION environment variable required")
	}

	shutdown, err := observe.Init(ctx, "pulseboard-analyzer")
	if err != nil {
		return nil, fmt.Errorf("initializing observability: %w", err)
	}

	st, err := dynamo.New(&dynamo.Config{
		Region:         region,
		Endpoint:       os.Getenv("DYNAMODB_ENDPOINT"),
		QueriesTable:   os.Getenv("QUERIES_TABLE"),
		DataTable:      os.Getenv("DATA_TABLE"),
		SubtopicsTable: os.Getenv("SUBTOPICS_TABLE"),
		CountersTable:  os.Getenv("COUNTERS_TABLE"),
	}, dynamo.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("creating DynamoDB store: %w", err)
	}

	searcher, err := newSearcher(region, logger)
	if err != nil {
		return nil, err
	}

	analysis, err := language.NewComprehendClient(region)
	if err != nil {
		return nil, fmt.Errorf("creating analysis client: %w", err)
	}

	controller, err := newController(region, logger)
	if err != nil {
		return nil, err
	}

	notifier, err := newNotifier(region, logger)
	if err != nil {
		return nil, err
	}

	metrics, err := observe.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	coord, err := coordinator.New(coordinator.Deps{
		Topics:    st,
		Results:   st,
		Subtopics: st,
		Search:    searcher,
		Scorer:    analysis,
		Phrases:   analysis,
		Schedule:  controller,
		Notifier:  notifier,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating coordinator: %w", err)
	}

	return &Deps{Coordinator: coord, Logger: logger, Shutdown: shutdown}, nil
}

func newSearcher(region string, logger *slog.Logger) (feed.Searcher, error) {
	baseURL := os.Getenv("FEED_BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("FEED_BASE_URL environment variable required")
	}

	var tokens feed.TokenProvider
	if secretID := os.Getenv("FEED_TOKEN_SECRET_ID"); secretID != "" {
		st, err := feed.NewSecretsToken(region, secretID, nil)
		if err != nil {
			return nil, fmt.Errorf("creating feed token provider: %w", err)
		}
		tokens = st
	} else if token := os.Getenv("FEED_BEARER_TOKEN"); token != "" {
		tokens = feed.StaticToken(token)
	} else {
		return nil, fmt.Errorf("FEED_TOKEN_SECRET_ID or FEED_BEARER_TOKEN environment variable required")
	}

	client, err := feed.NewClient(baseURL, tokens, feed.WithClientLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("creating feed client: %w", err)
	}
	return client, nil
}

func newController(region string, logger *slog.Logger) (schedule.Controller, error) {
	targetARN := os.Getenv("ANALYZER_TARGET_ARN")
	switch backend := envOrDefault("SCHEDULE_BACKEND", "scheduler"); backend {
	case "scheduler":
		return schedule.NewSchedulerController(region, targetARN, os.Getenv("SCHEDULER_ROLE_ARN"),
			schedule.WithSchedulerLogger(logger))
	case "eventbridge":
		return schedule.NewRuleController(region, targetARN, schedule.WithRuleLogger(logger))
	default:
		return nil, fmt.Errorf("unknown SCHEDULE_BACKEND %q", backend)
	}
}

func newNotifier(region string, logger *slog.Logger) (notify.Notifier, error) {
	d := notify.NewDispatcher(logger)
	if topicARN := os.Getenv("SNS_TOPIC_ARN"); topicARN != "" {
		sink, err := notify.NewSNSSink(region, topicARN)
		if err != nil {
			return nil, fmt.Errorf("creating SNS sink: %w", err)
		}
		d.AddSink(sink)
	}
	if fn := os.Getenv("EMAIL_FUNCTION_NAME"); fn != "" {
		sink, err := notify.NewLambdaSink(region, fn)
		if err != nil {
			return nil, fmt.Errorf("creating lambda sink: %w", err)
		}
		d.AddSink(sink)
	}
	if queueURL := os.Getenv("COMPLETION_QUEUE_URL"); queueURL != "" {
		sink, err := notify.NewSQSSink(region, queueURL)
		if err != nil {
			return nil, fmt.Errorf("creating SQS sink: %w", err)
		}
		d.AddSink(sink)
	}
	if len(os.Getenv("SNS_TOPIC_ARN"))+len(os.Getenv("EMAIL_FUNCTION_NAME"))+len(os.Getenv("COMPLETION_QUEUE_URL")) == 0 {
		d.AddSink(notify.NewConsoleSink(logger))
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
