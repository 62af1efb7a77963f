// Package commands implements the CLI subcommands for the pulseboard binary.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/internal/coordinator"
	"github.com/pulseboard/pulseboard/internal/feed"
	"github.com/pulseboard/pulseboard/internal/language"
	"github.com/pulseboard/pulseboard/internal/notify"
	"github.com/pulseboard/pulseboard/internal/schedule"
	"github.com/pulseboard/pulseboard/internal/store/dynamo"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

func newStore(cfg *config.Config, logger *slog.Logger) (*dynamo.Store, error) {
	st, err := dynamo.New(&cfg.DynamoDB, dynamo.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("creating DynamoDB store: %w", err)
	}
	return st, nil
}

func newController(cfg *config.Config, logger *slog.Logger) (schedule.Controller, error) {
	switch cfg.Schedule.Backend {
	case "", "scheduler":
		return schedule.NewSchedulerController(cfg.Region, cfg.Schedule.TargetARN, cfg.Schedule.RoleARN,
			schedule.WithSchedulerLogger(logger))
	case "eventbridge":
		return schedule.NewRuleController(cfg.Region, cfg.Schedule.TargetARN, schedule.WithRuleLogger(logger))
	default:
		return nil, fmt.Errorf("unsupported schedule backend: %s", cfg.Schedule.Backend)
	}
}

func newNotifier(cfg *config.Config, logger *slog.Logger) (notify.Notifier, error) {
	d := notify.NewDispatcher(logger)
	if cfg.Notify.SNSTopicARN != "" {
		sink, err := notify.NewSNSSink(cfg.Region, cfg.Notify.SNSTopicARN)
		if err != nil {
			return nil, fmt.Errorf("creating SNS sink: %w", err)
		}
		d.AddSink(sink)
	}
	if cfg.Notify.EmailFunction != "" {
		sink, err := notify.NewLambdaSink(cfg.Region, cfg.Notify.EmailFunction)
		if err != nil {
			return nil, fmt.Errorf("creating lambda sink: %w", err)
		}
		d.AddSink(sink)
	}
	if cfg.Notify.QueueURL != "" {
		sink, err := notify.NewSQSSink(cfg.Region, cfg.Notify.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("creating SQS sink: %w", err)
		}
		d.AddSink(sink)
	}
	if cfg.Notify.SNSTopicARN == "" && cfg.Notify.EmailFunction == "" && cfg.Notify.QueueURL == "" {
		d.AddSink(notify.NewConsoleSink(logger))
	}
	return d, nil
}

func newSearcher(cfg *config.Config, logger *slog.Logger) (feed.Searcher, error) {
	var tokens feed.TokenProvider
	if cfg.Feed.TokenSecretID != "" {
		st, err := feed.NewSecretsToken(cfg.Region, cfg.Feed.TokenSecretID, nil)
		if err != nil {
			return nil, fmt.Errorf("creating feed token provider: %w", err)
		}
		tokens = st
	} else {
		tokens = feed.StaticToken(cfg.Feed.BearerToken)
	}
	return feed.NewClient(cfg.Feed.BaseURL, tokens, feed.WithClientLogger(logger))
}

// buildCoordinator wires a full coordinator from the project config.
func buildCoordinator(cfg *config.Config, logger *slog.Logger) (*coordinator.Coordinator, *dynamo.Store, error) {
	st, err := newStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	searcher, err := newSearcher(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	analysis, err := language.NewComprehendClient(cfg.Region)
	if err != nil {
		return nil, nil, fmt.Errorf("creating analysis client: %w", err)
	}
	controller, err := newController(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return nil, nil, err
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
		Logger:    logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating coordinator: %w", err)
	}
	return coord, st, nil
}
