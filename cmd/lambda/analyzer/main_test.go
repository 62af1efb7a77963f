package main

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/coordinator"
	pblambda "github.com/pulseboard/pulseboard/internal/lambda"
	"github.com/pulseboard/pulseboard/pkg/types"
)

// --- stubs over the coordinator's collaborators, enough for the handler path ---

type stubTopics struct {
	topic  *types.Topic
	getErr error
}

func (s *stubTopics) Get(_ context.Context, _ int64, _ string) (*types.Topic, error) {
	return s.topic, s.getErr
}

func (s *stubTopics) SetStatus(_ context.Context, _ int64, _ string, _ types.TopicStatus) error {
	return nil
}

type stubResults struct {
	runCount int
	stored   int
}

func (s *stubResults) PutResult(_ context.Context, _ *types.Result) error {
	s.stored++
	return nil
}

func (s *stubResults) CountMainRuns(_ context.Context, _ int64) (int, error) {
	return s.runCount, nil
}

type stubSubtopics struct{}

func (stubSubtopics) PutSubtopic(_ context.Context, _ int64, _ string) error { return nil }
func (stubSubtopics) ListSubtopics(_ context.Context, _ int64) ([]string, error) {
	return nil, nil
}

type stubSearcher struct {
	posts []types.Post
}

func (s *stubSearcher) Authenticate(_ context.Context) error { return nil }
func (s *stubSearcher) Search(_ context.Context, _ string, _ int) ([]types.Post, error) {
	return s.posts, nil
}

type stubScorer struct{}

func (stubScorer) Score(_ context.Context, _, _ string) (types.Sentiment, types.SentimentScores, error) {
	return types.SentimentPositive, types.SentimentScores{Positive: 1}, nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, _, _ string) ([]string, error) { return nil, nil }

type stubController struct{}

func (stubController) CreateRecurringTrigger(_ context.Context, _ int64, _ string, _ int32, _ types.IntervalUnit) error {
	return nil
}
func (stubController) DeleteTrigger(_ context.Context, _ int64) error { return nil }

type stubNotifier struct{}

func (stubNotifier) Subscribe(_ context.Context, _ string) error            { return nil }
func (stubNotifier) NotifyComplete(_ context.Context, _ *types.Topic) error { return nil }

func newTestDeps(t *testing.T, topics *stubTopics, results *stubResults) *pblambda.Deps {
	t.Helper()
	coord, err := coordinator.New(coordinator.Deps{
		Topics:    topics,
		Results:   results,
		Subtopics: stubSubtopics{},
		Search:    &stubSearcher{posts: []types.Post{{Text: "a post", URI: "p1"}}},
		Scorer:    stubScorer{},
		Phrases:   stubExtractor{},
		Schedule:  stubController{},
		Notifier:  stubNotifier{},
		Logger:    slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)
	return &pblambda.Deps{Coordinator: coord, Logger: slog.New(slog.DiscardHandler)}
}

func TestHandleAnalyze(t *testing.T) {
	topics := &stubTopics{topic: &types.Topic{
		QueryID:        7,
		Topic:          "coffee",
		Email:          "owner@example.com",
		NumIntervals:   5,
		PostsToAnalyze: 10,
	}}
	results := &stubResults{runCount: 2}
	d := newTestDeps(t, topics, results)

	resp, err := handleAnalyze(context.Background(), d, pblambda.AnalyzeRequest{QueryID: 7, Topic: "coffee"})
	require.NoError(t, err)

	assert.True(t, resp.MainTopicStored)
	assert.Equal(t, 3, resp.RunCountAfter)
	assert.Equal(t, 5, resp.IntervalsNeeded)
	assert.Equal(t, 1, results.stored)
}

func TestHandleAnalyze_TopicLookupFailure(t *testing.T) {
	topics := &stubTopics{getErr: fmt.Errorf("unreachable")}
	d := newTestDeps(t, topics, &stubResults{})

	_, err := handleAnalyze(context.Background(), d, pblambda.AnalyzeRequest{QueryID: 7})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching topic")
}
