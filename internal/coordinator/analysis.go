package coordinator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pulseboard/pulseboard/internal/language"
	"github.com/pulseboard/pulseboard/pkg/types"
)

// maxConcurrentScores bounds the per-post scoring fan-out.
const maxConcurrentScores = 8

// maxConcurrentSubtopics bounds the per-subtopic analysis fan-out.
const maxConcurrentSubtopics = 3

// analyzeTerm scores the given posts and aggregates them into a summary for
// one search term. Posts with empty text are skipped; posts whose scoring
// call errors are excluded from both counts and score means. Returns nil when
// no post was successfully scored, in which case nothing is stored for this
// term this interval.
func (c *Coordinator) analyzeTerm(ctx context.Context, logger *slog.Logger, term string, posts []types.Post, isSubtopic bool, mainTopic string) *types.Result {
	if len(posts) == 0 {
		return nil
	}

	var (
		mu     sync.Mutex
		counts = map[types.Sentiment]int{}
		sums   types.SentimentScores
		scored int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScores)
	for _, post := range posts {
		if strings.TrimSpace(post.Text) == "" {
			continue
		}
		g.Go(func() error {
			text := language.TruncateUTF8(post.Text, language.ScoreByteLimit)
			sentiment, scores, err := c.scorer.Score(gctx, text, language.DefaultLanguage)
			if err != nil {
				// One bad post never suppresses its siblings.
				logger.Warn("scoring post failed", "term", term, "uri", post.URI, "error", err)
				c.metrics.ScoreFailures.Add(gctx, 1)
				return nil
			}
			mu.Lock()
			counts[sentiment]++
			sums.Positive += scores.Positive
			sums.Negative += scores.Negative
			sums.Neutral += scores.Neutral
			sums.Mixed += scores.Mixed
			scored++
			mu.Unlock()
			c.metrics.PostsScored.Add(gctx, 1)
			return nil
		})
	}
	_ = g.Wait() // goroutines swallow their own errors

	if scored == 0 {
		logger.Info("no posts scored for term", "term", term, "fetched", len(posts))
		return nil
	}

	now := time.Now().Unix()
	n := float64(scored)
	return &types.Result{
		AnalysisTimestamp: now,
		Label:             term,
		MainTopic:         mainTopic,
		IsSubtopic:        isSubtopic,
		PostsAnalyzed:     scored,
		PositivePosts:     counts[types.SentimentPositive],
		NegativePosts:     counts[types.SentimentNegative],
		NeutralPosts:      counts[types.SentimentNeutral],
		MixedPosts:        counts[types.SentimentMixed],
		Scores: types.SentimentScores{
			Positive: sums.Positive / n,
			Negative: sums.Negative / n,
			Neutral:  sums.Neutral / n,
			Mixed:    sums.Mixed / n,
		},
		CreatedAt: now,
	}
}

// analyzeSubtopics runs the full search-and-score pipeline for each tracked
// subtopic. Subtopics are independent bulkheads: each one's search or scoring
// failure is logged locally and cannot cancel its siblings.
func (c *Coordinator) analyzeSubtopics(ctx context.Context, logger *slog.Logger, topic *types.Topic, labels []string) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSubtopics)
	for _, label := range labels {
		g.Go(func() error {
			posts, err := c.search.Search(gctx, label, topic.PostsToAnalyze)
			if err != nil {
				logger.Error("subtopic search failed", "subtopic", label, "error", err)
				return nil
			}
			summary := c.analyzeTerm(gctx, logger, label, posts, true, topic.Topic)
			if summary == nil {
				return nil
			}
			summary.QueryID = topic.QueryID
			if err := c.results.PutResult(gctx, summary); err != nil {
				logger.Error("storing subtopic summary failed", "subtopic", label, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
