package coordinator

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/pulseboard/pulseboard/internal/language"
	"github.com/pulseboard/pulseboard/pkg/types"
)

// minPhraseLength rejects trivial phrases; it is a length filter, not a
// stop-word list.
const minPhraseLength = 3

// subtopicRegisterAttempts bounds the per-subtopic registration retries.
const subtopicRegisterAttempts = 2

// discoverSubtopics extracts key phrases from the first interval's posts,
// ranks them by frequency, and registers the top labels as subtopics. Only
// ever called when the run count at entry was 0. Registration is best-effort:
// one failed label never blocks the rest.
func (c *Coordinator) discoverSubtopics(ctx context.Context, logger *slog.Logger, topic *types.Topic, posts []types.Post) {
	freq := c.phraseFrequencies(ctx, logger, posts)
	labels := rankPhrases(freq, topic.Topic, types.MaxSubtopics)
	if len(labels) == 0 {
		logger.Info("no viable subtopics discovered", "topic", topic.Topic)
		return
	}

	for _, label := range labels {
		var err error
		for attempt := 1; attempt <= subtopicRegisterAttempts; attempt++ {
			if err = c.subtopics.PutSubtopic(ctx, topic.QueryID, label); err == nil {
				break
			}
		}
		if err != nil {
			logger.Error("registering subtopic failed", "subtopic", label, "error", err)
			continue
		}
		logger.Info("registered subtopic", "subtopic", label)
		c.metrics.SubtopicsDiscovered.Add(ctx, 1)
	}
}

// phraseFrequencies extracts key phrases from each post concurrently and
// returns case-normalized phrase counts. Per-post extraction failures are
// logged and skipped.
func (c *Coordinator) phraseFrequencies(ctx context.Context, logger *slog.Logger, posts []types.Post) map[string]int {
	var (
		mu   sync.Mutex
		freq = map[string]int{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScores)
	for _, post := range posts {
		if strings.TrimSpace(post.Text) == "" {
			continue
		}
		g.Go(func() error {
			text := language.TruncateUTF8(post.Text, language.ScoreByteLimit)
			phrases, err := c.phrases.Extract(gctx, text, language.DefaultLanguage)
			if err != nil {
				logger.Warn("extracting key phrases failed", "uri", post.URI, "error", err)
				return nil
			}
			mu.Lock()
			for _, p := range phrases {
				normalized := strings.ToLower(strings.TrimSpace(p))
				if normalized != "" {
					freq[normalized]++
				}
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return freq
}

// rankPhrases orders phrases by descending frequency (ties broken
// lexicographically for determinism), drops trivial and main-topic-equal
// phrases, keeps the top k+1 to allow the main-topic filter one slot, filters
// the main topic once more, and returns the final top k.
func rankPhrases(freq map[string]int, mainTopic string, k int) []string {
	main := strings.ToLower(mainTopic)

	candidates := make([]string, 0, len(freq))
	for p := range freq {
		if utf8.RuneCountInString(p) < minPhraseLength {
			continue
		}
		if strings.EqualFold(p, main) {
			continue
		}
		candidates = append(candidates, p)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if freq[candidates[i]] != freq[candidates[j]] {
			return freq[candidates[i]] > freq[candidates[j]]
		}
		return candidates[i] < candidates[j]
	})

	if len(candidates) > k+1 {
		candidates = candidates[:k+1]
	}
	// Defensive re-filter: the main topic cannot survive ranking even if the
	// first pass missed a variant spelling of it.
	filtered := candidates[:0]
	for _, p := range candidates {
		if !strings.EqualFold(p, main) {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) > k {
		filtered = filtered[:k]
	}
	return filtered
}
