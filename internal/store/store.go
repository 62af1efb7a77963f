// Package store defines the persistence interfaces consumed by the analysis
// coordinator. Implementations live in subpackages (dynamo).
package store

import (
	"context"
	"errors"

	"github.com/pulseboard/pulseboard/pkg/types"
)

// ErrTopicNotFound is returned when no topic record exists for a query ID
// under either the composite or the fallback lookup.
var ErrTopicNotFound = errors.New("topic not found")

// TopicStore reads topic configuration records.
type TopicStore interface {
	// Get fetches a topic by (queryID, topicHint). When the hinted composite
	// key misses, or no hint is given, it falls back to the first record
	// matching queryID alone.
	Get(ctx context.Context, queryID int64, topicHint string) (*types.Topic, error)

	// SetStatus best-effort updates the topic's status. Run-count accounting,
	// not this field, remains the source of truth for completion.
	SetStatus(ctx context.Context, queryID int64, topic string, status types.TopicStatus) error
}

// ResultStore appends per-interval analysis summaries.
type ResultStore interface {
	// PutResult assigns a DataID and appends the record.
	PutResult(ctx context.Context, result *types.Result) error

	// CountMainRuns returns the number of stored main-topic summaries for a
	// query. Computed fresh on every call; the coordinator derives its phase
	// from this count.
	CountMainRuns(ctx context.Context, queryID int64) (int, error)
}

// SubtopicStore holds the discovered subtopic labels per query.
type SubtopicStore interface {
	PutSubtopic(ctx context.Context, queryID int64, label string) error
	ListSubtopics(ctx context.Context, queryID int64) ([]string, error)
}

// CounterStore allocates monotonically increasing IDs per named counter.
type CounterStore interface {
	NextID(ctx context.Context, name string) (int64, error)
}
