// Package feed implements the social-feed search capability: an authenticated
// HTTP client over the feed's recent-search endpoint.
package feed

import (
	"context"

	"github.com/pulseboard/pulseboard/pkg/types"
)

// MaxSearchResults is the hard cap the search endpoint enforces per request.
const MaxSearchResults = 100

// Searcher is the feed-search capability consumed by the coordinator.
// Authenticate is called once per invocation before any Search; an
// authentication failure is fatal to the whole invocation.
type Searcher interface {
	Authenticate(ctx context.Context) error
	Search(ctx context.Context, query string, limit int) ([]types.Post, error)
}
