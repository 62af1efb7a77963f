// Package language wraps the text-analysis capabilities consumed by the
// coordinator: categorical sentiment scoring and key-phrase extraction.
package language

import (
	"context"

	"github.com/pulseboard/pulseboard/pkg/types"
)

// DefaultLanguage is the fixed language hint passed to every analysis call.
const DefaultLanguage = "en"

// ScoreByteLimit caps input text passed to the scorer. The service rejects
// inputs over 5000 bytes; the limit leaves margin under that ceiling.
const ScoreByteLimit = 4990

// Scorer returns a categorical sentiment label plus four confidence scores
// for a piece of text.
type Scorer interface {
	Score(ctx context.Context, text, lang string) (types.Sentiment, types.SentimentScores, error)
}

// PhraseExtractor returns the salient phrases of a piece of text.
type PhraseExtractor interface {
	Extract(ctx context.Context, text, lang string) ([]string, error)
}
