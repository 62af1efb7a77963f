package language

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	comprehendtypes "github.com/aws/aws-sdk-go-v2/service/comprehend/types"

	"github.com/pulseboard/pulseboard/pkg/types"
)

// ComprehendAPI is the subset of the Comprehend client used by the analyzer.
type ComprehendAPI interface {
	DetectSentiment(ctx context.Context, input *comprehend.DetectSentimentInput, opts ...func(*comprehend.Options)) (*comprehend.DetectSentimentOutput, error)
	DetectKeyPhrases(ctx context.Context, input *comprehend.DetectKeyPhrasesInput, opts ...func(*comprehend.Options)) (*comprehend.DetectKeyPhrasesOutput, error)
}

// ComprehendClient implements Scorer and PhraseExtractor on AWS Comprehend.
type ComprehendClient struct {
	client ComprehendAPI
}

var (
	_ Scorer          = (*ComprehendClient)(nil)
	_ PhraseExtractor = (*ComprehendClient)(nil)
)

// ComprehendOption configures a ComprehendClient.
type ComprehendOption func(*ComprehendClient)

// WithComprehendAPI sets a custom client (useful for testing).
func WithComprehendAPI(c ComprehendAPI) ComprehendOption {
	return func(cc *ComprehendClient) { cc.client = c }
}

// NewComprehendClient creates a Comprehend-backed analysis client.
func NewComprehendClient(region string, opts ...ComprehendOption) (*ComprehendClient, error) {
	cc := &ComprehendClient{}
	for _, o := range opts {
		o(cc)
	}
	if cc.client == nil {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		cc.client = comprehend.NewFromConfig(cfg)
	}
	return cc, nil
}

// Score classifies the sentiment of text. Inputs are truncated to
// ScoreByteLimit on a rune boundary before submission.
func (c *ComprehendClient) Score(ctx context.Context, text, lang string) (types.Sentiment, types.SentimentScores, error) {
	text = TruncateUTF8(text, ScoreByteLimit)
	out, err := c.client.DetectSentiment(ctx, &comprehend.DetectSentimentInput{
		Text:         &text,
		LanguageCode: comprehendtypes.LanguageCode(lang),
	})
	if err != nil {
		return "", types.SentimentScores{}, fmt.Errorf("detecting sentiment: %w", err)
	}

	scores := types.SentimentScores{}
	if s := out.SentimentScore; s != nil {
		scores.Positive = float32ToFloat64(s.Positive)
		scores.Negative = float32ToFloat64(s.Negative)
		scores.Neutral = float32ToFloat64(s.Neutral)
		scores.Mixed = float32ToFloat64(s.Mixed)
	}
	return types.Sentiment(out.Sentiment), scores, nil
}

// Extract returns the key phrases of text, truncated the same way as Score so
// both calls see identical input.
func (c *ComprehendClient) Extract(ctx context.Context, text, lang string) ([]string, error) {
	text = TruncateUTF8(text, ScoreByteLimit)
	out, err := c.client.DetectKeyPhrases(ctx, &comprehend.DetectKeyPhrasesInput{
		Text:         &text,
		LanguageCode: comprehendtypes.LanguageCode(lang),
	})
	if err != nil {
		return nil, fmt.Errorf("detecting key phrases: %w", err)
	}

	phrases := make([]string, 0, len(out.KeyPhrases))
	for _, kp := range out.KeyPhrases {
		if kp.Text != nil && *kp.Text != "" {
			phrases = append(phrases, *kp.Text)
		}
	}
	return phrases, nil
}

func float32ToFloat64(f *float32) float64 {
	if f == nil {
		return 0
	}
	return float64(*f)
}
