package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/pulseboard/pulseboard/pkg/types"
)

// SQSAPI is the subset of the SQS client used by the sink.
type SQSAPI interface {
	SendMessage(ctx context.Context, input *sqs.SendMessageInput, opts ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSSink enqueues completion events for downstream consumers (dashboard
// refresh, audit log).
type SQSSink struct {
	client   SQSAPI
	queueURL string
}

var _ Sink = (*SQSSink)(nil)

// SQSOption configures an SQSSink.
type SQSOption func(*SQSSink)

// WithSQSClient sets a custom SQS client (useful for testing).
func WithSQSClient(c SQSAPI) SQSOption {
	return func(s *SQSSink) { s.client = c }
}

// NewSQSSink creates an SQS completion sink.
func NewSQSSink(region, queueURL string, opts ...SQSOption) (*SQSSink, error) {
	if queueURL == "" {
		return nil, fmt.Errorf("completion queue URL required")
	}
	s := &SQSSink{queueURL: queueURL}
	for _, o := range opts {
		o(s)
	}
	if s.client == nil {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		s.client = sqs.NewFromConfig(cfg)
	}
	return s, nil
}

// Name returns the sink identifier.
func (s *SQSSink) Name() string { return "sqs" }

// completionEvent is the queued message shape.
type completionEvent struct {
	QueryID      int64  `json:"queryId"`
	Topic        string `json:"topic"`
	Email        string `json:"email"`
	NumIntervals int    `json:"numIntervals"`
	CompletedAt  int64  `json:"completedAt"`
}

// SendComplete enqueues the completion event.
func (s *SQSSink) SendComplete(ctx context.Context, topic *types.Topic) error {
	body, err := json.Marshal(completionEvent{
		QueryID:      topic.QueryID,
		Topic:        topic.Topic,
		Email:        topic.Email,
		NumIntervals: topic.NumIntervals,
		CompletedAt:  time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshaling completion event: %w", err)
	}

	msg := string(body)
	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    &s.queueURL,
		MessageBody: &msg,
	})
	if err != nil {
		return fmt.Errorf("enqueuing completion for query %d: %w", topic.QueryID, err)
	}
	return nil
}
