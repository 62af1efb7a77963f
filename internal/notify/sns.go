package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/pulseboard/pulseboard/pkg/types"
)

// SNSAPI is the subset of the SNS client used by the sink.
type SNSAPI interface {
	Subscribe(ctx context.Context, input *sns.SubscribeInput, opts ...func(*sns.Options)) (*sns.SubscribeOutput, error)
	Publish(ctx context.Context, input *sns.PublishInput, opts ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSink delivers completions over an SNS topic. Each owner is subscribed
// with a filter policy on the "email" message attribute, so a publish tagged
// with the owner's address reaches only that owner.
type SNSSink struct {
	client   SNSAPI
	topicARN string
}

var (
	_ Sink       = (*SNSSink)(nil)
	_ Subscriber = (*SNSSink)(nil)
)

// SNSOption configures an SNSSink.
type SNSOption func(*SNSSink)

// WithSNSClient sets a custom SNS client (useful for testing).
func WithSNSClient(c SNSAPI) SNSOption {
	return func(s *SNSSink) { s.client = c }
}

// NewSNSSink creates an SNS completion sink.
func NewSNSSink(region, topicARN string, opts ...SNSOption) (*SNSSink, error) {
	if topicARN == "" {
		return nil, fmt.Errorf("SNS topic ARN required")
	}
	s := &SNSSink{topicARN: topicARN}
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
		s.client = sns.NewFromConfig(cfg)
	}
	return s, nil
}

// Name returns the sink identifier.
func (s *SNSSink) Name() string { return "sns" }

// Subscribe registers an email endpoint with a filter policy restricting
// deliveries to publishes tagged with that address. SNS treats a repeated
// subscribe for an existing endpoint as a lookup, so the call is idempotent.
func (s *SNSSink) Subscribe(ctx context.Context, address string) error {
	policy, err := json.Marshal(map[string][]string{"email": {address}})
	if err != nil {
		return fmt.Errorf("marshaling filter policy: %w", err)
	}

	_, err = s.client.Subscribe(ctx, &sns.SubscribeInput{
		TopicArn: &s.topicARN,
		Protocol: aws.String("email"),
		Endpoint: &address,
		Attributes: map[string]string{
			"FilterPolicy": string(policy),
		},
		ReturnSubscriptionArn: true,
	})
	if err != nil {
		return fmt.Errorf("subscribing %q: %w", address, err)
	}
	return nil
}

// SendComplete publishes the completion tagged with the owner's address so
// the filter policy routes it to them alone.
func (s *SNSSink) SendComplete(ctx context.Context, topic *types.Topic) error {
	subject := DefaultSubject
	body := CompletionBody(topic)

	_, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: &s.topicARN,
		Subject:  &subject,
		Message:  &body,
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"email": {
				DataType:    aws.String("String"),
				StringValue: &topic.Email,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("publishing completion for query %d: %w", topic.QueryID, err)
	}
	return nil
}
