package notify

import (
	"context"
	"encoding/json"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/pulseboard/pulseboard/pkg/types"
)

// LambdaAPI is the subset of the Lambda client used by the sink.
type LambdaAPI interface {
	Invoke(ctx context.Context, input *lambda.InvokeInput, opts ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaSink invokes the standalone email-sender function with the payload it
// expects.
type LambdaSink struct {
	client       LambdaAPI
	functionName string
}

var _ Sink = (*LambdaSink)(nil)

// LambdaOption configures a LambdaSink.
type LambdaOption func(*LambdaSink)

// WithLambdaClient sets a custom Lambda client (useful for testing).
func WithLambdaClient(c LambdaAPI) LambdaOption {
	return func(s *LambdaSink) { s.client = c }
}

// NewLambdaSink creates a sink that invokes the named email-sender function.
func NewLambdaSink(region, functionName string, opts ...LambdaOption) (*LambdaSink, error) {
	if functionName == "" {
		return nil, fmt.Errorf("email function name required")
	}
	s := &LambdaSink{functionName: functionName}
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
		s.client = lambda.NewFromConfig(cfg)
	}
	return s, nil
}

// Name returns the sink identifier.
func (s *LambdaSink) Name() string { return "lambda" }

// emailPayload matches the email-sender function's request shape.
type emailPayload struct {
	ToEmail  string `json:"to_email"`
	Subject  string `json:"subject"`
	BodyText string `json:"body_text"`
}

// SendComplete invokes the email sender asynchronously; delivery retries
// beyond the dispatcher's own are the function's concern.
func (s *LambdaSink) SendComplete(ctx context.Context, topic *types.Topic) error {
	payload, err := json.Marshal(emailPayload{
		ToEmail:  topic.Email,
		Subject:  DefaultSubject,
		BodyText: CompletionBody(topic),
	})
	if err != nil {
		return fmt.Errorf("marshaling email payload: %w", err)
	}

	out, err := s.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   &s.functionName,
		InvocationType: lambdatypes.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		return fmt.Errorf("invoking %q for query %d: %w", s.functionName, topic.QueryID, err)
	}
	if out.FunctionError != nil {
		return fmt.Errorf("invoking %q for query %d: function error %s", s.functionName, topic.QueryID, *out.FunctionError)
	}
	return nil
}
