package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	counterMaxAttempts = 3
	counterRetryDelay  = 100 * time.Millisecond
)

// NextID atomically increments and returns the next ID for a named counter.
// The increment initializes the counter at 0 when absent, so concurrent
// first-use races collapse into the same atomic update. If the store returns
// an unexpected shape, it falls back to an explicit conditional create and
// retries the increment; a create lost to a racing caller is resolved the
// same way.
func (s *Store) NextID(ctx context.Context, name string) (int64, error) {
	var lastErr error
	for attempt := 0; attempt < counterMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(counterRetryDelay):
			}
		}

		out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: &s.countersTable,
			Key: map[string]ddbtypes.AttributeValue{
				"CounterName": &ddbtypes.AttributeValueMemberS{Value: name},
			},
			UpdateExpression: aws.String("SET CurrentValue = if_not_exists(CurrentValue, :start) + :inc"),
			ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
				":start": numberAttr(0),
				":inc":   numberAttr(1),
			},
			ReturnValues: ddbtypes.ReturnValueUpdatedNew,
		})
		if err != nil {
			if isConditionalCheckFailed(err) {
				lastErr = err
				continue
			}
			return 0, fmt.Errorf("incrementing counter %q: %w", name, err)
		}

		if id, ok := counterValue(out.Attributes); ok {
			return id, nil
		}

		// Unexpected response shape: make sure the item exists, then retry
		// the increment. Losing the conditional create to another caller is
		// fine; their item serves just as well.
		lastErr = fmt.Errorf("counter %q: increment returned no usable CurrentValue", name)
		if err := s.createCounter(ctx, name); err != nil {
			return 0, err
		}
	}
	return 0, fmt.Errorf("counter %q: exhausted %d attempts: %w", name, counterMaxAttempts, lastErr)
}

func (s *Store) createCounter(ctx context.Context, name string) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.countersTable,
		Item: map[string]ddbtypes.AttributeValue{
			"CounterName":  &ddbtypes.AttributeValueMemberS{Value: name},
			"CurrentValue": numberAttr(0),
		},
		ConditionExpression: aws.String("attribute_not_exists(CounterName)"),
	})
	if err != nil && !isConditionalCheckFailed(err) {
		return fmt.Errorf("creating counter %q: %w", name, err)
	}
	return nil
}

func counterValue(attrs map[string]ddbtypes.AttributeValue) (int64, bool) {
	av, ok := attrs["CurrentValue"]
	if !ok {
		return 0, false
	}
	n, ok := av.(*ddbtypes.AttributeValueMemberN)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
