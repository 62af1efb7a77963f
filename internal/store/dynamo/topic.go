package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/pulseboard/pulseboard/internal/store"
	"github.com/pulseboard/pulseboard/pkg/types"
)

// Get fetches a topic record. When topicHint is set it tries the exact
// composite key first; on a miss (or without a hint) it queries the partition
// alone and takes the first record, since scheduled payloads may carry only
// the query ID.
func (s *Store) Get(ctx context.Context, queryID int64, topicHint string) (*types.Topic, error) {
	if topicHint != "" {
		out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: &s.queriesTable,
			Key: map[string]ddbtypes.AttributeValue{
				"QueryID": numberAttr(queryID),
				"Topic":   &ddbtypes.AttributeValueMemberS{Value: topicHint},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("getting topic %d/%q: %w", queryID, topicHint, err)
		}
		if out.Item != nil {
			return unmarshalTopic(out.Item)
		}
		s.logger.Debug("composite topic lookup missed, falling back to query-id scan",
			"queryId", queryID, "topic", topicHint)
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.queriesTable,
		KeyConditionExpression: aws.String("QueryID = :id"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":id": numberAttr(queryID),
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("querying topic %d: %w", queryID, err)
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("query %d: %w", queryID, store.ErrTopicNotFound)
	}
	return unmarshalTopic(out.Items[0])
}

// PutTopic registers a new topic record. An existing record under the same
// composite key is an error; registration is not an upsert.
func (s *Store) PutTopic(ctx context.Context, topic *types.Topic) error {
	item, err := attributevalue.MarshalMap(topic)
	if err != nil {
		return fmt.Errorf("marshaling topic: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.queriesTable,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(QueryID)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return fmt.Errorf("query %d/%q already registered", topic.QueryID, topic.Topic)
		}
		return fmt.Errorf("registering topic %d/%q: %w", topic.QueryID, topic.Topic, err)
	}
	return nil
}

// SetStatus updates the topic's Status attribute. The caller treats failures
// as non-fatal; completion is derived from the run count, not this field.
func (s *Store) SetStatus(ctx context.Context, queryID int64, topic string, status types.TopicStatus) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &s.queriesTable,
		Key: map[string]ddbtypes.AttributeValue{
			"QueryID": numberAttr(queryID),
			"Topic":   &ddbtypes.AttributeValueMemberS{Value: topic},
		},
		UpdateExpression:    aws.String("SET #status = :status"),
		ConditionExpression: aws.String("attribute_exists(QueryID)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "Status",
		},
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":status": &ddbtypes.AttributeValueMemberS{Value: string(status)},
		},
	})
	if err != nil {
		return fmt.Errorf("setting status for %d/%q: %w", queryID, topic, err)
	}
	return nil
}

func unmarshalTopic(item map[string]ddbtypes.AttributeValue) (*types.Topic, error) {
	var t types.Topic
	if err := attributevalue.UnmarshalMap(item, &t); err != nil {
		return nil, fmt.Errorf("unmarshaling topic: %w", err)
	}
	return &t, nil
}

func numberAttr(n int64) ddbtypes.AttributeValue {
	return &ddbtypes.AttributeValueMemberN{Value: fmt.Sprintf("%d", n)}
}
