package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/pulseboard/pulseboard/pkg/types"
)

// PutSubtopic registers a discovered subtopic label for a query. Writing an
// existing (QueryID, SubTopic) pair again is a harmless overwrite of identical
// data.
func (s *Store) PutSubtopic(ctx context.Context, queryID int64, label string) error {
	item, err := attributevalue.MarshalMap(types.Subtopic{QueryID: queryID, Subtopic: label})
	if err != nil {
		return fmt.Errorf("marshaling subtopic: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.subtopicsTable,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("putting subtopic %q for query %d: %w", label, queryID, err)
	}
	return nil
}

// ListSubtopics returns all subtopic labels registered for a query. An empty
// list is a valid state: discovery may have found nothing viable on the first
// run.
func (s *Store) ListSubtopics(ctx context.Context, queryID int64) ([]string, error) {
	input := &dynamodb.QueryInput{
		TableName:              &s.subtopicsTable,
		KeyConditionExpression: aws.String("QueryID = :id"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":id": numberAttr(queryID),
		},
	}

	var labels []string
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("listing subtopics for query %d: %w", queryID, err)
		}
		for _, item := range out.Items {
			var st types.Subtopic
			if err := attributevalue.UnmarshalMap(item, &st); err != nil {
				s.logger.Warn("skipping corrupt subtopic entry", "queryId", queryID, "error", err)
				continue
			}
			labels = append(labels, st.Subtopic)
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return labels, nil
}
