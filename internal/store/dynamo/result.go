package dynamo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/pulseboard/pulseboard/pkg/types"
)

// PutResult allocates the next DataID and appends the summary to the Data
// table. Records are append-only: nothing ever updates or deletes them.
func (s *Store) PutResult(ctx context.Context, result *types.Result) error {
	id, err := s.NextID(ctx, types.DataCounterName)
	if err != nil {
		return fmt.Errorf("allocating data id: %w", err)
	}
	result.DataID = id

	item, err := attributevalue.MarshalMap(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	// Scores are stored as flat attributes alongside the counts, matching the
	// table's existing shape, rather than as a nested map.
	item["PositiveScore"] = floatAttr(result.Scores.Positive)
	item["NegativeScore"] = floatAttr(result.Scores.Negative)
	item["NeutralScore"] = floatAttr(result.Scores.Neutral)
	item["MixedScore"] = floatAttr(result.Scores.Mixed)

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.dataTable,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("putting result for query %d label %q: %w", result.QueryID, result.Label, err)
	}
	return nil
}

// CountMainRuns counts stored main-topic summaries for a query by paginating
// a COUNT query over the QueryIndex GSI with an IsSubtopic filter. The
// coordinator calls this fresh on every invocation; it is the sole source of
// truth for how many intervals have completed.
func (s *Store) CountMainRuns(ctx context.Context, queryID int64) (int, error) {
	input := &dynamodb.QueryInput{
		TableName:              &s.dataTable,
		IndexName:              aws.String(QueryIndexName),
		KeyConditionExpression: aws.String("QueryID = :id"),
		FilterExpression:       aws.String("IsSubtopic = :f"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":id": numberAttr(queryID),
			":f":  &ddbtypes.AttributeValueMemberBOOL{Value: false},
		},
		Select: ddbtypes.SelectCount,
	}

	total := 0
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return 0, fmt.Errorf("counting runs for query %d: %w", queryID, err)
		}
		total += int(out.Count)
		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return total, nil
}

func floatAttr(f float64) ddbtypes.AttributeValue {
	// Plain decimal form, never exponent notation, so tiny score means stay
	// readable as DynamoDB numbers.
	return &ddbtypes.AttributeValueMemberN{Value: strconv.FormatFloat(f, 'f', -1, 64)}
}
