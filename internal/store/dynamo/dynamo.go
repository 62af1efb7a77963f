// Package dynamo implements the store interfaces on AWS DynamoDB, using the
// four tables provisioned for the system: Queries, Data, SubTopics and
// CountersData.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/pulseboard/pulseboard/internal/store"
)

// Compile-time interface satisfaction checks.
var (
	_ store.TopicStore    = (*Store)(nil)
	_ store.ResultStore   = (*Store)(nil)
	_ store.SubtopicStore = (*Store)(nil)
	_ store.CounterStore  = (*Store)(nil)
)

// QueryIndexName is the GSI on the Data table keyed by QueryID, used for the
// run-count scan.
const QueryIndexName = "QueryIndex"

// DDBAPI is the subset of the DynamoDB client used by the store.
type DDBAPI interface {
	GetItem(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, input *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DescribeTable(ctx context.Context, input *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Config holds DynamoDB connection settings.
type Config struct {
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint,omitempty"` // DynamoDB Local
	QueriesTable   string `yaml:"queriesTable"`
	DataTable      string `yaml:"dataTable"`
	SubtopicsTable string `yaml:"subtopicsTable"`
	CountersTable  string `yaml:"countersTable"`
}

// Store implements the store interfaces backed by DynamoDB.
type Store struct {
	client         DDBAPI
	queriesTable   string
	dataTable      string
	subtopicsTable string
	countersTable  string
	logger         *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClient sets a custom DynamoDB client (useful for testing).
func WithClient(c DDBAPI) Option {
	return func(s *Store) { s.client = c }
}

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a Store from config.
func New(cfg *Config, opts ...Option) (*Store, error) {
	if cfg.QueriesTable == "" || cfg.DataTable == "" || cfg.SubtopicsTable == "" || cfg.CountersTable == "" {
		return nil, fmt.Errorf("all four table names are required")
	}

	s := &Store{
		queriesTable:   cfg.QueriesTable,
		dataTable:      cfg.DataTable,
		subtopicsTable: cfg.SubtopicsTable,
		countersTable:  cfg.CountersTable,
		logger:         slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.client == nil {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
		}
		// For DynamoDB Local: use static credentials and a custom endpoint.
		if cfg.Endpoint != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider("local", "local", ""),
			))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		var clientOpts []func(*dynamodb.Options)
		if cfg.Endpoint != "" {
			clientOpts = append(clientOpts, func(o *dynamodb.Options) {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			})
		}
		s.client = dynamodb.NewFromConfig(awsCfg, clientOpts...)
	}
	return s, nil
}

// Ping checks connectivity by describing the Queries table.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: &s.queriesTable,
	})
	if err != nil {
		return fmt.Errorf("dynamodb ping failed: %w", err)
	}
	return nil
}

// isConditionalCheckFailed returns true if the error is a DynamoDB
// ConditionalCheckFailedException.
func isConditionalCheckFailed(err error) bool {
	var ccfe *ddbtypes.ConditionalCheckFailedException
	return errors.As(err, &ccfe)
}
