package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
	return dir
}

const validConfig = `
region: us-east-1
dynamodb:
  queriesTable: Queries
  dataTable: Data
  subtopicsTable: SubTopics
  countersTable: CountersData
feed:
  baseUrl: https://feed.example.com
  bearerToken: tok
schedule:
  backend: scheduler
  targetArn: arn:aws:lambda:us-east-1:123:function:analyzer
  roleArn: arn:aws:iam::123:role/scheduler
notify:
  snsTopicArn: arn:aws:sns:us-east-1:123:completions
`

func TestLoad(t *testing.T) {
	dir := writeConfig(t, validConfig)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, "Queries", cfg.DynamoDB.QueriesTable)
	assert.Equal(t, "https://feed.example.com", cfg.Feed.BaseURL)
	assert.Equal(t, "scheduler", cfg.Schedule.Backend)
	assert.Equal(t, "arn:aws:sns:us-east-1:123:completions", cfg.Notify.SNSTopicARN)
	// The store region defaults to the top-level region.
	assert.Equal(t, "us-east-1", cfg.DynamoDB.Region)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := writeConfig(t, "region: [not\nvalid")
	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  string
		wantErr string
	}{
		{
			name: "missing region",
			mutate: `
dynamodb:
  queriesTable: Queries
  dataTable: Data
  subtopicsTable: SubTopics
  countersTable: CountersData
feed:
  baseUrl: https://feed.example.com
  bearerToken: tok
`,
			wantErr: "region is required",
		},
		{
			name: "missing table",
			mutate: `
region: us-east-1
dynamodb:
  queriesTable: Queries
feed:
  baseUrl: https://feed.example.com
  bearerToken: tok
`,
			wantErr: "dataTable",
		},
		{
			name: "missing feed url",
			mutate: `
region: us-east-1
dynamodb:
  queriesTable: Queries
  dataTable: Data
  subtopicsTable: SubTopics
  countersTable: CountersData
feed:
  bearerToken: tok
`,
			wantErr: "baseUrl",
		},
		{
			name: "missing feed credentials",
			mutate: `
region: us-east-1
dynamodb:
  queriesTable: Queries
  dataTable: Data
  subtopicsTable: SubTopics
  countersTable: CountersData
feed:
  baseUrl: https://feed.example.com
`,
			wantErr: "tokenSecretId or feed.bearerToken",
		},
		{
			name: "bad schedule backend",
			mutate: `
region: us-east-1
dynamodb:
  queriesTable: Queries
  dataTable: Data
  subtopicsTable: SubTopics
  countersTable: CountersData
feed:
  baseUrl: https://feed.example.com
  bearerToken: tok
schedule:
  backend: cron
`,
			wantErr: "schedule.backend",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeConfig(t, tt.mutate)
			_, err := Load(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
