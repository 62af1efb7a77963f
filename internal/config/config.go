// Package config handles loading and validation of pulseboard.yaml, the CLI's
// project configuration. The Lambda path configures itself from environment
// variables instead.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/pulseboard/pulseboard/internal/store/dynamo"
)

// FileName is the config file looked up in the working directory.
const FileName = "pulseboard.yaml"

// FeedConfig configures the social feed search client.
type FeedConfig struct {
	BaseURL       string `yaml:"baseUrl"`
	TokenSecretID string `yaml:"tokenSecretId,omitempty"`
	BearerToken   string `yaml:"bearerToken,omitempty"`
}

// ScheduleConfig configures the recurring trigger backend.
type ScheduleConfig struct {
	Backend   string `yaml:"backend,omitempty"` // scheduler (default) or eventbridge
	TargetARN string `yaml:"targetArn,omitempty"`
	RoleARN   string `yaml:"roleArn,omitempty"`
}

// NotifyConfig configures the completion delivery sinks. All fields optional;
// with none set, completions are logged to the console.
type NotifyConfig struct {
	SNSTopicARN   string `yaml:"snsTopicArn,omitempty"`
	EmailFunction string `yaml:"emailFunction,omitempty"`
	QueueURL      string `yaml:"queueUrl,omitempty"`
}

// Config is the full pulseboard.yaml shape.
type Config struct {
	Region   string         `yaml:"region"`
	DynamoDB dynamo.Config  `yaml:"dynamodb"`
	Feed     FeedConfig     `yaml:"feed"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// Load reads and parses pulseboard.yaml from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DynamoDB.Region == "" {
		cfg.DynamoDB.Region = cfg.Region
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Region == "" {
		return fmt.Errorf("region is required")
	}
	switch {
	case cfg.DynamoDB.QueriesTable == "":
		return fmt.Errorf("dynamodb.queriesTable is required")
	case cfg.DynamoDB.DataTable == "":
		return fmt.Errorf("dynamodb.dataTable is required")
	case cfg.DynamoDB.SubtopicsTable == "":
		return fmt.Errorf("dynamodb.subtopicsTable is required")
	case cfg.DynamoDB.CountersTable == "":
		return fmt.Errorf("dynamodb.countersTable is required")
	}
	if cfg.Feed.BaseURL == "" {
		return fmt.Errorf("feed.baseUrl is required")
	}
	if cfg.Feed.TokenSecretID == "" && cfg.Feed.BearerToken == "" {
		return fmt.Errorf("feed.tokenSecretId or feed.bearerToken is required")
	}
	if b := cfg.Schedule.Backend; b != "" && b != "scheduler" && b != "eventbridge" {
		return fmt.Errorf("schedule.backend must be scheduler or eventbridge, got %q", b)
	}
	return nil
}
