package feed

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// TokenProvider supplies the bearer token used to authenticate search calls.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider holding a fixed token (env var or test).
type StaticToken string

// Token returns the static token.
func (t StaticToken) Token(_ context.Context) (string, error) {
	if t == "" {
		return "", fmt.Errorf("feed bearer token is empty")
	}
	return string(t), nil
}

// SecretsAPI is the subset of the Secrets Manager client used here.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, input *secretsmanager.GetSecretValueInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsToken fetches the bearer token from AWS Secrets Manager.
type SecretsToken struct {
	client   SecretsAPI
	secretID string
}

// NewSecretsToken creates a Secrets Manager backed token provider.
func NewSecretsToken(region, secretID string, client SecretsAPI) (*SecretsToken, error) {
	if secretID == "" {
		return nil, fmt.Errorf("feed token secret id required")
	}
	if client == nil {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		client = secretsmanager.NewFromConfig(cfg)
	}
	return &SecretsToken{client: client, secretID: secretID}, nil
}

// Token fetches the secret value.
func (t *SecretsToken) Token(ctx context.Context) (string, error) {
	out, err := t.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &t.secretID,
	})
	if err != nil {
		return "", fmt.Errorf("fetching feed token secret %q: %w", t.secretID, err)
	}
	if out.SecretString == nil || strings.TrimSpace(*out.SecretString) == "" {
		return "", fmt.Errorf("feed token secret %q is empty", t.secretID)
	}
	return strings.TrimSpace(*out.SecretString), nil
}
