package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SearchBeforeAuthenticateFails(t *testing.T) {
	client, err := NewClient("https://feed.example.com", StaticToken("tok"))
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "coffee", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before Authenticate")
}

func TestClient_Search(t *testing.T) {
	var gotAuth, gotQuery, gotMax string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("query")
		gotMax = r.URL.Query().Get("max_results")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"text": "love this coffee", "uri": "at://post/1"},
				{"text": "", "uri": "at://post/2"},
			},
		})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, StaticToken("tok"))
	require.NoError(t, err)
	require.NoError(t, client.Authenticate(context.Background()))

	posts, err := client.Search(context.Background(), "coffee", 25)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "coffee", gotQuery)
	assert.Equal(t, "25", gotMax)
	require.Len(t, posts, 2)
	assert.Equal(t, "love this coffee", posts[0].Text)
	assert.Equal(t, "at://post/1", posts[0].URI)
}

func TestClient_SearchClampsLimit(t *testing.T) {
	var gotMax string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMax = r.URL.Query().Get("max_results")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, StaticToken("tok"))
	require.NoError(t, err)
	require.NoError(t, client.Authenticate(context.Background()))

	_, err = client.Search(context.Background(), "coffee", 5000)
	require.NoError(t, err)
	assert.Equal(t, "100", gotMax)

	_, err = client.Search(context.Background(), "coffee", 0)
	require.NoError(t, err)
	assert.Equal(t, "1", gotMax)
}

func TestClient_SearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, StaticToken("tok"))
	require.NoError(t, err)
	require.NoError(t, client.Authenticate(context.Background()))

	_, err = client.Search(context.Background(), "coffee", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, StaticToken("tok"))
	require.NoError(t, err)
	require.NoError(t, client.Authenticate(context.Background()))

	for i := 0; i < 5; i++ {
		_, err = client.Search(context.Background(), "coffee", 10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	}

	// Breaker is now open; the request never reaches the server.
	_, err = client.Search(context.Background(), "coffee", 10)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "status 500")
}

func TestAuthenticate_EmptyStaticTokenFails(t *testing.T) {
	client, err := NewClient("https://feed.example.com", StaticToken(""))
	require.NoError(t, err)

	assert.Error(t, client.Authenticate(context.Background()))
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("", StaticToken("tok"))
	assert.Error(t, err)

	_, err = NewClient("https://feed.example.com", nil)
	assert.Error(t, err)
}

// --- secrets-manager token provider ---

type stubSecrets struct {
	out *secretsmanager.GetSecretValueOutput
	err error
}

func (s *stubSecrets) GetSecretValue(_ context.Context, _ *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	return s.out, s.err
}

func TestSecretsToken(t *testing.T) {
	provider, err := NewSecretsToken("", "feed/bearer", &stubSecrets{
		out: &secretsmanager.GetSecretValueOutput{SecretString: aws.String("  tok-123  ")},
	})
	require.NoError(t, err)

	tok, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok)
}

func TestSecretsToken_EmptySecretFails(t *testing.T) {
	provider, err := NewSecretsToken("", "feed/bearer", &stubSecrets{
		out: &secretsmanager.GetSecretValueOutput{SecretString: aws.String("   ")},
	})
	require.NoError(t, err)

	_, err = provider.Token(context.Background())
	assert.Error(t, err)
}

func TestSecretsToken_FetchErrorWrapped(t *testing.T) {
	provider, err := NewSecretsToken("", "feed/bearer", &stubSecrets{err: fmt.Errorf("denied")})
	require.NoError(t, err)

	_, err = provider.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed/bearer")
}

func TestNewSecretsToken_RequiresSecretID(t *testing.T) {
	_, err := NewSecretsToken("", "", &stubSecrets{})
	assert.Error(t, err)
}
