package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/atlas/internal/common"
)

func TestNewOpenAIClient(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid config", config: Config{APIKey: "test-key"}},
		{name: "missing API key", config: Config{}, wantErr: true},
		{
			name:   "custom model and settings",
			config: Config{APIKey: "test-key", Model: "gpt-4o", Temperature: 0.5, MaxTokens: 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := newOpenAIClient(tt.config)
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrMissingCredential)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
			if tt.config.Model == "" {
				assert.Equal(t, DefaultModel(ProviderOpenAI), client.model)
			}
		})
	}
}

func TestOpenAIClient_GenerateJSON(t *testing.T) {
	var captured openAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "gpt-4o-mini",
			"choices": [{"message": {"role": "assistant", "content": "{\"choices\": [{\"name\": \"Statistics\", \"rationale\": \"state space models\"}]}"}}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 30}
		}`))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.GenerateJSON(context.Background(), Request{System: "be terse", Prompt: "rank units", MaxTokens: 300})
	require.NoError(t, err)

	assert.JSONEq(t, `{"choices":[{"name":"Statistics","rationale":"state space models"}]}`, string(resp.JSON))
	assert.Equal(t, Usage{InputTokens: 120, OutputTokens: 30}, resp.Usage)
	assert.Equal(t, "gpt-4o-mini", resp.Model)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "rank units", captured.Messages[1].Content)
	assert.Equal(t, 300, captured.MaxTokens)
	assert.Equal(t, "json_object", captured.ResponseFormat["type"])
}

func TestOpenAIClient_Errors(t *testing.T) {
	tests := []struct {
		check  func(t *testing.T, err error)
		name   string
		body   string
		status int
	}{
		{
			name:   "invalid key",
			status: http.StatusUnauthorized,
			body:   `{"error": {"message": "Incorrect API key provided"}}`,
			check: func(t *testing.T, err error) {
				assert.True(t, IsAuthError(err))
				assert.Contains(t, err.Error(), "status 401")
			},
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"error": {"message": "slow down"}}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, common.ErrRateLimit)
			},
		},
		{
			name:   "no choices",
			status: http.StatusOK,
			body:   `{"choices": []}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, common.ErrMalformedResponse)
			},
		},
		{
			name:   "prose instead of json",
			status: http.StatusOK,
			body:   `{"choices": [{"message": {"content": "I am not sure."}}]}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, common.ErrMalformedResponse)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = client.GenerateJSON(context.Background(), Request{Prompt: "p"})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}
