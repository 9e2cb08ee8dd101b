package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agridocs/internal/config"
	"agridocs/internal/port"
)

func TestOpenAIClientComplete(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"content": "{\"headers\":[\"Program\"]}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 15}
		}`))
	}))
	defer srv.Close()

	client := NewOpenAIClientWithEndpoint(config.AIConfig{APIKey: "sk-test", DefaultModel: "gpt-4o-mini"}, srv.URL)

	resp, err := client.Complete(context.Background(), port.CompletionRequest{
		System:      "system prompt",
		User:        "user prompt",
		Temperature: 0.1,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	assert.Equal(t, 0.1, gotBody["temperature"])
	rf := gotBody["response_format"].(map[string]interface{})
	assert.Equal(t, "json_object", rf["type"])

	assert.Equal(t, `{"headers":["Program"]}`, resp.Content)
	assert.Equal(t, 120, resp.PromptTokens)
	assert.Equal(t, 15, resp.CompletionTokens)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
}

func TestOpenAIClientRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "slow down"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClientWithEndpoint(config.AIConfig{APIKey: "sk-test"}, srv.URL)

	_, err := client.Complete(context.Background(), port.CompletionRequest{User: "hi"})
	require.Error(t, err)

	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, "openai", rle.Provider)
	assert.Equal(t, 17, int(rle.RetryAfter.Seconds()))
}

func TestOpenAIClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewOpenAIClientWithEndpoint(config.AIConfig{}, srv.URL)

	_, err := client.Complete(context.Background(), port.CompletionRequest{User: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.True(t, retryable(err))
}

func TestOpenAIClientTruncatedOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "partial"}, "finish_reason": "length"}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClientWithEndpoint(config.AIConfig{}, srv.URL)

	_, err := client.Complete(context.Background(), port.CompletionRequest{User: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "finish_reason: length")
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 30, ParseRetryAfterHeader("30"))
	assert.Equal(t, 0, ParseRetryAfterHeader(""))
	assert.Equal(t, 0, ParseRetryAfterHeader("Wed, 21 Oct 2026 07:28:00 GMT"))
}
