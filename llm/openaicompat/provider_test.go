package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voxellab/greenlight/llm"
	"github.com/voxellab/greenlight/types"
)

func TestNewDefaults(t *testing.T) {
	p := New(Config{ProviderName: "test"}, nil)
	require.NotNil(t, p)
	assert.Equal(t, "/v1/chat/completions", p.cfg.EndpointPath)
	assert.Equal(t, "/v1/models", p.cfg.ModelsEndpoint)
	assert.Equal(t, "test", p.Name())
	assert.Equal(t, 30*time.Second, p.client.Timeout)
	assert.Nil(t, p.limiter)
}

func TestNewWithRateLimit(t *testing.T) {
	p := New(Config{ProviderName: "test", RequestsPerMinute: 120}, zap.NewNop())
	require.NotNil(t, p.limiter)
}

func completionFixture(content string) map[string]any {
	return map[string]any{
		"id":      "cmpl-1",
		"model":   "test-model",
		"created": 1700000000,
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
}

func TestCompletion(t *testing.T) {
	var captured oaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(completionFixture("hello"))
	}))
	defer srv.Close()

	p := New(Config{ProviderName: "test", APIKey: "secret", BaseURL: srv.URL, DefaultModel: "fallback-model"}, zap.NewNop())

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{
			llm.TextMessage(llm.RoleSystem, "sys"),
			llm.TextMessage(llm.RoleUser, "hi"),
		},
		Temperature: 0.7,
		MaxTokens:   64,
	})
	require.NoError(t, err)

	assert.Equal(t, "fallback-model", captured.Model)
	assert.Len(t, captured.Messages, 2)
	assert.Equal(t, "test", resp.Provider)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "hello", resp.Choices[0].Message.Content)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, time.Unix(1700000000, 0), resp.CreatedAt)
}

func TestCompletionMultimodal(t *testing.T) {
	var rawBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rawBody))
		json.NewEncoder(w).Encode(completionFixture("{}"))
	}))
	defer srv.Close()

	p := New(Config{ProviderName: "vision", BaseURL: srv.URL, DefaultModel: "m"}, zap.NewNop())

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{
			llm.ImageMessage("describe this", "https://cdn.example.com/brand.png"),
		},
	})
	require.NoError(t, err)

	messages := rawBody["messages"].([]any)
	require.Len(t, messages, 1)
	parts := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].(map[string]any)["type"])
	image := parts[1].(map[string]any)
	assert.Equal(t, "image_url", image["type"])
	assert.Equal(t, "https://cdn.example.com/brand.png", image["image_url"].(map[string]any)["url"])
}

func TestCompletionErrorMapping(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantCode      types.ErrorCode
		wantRetryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, types.ErrRateLimited, true},
		{"gateway timeout", http.StatusGatewayTimeout, types.ErrUpstreamTimeout, true},
		{"server error", http.StatusInternalServerError, types.ErrTransport, true},
		{"bad request", http.StatusBadRequest, types.ErrInvalidRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "nope"}})
			}))
			defer srv.Close()

			p := New(Config{ProviderName: "test", BaseURL: srv.URL, DefaultModel: "m"}, zap.NewNop())
			_, err := p.Completion(context.Background(), &llm.ChatRequest{
				Messages: []llm.Message{llm.TextMessage(llm.RoleUser, "hi")},
			})
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, types.GetErrorCode(err))
			assert.Equal(t, tt.wantRetryable, types.IsRetryable(err))
		})
	}
}

func TestCompletionNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // force connection refused

	p := New(Config{ProviderName: "test", BaseURL: srv.URL, DefaultModel: "m"}, zap.NewNop())
	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{llm.TextMessage(llm.RoleUser, "hi")},
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrTransport, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}

func TestCompletionMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	p := New(Config{ProviderName: "test", BaseURL: srv.URL, DefaultModel: "m"}, zap.NewNop())
	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{llm.TextMessage(llm.RoleUser, "hi")},
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.GetErrorCode(err))
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/models", r.URL.Path)
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	p := New(Config{ProviderName: "test", BaseURL: srv.URL}, zap.NewNop())
	status, err := p.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Greater(t, status.Latency, time.Duration(0))
}

func TestFirstText(t *testing.T) {
	_, err := llm.FirstText(nil)
	assert.Equal(t, types.ErrValidation, types.GetErrorCode(err))

	_, err = llm.FirstText(&llm.ChatResponse{})
	assert.Equal(t, types.ErrValidation, types.GetErrorCode(err))

	text, err := llm.FirstText(&llm.ChatResponse{Choices: []llm.ChatChoice{
		{Message: llm.Message{Content: "  hello  "}},
	}})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}
