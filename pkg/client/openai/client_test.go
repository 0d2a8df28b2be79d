package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-go-golems/gptsh/pkg/conversation"
	"github.com/go-go-golems/gptsh/pkg/transcript"
	"github.com/pkg/errors"
	go_openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteMapsResponse(t *testing.T) {
	var got go_openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(go_openai.ChatCompletionResponse{
			Choices: []go_openai.ChatCompletionChoice{{
				Message:      go_openai.ChatCompletionMessage{Role: "assistant", Content: "Hi!"},
				FinishReason: go_openai.FinishReasonStop,
			}},
			Usage: go_openai.Usage{PromptTokens: 12, CompletionTokens: 3, TotalTokens: 15},
		})
	}))
	defer server.Close()

	c := NewClient("sk-test", server.URL+"/v1")
	reply, err := c.Complete(context.Background(), "gpt-4", []transcript.Message{
		transcript.NewMessage(transcript.RoleSystem, "be nice"),
		transcript.NewMessage(transcript.RoleUser, "hello"),
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[1].Content)

	assert.Equal(t, transcript.NewMessage(transcript.RoleAssistant, "Hi!"), reply.Message)
	assert.Equal(t, conversation.Usage{PromptTokens: 12, CompletionTokens: 3, TotalTokens: 15}, reply.Usage)
}

func TestCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	c := NewClient("sk-bad", server.URL+"/v1")
	_, err := c.Complete(context.Background(), "gpt-4", []transcript.Message{
		transcript.NewMessage(transcript.RoleUser, "hello"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, conversation.ErrRemote))
	assert.Contains(t, err.Error(), "Incorrect API key provided")

	var apiErr *go_openai.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestCompleteWithoutKey(t *testing.T) {
	c := NewClient("", "")
	_, err := c.Complete(context.Background(), "gpt-4", nil)
	assert.Equal(t, ErrNoAPIKey, err)
}
