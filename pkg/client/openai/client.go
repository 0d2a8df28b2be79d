// Package openai sends conversations to the OpenAI chat completion API.
package openai

import (
	"context"
	"sync"

	"github.com/go-go-golems/gptsh/pkg/conversation"
	"github.com/go-go-golems/gptsh/pkg/transcript"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
)

var ErrNoAPIKey = errors.New("no OpenAI API key configured, set OPENAI_API_KEY")

// Client builds the underlying go-openai client on the first call, so that
// a missing API key only fails the commands that talk to the API.
type Client struct {
	APIKey  string
	BaseURL string

	once   sync.Once
	client *go_openai.Client
	err    error
}

var _ conversation.Client = (*Client)(nil)

func NewClient(apiKey string, baseURL string) *Client {
	return &Client{APIKey: apiKey, BaseURL: baseURL}
}

func (c *Client) init() {
	if c.APIKey == "" {
		c.err = ErrNoAPIKey
		return
	}
	config := go_openai.DefaultConfig(c.APIKey)
	if c.BaseURL != "" {
		config.BaseURL = c.BaseURL
	}
	c.client = go_openai.NewClientWithConfig(config)
}

func (c *Client) Complete(ctx context.Context, model string, messages []transcript.Message) (*conversation.Reply, error) {
	c.once.Do(c.init)
	if c.err != nil {
		return nil, c.err
	}

	req := go_openai.ChatCompletionRequest{
		Model:    model,
		Messages: ToOpenAIMessages(messages),
	}

	log.Debug().Str("model", model).Int("messages", len(messages)).Msg("creating chat completion")
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, &conversation.RemoteError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &conversation.RemoteError{Err: errors.New("response has no choices")}
	}

	msg := resp.Choices[0].Message
	log.Debug().
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Msg("received chat completion")

	return &conversation.Reply{
		Message: transcript.NewMessage(transcript.Role(msg.Role), msg.Content),
		Usage: conversation.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func ToOpenAIMessages(messages []transcript.Message) []go_openai.ChatCompletionMessage {
	ret := make([]go_openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		ret[i] = go_openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}
	return ret
}
