package conversation

import (
	"context"

	"github.com/go-go-golems/gptsh/pkg/transcript"
)

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Reply struct {
	Message transcript.Message
	Usage   Usage
}

// Client performs a single chat completion. Implementations should return a
// *RemoteError for failures of the remote service.
type Client interface {
	Complete(ctx context.Context, model string, messages []transcript.Message) (*Reply, error)
}

// Observer is notified of the lifecycle of managed conversations.
type Observer interface {
	OnCreate(c *Conversation)
	OnDestroy(c *Conversation)
	OnUsed(c *Conversation)
}

// ConfirmFunc asks a yes/no question. Returning false declines.
type ConfirmFunc func(question string) (bool, error)
