package transcript

import (
	"github.com/pkg/errors"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Message is a single role/content pair. Messages are never mutated once they
// have been appended to a conversation.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleAssistant, RoleUser:
		return true
	}
	return false
}

// SplitSystem separates system messages (the base) from the rest of the
// messages, preserving the relative order of both.
func SplitSystem(messages []Message) (history []Message, base []Message) {
	history = []Message{}
	base = []Message{}
	for _, m := range messages {
		if m.Role == RoleSystem {
			base = append(base, m)
		} else {
			history = append(history, m)
		}
	}
	return history, base
}

// Concat returns a fresh slice holding base followed by history.
func Concat(base []Message, history []Message) []Message {
	ret := make([]Message, 0, len(base)+len(history))
	ret = append(ret, base...)
	ret = append(ret, history...)
	return ret
}

func ValidateRoles(messages []Message) error {
	for i, m := range messages {
		if !m.Role.Valid() {
			return errors.Errorf("invalid role at index %d: %s (should be one of system, assistant, user)", i, m.Role)
		}
	}
	return nil
}
