package conversation

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by this package and by the registry
// matches exactly one of them with errors.Is.
var (
	ErrUserInput = errors.New("invalid input")
	ErrState     = errors.New("invalid state")
	ErrRemote    = errors.New("remote failure")
	ErrAmbiguous = errors.New("ambiguous name")
)

type UnsupportedModelError struct {
	Model     string
	Supported []string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("unsupported model: %s - options are %s", e.Model, strings.Join(e.Supported, ", "))
}

func (e *UnsupportedModelError) Is(target error) bool { return target == ErrUserInput }

type InvalidModeError struct {
	Mode  string
	Valid []string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid mode: %q - options are %s", e.Mode, strings.Join(e.Valid, ", "))
}

func (e *InvalidModeError) Is(target error) bool { return target == ErrUserInput }

type InvalidCountError struct {
	N int
}

func (e *InvalidCountError) Error() string {
	return fmt.Sprintf("invalid message count: %d (must be 0 or positive)", e.N)
}

func (e *InvalidCountError) Is(target error) bool { return target == ErrUserInput }

// MalformedSystemMessageError reports a system message override that could not
// be turned into a list of messages with content.
type MalformedSystemMessageError struct {
	Input  string
	Reason string
}

func (e *MalformedSystemMessageError) Error() string {
	return fmt.Sprintf("malformed system messages (%s): %s", e.Reason, e.Input)
}

func (e *MalformedSystemMessageError) Is(target error) bool { return target == ErrUserInput }

// MalformedTranscriptError reports a saved transcript holding messages with
// unknown roles.
type MalformedTranscriptError struct {
	Path string
	Err  error
}

func (e *MalformedTranscriptError) Error() string {
	return fmt.Sprintf("malformed transcript %s: %v", e.Path, e.Err)
}

func (e *MalformedTranscriptError) Unwrap() error { return e.Err }

func (e *MalformedTranscriptError) Is(target error) bool { return target == ErrUserInput }

// NoConversationError is returned when printing or saving a conversation
// without any history.
type NoConversationError struct {
	Label string
}

func (e *NoConversationError) Error() string {
	if e.Label == "" {
		return "no conversation to show, send a message first"
	}
	return fmt.Sprintf("no conversation in %s, send a message first", e.Label)
}

func (e *NoConversationError) Is(target error) bool { return target == ErrState }

type NameCollisionError struct {
	Name string
	// Variable is set when the name is taken by something other than a chat.
	Variable bool
}

func (e *NameCollisionError) Error() string {
	if e.Variable {
		return fmt.Sprintf("variable with name %s already exists", e.Name)
	}
	return fmt.Sprintf("chat with name %s already exists", e.Name)
}

func (e *NameCollisionError) Is(target error) bool { return target == ErrState }

type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

func (e *FileNotFoundError) Is(target error) bool { return target == ErrState }

// NoActiveConversationError is returned when neither a name nor a current
// conversation designates a conversation.
type NoActiveConversationError struct {
	Name string
}

func (e *NoActiveConversationError) Error() string {
	if e.Name == "" {
		return "no active chat"
	}
	return fmt.Sprintf("no chat with name %s found", e.Name)
}

func (e *NoActiveConversationError) Is(target error) bool { return target == ErrState }

// RemoteError wraps a failure of the chat completion call.
type RemoteError struct {
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("API error: %v", e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

// AmbiguityError is returned when several saved files match a name and no
// choice could be obtained.
type AmbiguityError struct {
	Name       string
	Candidates []string
	Err        error
}

func (e *AmbiguityError) Error() string {
	msg := fmt.Sprintf("multiple saved chats named %s: %s", e.Name, strings.Join(e.Candidates, ", "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AmbiguityError) Unwrap() error { return e.Err }

func (e *AmbiguityError) Is(target error) bool { return target == ErrAmbiguous }

type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid chat name: %q", e.Name)
}

func (e *InvalidNameError) Is(target error) bool { return target == ErrUserInput }
