package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Mode selects how a transcript is rendered.
//
//   - ModeJSON is the structured form, an indented JSON array of messages.
//   - ModeText is the plain form: a role header line followed by the content
//     indented by Margin, with a blank line between messages.
//   - ModeColor is ModeText with styled headers and formatted content. It is
//     write-only, Decode does not try to undo it.
type Mode string

const (
	ModeJSON  Mode = "json"
	ModeText  Mode = "text"
	ModeColor Mode = "color"
)

const (
	Margin          = "    "
	AssistantHeader = "ChatGPT:"
	SystemHeader    = "System:"
	DefaultUserName = "user"
)

type UnknownModeError struct {
	Mode Mode
}

func (e *UnknownModeError) Error() string {
	return fmt.Sprintf("unknown transcript mode: %q", string(e.Mode))
}

// HeaderStyler decorates role header lines, typically with ANSI colors.
type HeaderStyler interface {
	User(s string) string
	Assistant(s string) string
	System(s string) string
}

// Formatter turns message content into presentation text (markdown
// highlighting for instance).
type Formatter interface {
	Format(text string) (string, error)
}

type encodeOptions struct {
	userName  string
	styler    HeaderStyler
	formatter Formatter
}

type EncodeOption func(*encodeOptions)

// WithUserName sets the header used for user messages ("{name}:").
func WithUserName(name string) EncodeOption {
	return func(o *encodeOptions) {
		o.userName = name
	}
}

func WithStyler(styler HeaderStyler) EncodeOption {
	return func(o *encodeOptions) {
		o.styler = styler
	}
}

func WithFormatter(formatter Formatter) EncodeOption {
	return func(o *encodeOptions) {
		o.formatter = formatter
	}
}

// Encode renders base followed by history in the given mode.
func Encode(base []Message, history []Message, mode Mode, options ...EncodeOption) (string, error) {
	opts := &encodeOptions{
		userName: DefaultUserName,
	}
	for _, o := range options {
		o(opts)
	}
	if opts.userName == "" {
		opts.userName = DefaultUserName
	}

	messages := Concat(base, history)

	switch mode {
	case ModeJSON:
		return encodeJSON(messages)
	case ModeText:
		return encodePlain(messages, opts, false)
	case ModeColor:
		return encodePlain(messages, opts, true)
	default:
		return "", &UnknownModeError{Mode: mode}
	}
}

func encodeJSON(messages []Message) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(messages); err != nil {
		return "", errors.Wrap(err, "could not encode transcript")
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func encodePlain(messages []Message, opts *encodeOptions, color bool) (string, error) {
	var sb strings.Builder

	for _, msg := range messages {
		var header string
		switch msg.Role {
		case RoleUser:
			header = opts.userName + ":"
			if color && opts.styler != nil {
				header = opts.styler.User(header)
			}
		case RoleAssistant:
			header = AssistantHeader
			if color && opts.styler != nil {
				header = opts.styler.Assistant(header)
			}
		case RoleSystem:
			header = SystemHeader
			if color && opts.styler != nil {
				header = opts.styler.System(header)
			}
		default:
			continue
		}

		content := msg.Content
		if color && opts.formatter != nil {
			formatted, err := opts.formatter.Format(content)
			if err != nil {
				return "", errors.Wrap(err, "could not format message content")
			}
			content = formatted
		}

		sb.WriteString(header)
		sb.WriteString("\n")
		sb.WriteString(Indent(strings.TrimRight(content, "\n"), Margin))
		sb.WriteString("\n\n")
	}

	return sb.String(), nil
}

// Decode reconstructs history and base from a transcript. The structured
// form is tried first. Otherwise the text is read as the plain form: a
// header starting with "System" opens a system message, every other block is
// assigned user, assistant, user, ... by position. The literal text of
// non-system headers is not looked at.
func Decode(text string) (history []Message, base []Message) {
	var messages []Message
	if err := json.Unmarshal([]byte(text), &messages); err == nil {
		return SplitSystem(messages)
	}

	return decodePlain(text)
}

func decodePlain(text string) (history []Message, base []Message) {
	history = []Message{}
	base = []Message{}

	lines := strings.Split(text, "\n")
	n := len(lines)
	user := true

	for idx := 0; idx < n; {
		line := lines[idx]
		if line == "" {
			idx++
			continue
		}

		var role Role
		switch {
		case isIndented(line):
			// content without a header, keep the positional role
			if user {
				role = RoleUser
			} else {
				role = RoleAssistant
			}
		case strings.TrimSpace(line) == SystemHeader:
			role = RoleSystem
			idx++
		default:
			if user {
				role = RoleUser
			} else {
				role = RoleAssistant
			}
			idx++
		}

		if idx >= n {
			break
		}

		var block []string
		for idx < n && isIndented(lines[idx]) {
			block = append(block, lines[idx])
			idx++
		}

		content := ""
		if len(block) > 0 {
			content = Dedent(strings.Join(block, "\n") + "\n")
		}

		msg := Message{Role: role, Content: content}
		if role == RoleSystem {
			base = append(base, msg)
		} else {
			history = append(history, msg)
			user = !user
		}
	}

	return history, base
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}
