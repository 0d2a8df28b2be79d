package conversation

import (
	"fmt"

	"github.com/go-go-golems/gptsh/pkg/chatdir"
	"github.com/go-go-golems/gptsh/pkg/transcript"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	PrintColor   = "color"
	PrintNoColor = "no-color"
	PrintJSON    = "json"

	SaveText = "text"
	SaveJSON = "json"
)

var (
	PrintModes = []string{PrintColor, PrintNoColor, PrintJSON}
	SaveModes  = []string{SaveText, SaveJSON}
)

// PrintTranscript renders the conversation for display. n == 0 shows the base
// and the in-scope history, n > 0 shows the last n history messages without
// the base.
func (c *Conversation) PrintTranscript(n int, mode string) (string, error) {
	c.notifyUsed()

	if len(c.history) == 0 {
		return "", &NoConversationError{Label: c.label}
	}

	var tmode transcript.Mode
	switch mode {
	case PrintColor:
		tmode = transcript.ModeColor
	case PrintNoColor:
		tmode = transcript.ModeText
	case PrintJSON:
		tmode = transcript.ModeJSON
	default:
		return "", &InvalidModeError{Mode: mode, Valid: PrintModes}
	}
	if n < 0 {
		return "", &InvalidCountError{N: n}
	}

	var base, history []transcript.Message
	if n == 0 {
		base = c.base
		history = c.history[len(c.history)+c.trimCursor:]
	} else {
		start := len(c.history) - n
		if start < 0 {
			start = 0
		}
		history = c.history[start:]
	}

	s, err := transcript.Encode(base, history, tmode, c.encodeOptions()...)
	if err != nil {
		return "", err
	}
	return "\n" + s, nil
}

func (c *Conversation) encodeOptions() []transcript.EncodeOption {
	ret := []transcript.EncodeOption{transcript.WithUserName(c.env.User)}
	if c.styler != nil {
		ret = append(ret, transcript.WithStyler(c.styler))
	}
	if c.formatter != nil {
		ret = append(ret, transcript.WithFormatter(c.formatter))
	}
	return ret
}

type SaveOptions struct {
	// Path is the file to write. When empty a path is derived in the default
	// directory from Name, the label or "chatgpt".
	Path      string
	Name      string
	Mode      string
	Overwrite bool
}

// SaveTranscript writes the base and the full history, including messages
// before the trim cursor. It returns the path written, or "" if overwriting an
// existing file was declined.
func (c *Conversation) SaveTranscript(opts SaveOptions) (string, error) {
	c.notifyUsed()

	if len(c.history) == 0 {
		return "", &NoConversationError{Label: c.label}
	}

	mode := opts.Mode
	if mode == "" {
		mode = SaveText
	}
	var tmode transcript.Mode
	switch mode {
	case SaveText:
		tmode = transcript.ModeText
	case SaveJSON:
		tmode = transcript.ModeJSON
	default:
		return "", &InvalidModeError{Mode: mode, Valid: SaveModes}
	}

	fs := c.env.Fs
	path := opts.Path
	if path == "" {
		var err error
		path, err = chatdir.DefaultPath(fs, c.env.DataDir, chatdir.PathOptions{
			User:      c.env.User,
			Name:      opts.Name,
			Label:     c.label,
			JSON:      mode == SaveJSON,
			Overwrite: opts.Overwrite,
			Now:       c.env.Now(),
		})
		if err != nil {
			return "", err
		}
	} else if !opts.Overwrite {
		exists, err := afero.Exists(fs, path)
		if err != nil {
			return "", errors.Wrapf(err, "could not check %s", path)
		}
		if exists {
			ok, err := c.confirm(fmt.Sprintf("File already exists: %s\nOverride? [Y/n]", path))
			if err != nil {
				return "", err
			}
			if !ok {
				return "", nil
			}
		}
	}

	s, err := transcript.Encode(c.base, c.history, tmode, transcript.WithUserName(c.env.User))
	if err != nil {
		return "", err
	}
	if err := afero.WriteFile(fs, path, []byte(s), 0o644); err != nil {
		return "", errors.Wrapf(err, "could not write %s", path)
	}

	log.Debug().Uint64("conversation_id", c.id).Str("path", path).Str("mode", mode).Msg("saved conversation")
	return path, nil
}

func (c *Conversation) confirm(question string) (bool, error) {
	if c.env.Confirm == nil {
		return false, nil
	}
	return c.env.Confirm(question)
}

// LoadFromTranscript creates a conversation from a saved transcript. path is
// used as is when it names a file, otherwise its base name is looked up in
// the default directory. The system messages of the transcript replace the
// default base, if there are any. Every message starts in scope and the
// conversation is then trimmed once.
func LoadFromTranscript(path string, options ...Option) (*Conversation, error) {
	c, err := newConversation(options...)
	if err != nil {
		return nil, err
	}

	resolved, ok := chatdir.Resolve(c.env.Fs, c.env.DataDir, path)
	if !ok {
		return nil, &FileNotFoundError{Path: path}
	}
	b, err := afero.ReadFile(c.env.Fs, resolved)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %s", resolved)
	}

	history, base := transcript.Decode(string(b))
	if err := transcript.ValidateRoles(history); err != nil {
		return nil, &MalformedTranscriptError{Path: resolved, Err: err}
	}

	if len(base) > 0 {
		baseTokens, err := c.accountant.Total(base)
		if err != nil {
			return nil, errors.Wrap(err, "could not count base tokens")
		}
		c.base = base
		c.baseTokens = baseTokens
	}

	ledger, err := c.accountant.PerMessage(history)
	if err != nil {
		return nil, errors.Wrap(err, "could not count history tokens")
	}
	c.history = history
	c.ledger = ledger
	c.trimCursor = -len(history)
	c.Trim()

	log.Debug().
		Uint64("conversation_id", c.id).
		Str("path", resolved).
		Int("messages", len(history)).
		Int("trim_cursor", c.trimCursor).
		Msg("loaded conversation")

	c.notifyCreate()
	return c, nil
}
