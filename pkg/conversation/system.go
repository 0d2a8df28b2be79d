package conversation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-go-golems/gptsh/pkg/render"
	"github.com/go-go-golems/gptsh/pkg/transcript"
	"gopkg.in/yaml.v3"
)

// ParseSystemMessages reads a system message override. The text is a JSON
// or YAML list of {role, content} objects, or a single such object, possibly
// wrapped in a fenced json or yaml block. Every entry must have a content,
// the role is always set to system.
func ParseSystemMessages(text string) ([]transcript.Message, error) {
	input := strings.TrimSpace(text)
	if input == "" {
		return nil, &MalformedSystemMessageError{Input: text, Reason: "empty"}
	}

	if blocks, err := render.ExtractBlocksWithLanguage(input, "json", "yaml", "yml"); err == nil && len(blocks) > 0 {
		input = strings.TrimSpace(blocks[0])
	}

	var v interface{}
	if err := json.Unmarshal([]byte(input), &v); err != nil {
		if err := yaml.Unmarshal([]byte(input), &v); err != nil {
			return nil, &MalformedSystemMessageError{Input: text, Reason: "neither JSON nor YAML"}
		}
	}

	var entries []interface{}
	switch vv := v.(type) {
	case map[string]interface{}:
		entries = []interface{}{vv}
	case []interface{}:
		entries = vv
	default:
		return nil, &MalformedSystemMessageError{Input: text, Reason: "expected a list of messages or a message"}
	}
	if len(entries) == 0 {
		return nil, &MalformedSystemMessageError{Input: text, Reason: "no messages"}
	}

	ret := make([]transcript.Message, 0, len(entries))
	for i, e := range entries {
		m, ok := e.(map[string]interface{})
		if !ok {
			return nil, &MalformedSystemMessageError{Input: text, Reason: fmt.Sprintf("entry %d is not an object", i)}
		}
		content, ok := m["content"]
		if !ok || content == nil {
			return nil, &MalformedSystemMessageError{Input: text, Reason: fmt.Sprintf("entry %d has no content", i)}
		}
		s, ok := content.(string)
		if !ok {
			s = fmt.Sprint(content)
		}
		ret = append(ret, transcript.NewMessage(transcript.RoleSystem, s))
	}

	return ret, nil
}

// EditBase replaces the base with messages. Unless replace is set, the
// default first system message is kept in front of them.
func (c *Conversation) EditBase(messages []transcript.Message, replace bool) error {
	c.notifyUsed()

	base := []transcript.Message{}
	if !replace {
		base = append(base, DefaultBase()[0])
	}
	for _, m := range messages {
		base = append(base, transcript.NewMessage(transcript.RoleSystem, m.Content))
	}
	return c.SetBase(base)
}
