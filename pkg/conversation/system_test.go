package conversation

import (
	"testing"

	"github.com/go-go-golems/gptsh/pkg/transcript"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSystemMessages(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "json list",
			input: `[{"role": "system", "content": "Hello"}, {"role": "user", "content": "Hi there!"}]`,
			want:  []string{"Hello", "Hi there!"},
		},
		{
			name:  "json object",
			input: `{"content": "Hello"}`,
			want:  []string{"Hello"},
		},
		{
			name:  "yaml list",
			input: "- role: system\n  content: Hello\n- role: system\n  content: Hi there!",
			want:  []string{"Hello", "Hi there!"},
		},
		{
			name:  "yaml mapping",
			input: "content: Be brief.",
			want:  []string{"Be brief."},
		},
		{
			name:  "fenced yaml",
			input: "Use this:\n```yaml\n- content: Speak like a pirate.\n```\n",
			want:  []string{"Speak like a pirate."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs, err := ParseSystemMessages(tt.input)
			require.NoError(t, err)
			require.Len(t, msgs, len(tt.want))
			for i, m := range msgs {
				assert.Equal(t, transcript.RoleSystem, m.Role)
				assert.Equal(t, tt.want[i], m.Content)
			}
		})
	}
}

func TestParseSystemMessagesMalformed(t *testing.T) {
	for _, input := range []string{
		"",
		"just some words",
		`[{"role": "system"}]`,
		`[1, 2]`,
		`[]`,
		"- content: [unclosed",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseSystemMessages(input)
			var malformed *MalformedSystemMessageError
			require.True(t, errors.As(err, &malformed), "%v", err)
			assert.True(t, errors.Is(err, ErrUserInput))
		})
	}
}

func TestEditBase(t *testing.T) {
	c := newTestConversation(t)
	msgs := []transcript.Message{transcript.NewMessage(transcript.RoleSystem, "Be brief.")}

	require.NoError(t, c.EditBase(msgs, false))
	assert.Equal(t, []transcript.Message{DefaultBase()[0], msgs[0]}, c.Base())
	// 3 framing, 3+5 and 3+2
	assert.Equal(t, 16, c.BaseTokens())

	require.NoError(t, c.EditBase(msgs, true))
	assert.Equal(t, msgs, c.Base())
	assert.Equal(t, 8, c.BaseTokens())
}
