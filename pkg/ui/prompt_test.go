package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"n\n", false},
		{"N\n", false},
		{"y\n", true},
		{"\n", true},
		{"maybe\nno\n", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)
			ok, err := p.Confirm("Override? [Y/n]")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Contains(t, out.String(), "Override? [Y/n]")
		})
	}
}

func TestChoose(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("2\n"), &out)
	n, err := p.Choose("Multiple choices found, please choose from:", []string{"a.txt", "b.txt"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, out.String(), "b.txt")

	_, err = p.Choose("empty", nil)
	assert.Error(t, err)
}
