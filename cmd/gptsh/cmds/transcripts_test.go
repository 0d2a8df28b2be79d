package cmds

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-go-golems/gptsh/pkg/chatdir"
	"github.com/go-go-golems/gptsh/pkg/conversation"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const savedChat = "System:\n    be terse\n\nalice:\n    hi\n\nChatGPT:\n    hello\n"

func writeSaved(t *testing.T, dataDir string, name string) string {
	t.Helper()
	dir := chatdir.Dir(dataDir)
	fs := afero.NewOsFs()
	require.NoError(t, fs.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, afero.WriteFile(fs, path, []byte(savedChat), 0o644))
	return path
}

func TestPrintSavedByName(t *testing.T) {
	dataDir := t.TempDir()
	setupConfig(t, "http://127.0.0.1:1/v1", dataDir)
	writeSaved(t, dataDir, "alice_gpt_2024-01-02.txt")

	out, err := runCommand(t, NewPrintCommand(), strings.NewReader(""), "gpt")
	require.NoError(t, err)
	assert.Contains(t, out, "System:\n    be terse\n")
	assert.Contains(t, out, "alice:\n    hi\n\nChatGPT:\n    hello\n")
}

func TestPrintSavedByPath(t *testing.T) {
	dataDir := t.TempDir()
	setupConfig(t, "http://127.0.0.1:1/v1", dataDir)
	path := writeSaved(t, dataDir, "alice_gpt_2024-01-02.txt")

	out, err := runCommand(t, NewPrintCommand(), strings.NewReader(""), path, "-n", "1", "-m", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"content": "hello`)
	assert.NotContains(t, out, "be terse")
}

func TestPrintSavedNotFound(t *testing.T) {
	setupConfig(t, "http://127.0.0.1:1/v1", t.TempDir())

	_, err := runCommand(t, NewPrintCommand(), strings.NewReader(""), "nope")
	var notFound *conversation.FileNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestSavedChatRows(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := chatdir.Dir("/data")
	for _, name := range []string{"alice_gpt_2024-01-02.txt", "alice_notes_2024-01-01.json"} {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, name), []byte(savedChat), 0o644))
	}
	env := conversation.Environment{User: "alice", DataDir: "/data", Fs: fs}

	rows, err := savedChatRows(env)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	name, ok := rows[0].Get("name")
	require.True(t, ok)
	assert.Equal(t, "gpt", name)
	file, ok := rows[0].Get("file")
	require.True(t, ok)
	assert.Equal(t, "alice_gpt_2024-01-02.txt", file)
	path, ok := rows[0].Get("path")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "alice_gpt_2024-01-02.txt"), path)

	name, ok = rows[1].Get("name")
	require.True(t, ok)
	assert.Equal(t, "notes", name)
}

func TestSavedChatRowsEmptyDataDir(t *testing.T) {
	env := conversation.Environment{DataDir: "/data", Fs: afero.NewMemMapFs()}
	rows, err := savedChatRows(env)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestListCommandBuilds(t *testing.T) {
	c, err := NewListCommand()
	require.NoError(t, err)
	assert.Equal(t, "list", c.Description().Name)
}
