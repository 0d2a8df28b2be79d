package chatdir

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

func TestNameFromFilename(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"alice_gpt_2024-01-02.txt", "gpt"},
		{"alice_gpt_2024-01-02_1.txt", "gpt"},
		{"alice_gpt_2024-01-02_12.json", "gpt"},
		{"bob_smith_test1_2023-12-31.txt", "test1"},
		{"alice_chatgpt_2024-01-02.json", "chatgpt"},
		{"notes.txt", "notes"},
		{"/tmp/x/alice_gpt_2024-01-02.txt", "gpt"},
		{"no-extension", "no-extension"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.Equal(t, tt.want, NameFromFilename(tt.file))
		})
	}
}

func TestDefaultPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := Dir("/data")

	p, err := DefaultPath(fs, "/data", PathOptions{User: "alice", Label: "gpt", Now: day})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "alice_gpt_2024-01-02.txt"), p)

	require.NoError(t, afero.WriteFile(fs, p, []byte("x"), 0o644))

	p2, err := DefaultPath(fs, "/data", PathOptions{User: "alice", Label: "gpt", Now: day})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "alice_gpt_2024-01-02_1.txt"), p2)
	require.NoError(t, afero.WriteFile(fs, p2, []byte("x"), 0o644))

	p3, err := DefaultPath(fs, "/data", PathOptions{User: "alice", Label: "gpt", Now: day})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "alice_gpt_2024-01-02_2.txt"), p3)

	over, err := DefaultPath(fs, "/data", PathOptions{User: "alice", Label: "gpt", Now: day, Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, p, over)
}

func TestDefaultPathNamePrecedence(t *testing.T) {
	fs := afero.NewMemMapFs()

	p, err := DefaultPath(fs, "/data", PathOptions{User: "u", Name: "n", Label: "l", JSON: true, Now: day})
	require.NoError(t, err)
	assert.Equal(t, "u_n_2024-01-02.json", filepath.Base(p))

	p, err = DefaultPath(fs, "/data", PathOptions{Now: day})
	require.NoError(t, err)
	assert.Equal(t, "user_chatgpt_2024-01-02.txt", filepath.Base(p))
}

func TestListSavedAndFind(t *testing.T) {
	fs := afero.NewMemMapFs()

	saved, err := ListSaved(fs, "/data")
	require.NoError(t, err)
	assert.Empty(t, saved)

	dir := Dir("/data")
	for _, f := range []string{"u_gpt_2024-01-02.txt", "u_gpt_2024-01-03.json", "u_other_2024-01-02.txt"} {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, f), []byte("x"), 0o644))
	}
	require.NoError(t, fs.MkdirAll(filepath.Join(dir, "subdir"), 0o755))

	saved, err = ListSaved(fs, "/data")
	require.NoError(t, err)
	assert.Equal(t, []string{"u_gpt_2024-01-02.txt", "u_gpt_2024-01-03.json", "u_other_2024-01-02.txt"}, saved)

	cands, err := FindByName(fs, "/data", "gpt")
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "gpt", cands[0].Name)

	cands, err = FindByName(fs, "/data", "u_other_2024-01-02.txt")
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "other", cands[0].Name)

	cands, err = FindByName(fs, "/data", "missing")
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestResolve(t *testing.T) {
	fs := afero.NewMemMapFs()
	saved := filepath.Join(Dir("/data"), "u_gpt_2024-01-02.txt")
	require.NoError(t, afero.WriteFile(fs, saved, []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/elsewhere/c.txt", []byte("x"), 0o644))

	p, ok := Resolve(fs, "/data", "/elsewhere/c.txt")
	assert.True(t, ok)
	assert.Equal(t, "/elsewhere/c.txt", p)

	p, ok = Resolve(fs, "/data", "/nowhere/u_gpt_2024-01-02.txt")
	assert.True(t, ok)
	assert.Equal(t, saved, p)

	_, ok = Resolve(fs, "/data", "nope.txt")
	assert.False(t, ok)
}
