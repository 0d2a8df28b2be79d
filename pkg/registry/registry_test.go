package registry

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-go-golems/gptsh/pkg/chatdir"
	"github.com/go-go-golems/gptsh/pkg/conversation"
	"github.com/go-go-golems/gptsh/pkg/tokens"
	"github.com/go-go-golems/gptsh/pkg/transcript"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wordTokenizer struct{}

func (wordTokenizer) Encode(text string) ([]uint, []string, error) {
	words := strings.Fields(text)
	return make([]uint, len(words)), words, nil
}

type echoClient struct{}

func (echoClient) Complete(_ context.Context, _ string, messages []transcript.Message) (*conversation.Reply, error) {
	last := messages[len(messages)-1]
	return &conversation.Reply{Message: transcript.NewMessage(transcript.RoleAssistant, "echo: "+last.Content)}, nil
}

type names map[string]bool

func (n names) Has(name string) bool { return n[name] }

func testEnv(fs afero.Fs) conversation.Environment {
	return conversation.Environment{
		User:    "alice",
		DataDir: "/data",
		Fs:      fs,
		Now:     func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) },
	}
}

func newTestRegistry(fs afero.Fs, options ...Option) *Registry {
	opts := append([]Option{
		WithEnvironment(testEnv(fs)),
		WithConversationOptions(
			conversation.WithAccountant(tokens.NewAccountant(wordTokenizer{})),
			conversation.WithClient(echoClient{}),
		),
	}, options...)
	return New(opts...)
}

func TestCreateAndResolve(t *testing.T) {
	r := newTestRegistry(afero.NewMemMapFs())

	_, err := r.Current()
	assert.True(t, errors.Is(err, conversation.ErrState))

	gpt, err := r.Create("gpt")
	require.NoError(t, err)
	assert.True(t, gpt.Managed())
	assert.Equal(t, "gpt", gpt.Label())

	cur, err := r.Current()
	require.NoError(t, err)
	assert.Same(t, gpt, cur)

	other, err := r.Create("other")
	require.NoError(t, err)
	cur, err = r.Resolve("")
	require.NoError(t, err)
	assert.Same(t, other, cur)

	named, err := r.Resolve("gpt")
	require.NoError(t, err)
	assert.Same(t, gpt, named)

	_, err = r.Resolve("missing")
	var notFound *conversation.NoActiveConversationError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "missing", notFound.Name)

	assert.Equal(t, []string{"gpt", "other"}, r.Names())
}

func TestCreateCollision(t *testing.T) {
	r := newTestRegistry(afero.NewMemMapFs(), WithNamespace(names{"ls": true}))

	_, err := r.Create("x")
	require.NoError(t, err)

	_, err = r.Create("x")
	var collision *conversation.NameCollisionError
	require.True(t, errors.As(err, &collision))
	assert.False(t, collision.Variable)
	assert.Len(t, r.Names(), 1)

	_, err = r.Create("ls")
	require.True(t, errors.As(err, &collision))
	assert.True(t, collision.Variable)

	_, err = r.Create("bad name")
	assert.True(t, errors.Is(err, conversation.ErrUserInput))
	assert.Len(t, r.Names(), 1)
}

func TestUsedSwitchesCurrent(t *testing.T) {
	r := newTestRegistry(afero.NewMemMapFs())
	a, err := r.Create("a")
	require.NoError(t, err)
	_, err = r.Create("b")
	require.NoError(t, err)

	_, err = a.Send(context.Background(), "hi")
	require.NoError(t, err)

	cur, err := r.Current()
	require.NoError(t, err)
	assert.Same(t, a, cur)
}

func TestUsedIndexesUnknownConversation(t *testing.T) {
	r := newTestRegistry(afero.NewMemMapFs())

	// a conversation whose creation notification was never seen
	c, err := conversation.New(
		conversation.WithAccountant(tokens.NewAccountant(wordTokenizer{})),
		conversation.WithLabel("late"),
	)
	require.NoError(t, err)

	r.OnUsed(c)
	cur, err := r.Current()
	require.NoError(t, err)
	assert.Same(t, c, cur)
	assert.Equal(t, []string{"late"}, r.Names())
}

func TestReleaseClearsCurrent(t *testing.T) {
	r := newTestRegistry(afero.NewMemMapFs())
	a, err := r.Create("a")
	require.NoError(t, err)
	b, err := r.Create("b")
	require.NoError(t, err)

	require.NoError(t, r.Release("b"))
	_, ok := r.Get("b")
	assert.False(t, ok)
	_, err = r.Current()
	assert.True(t, errors.Is(err, conversation.ErrState))

	// the handle stays usable but is no longer tracked
	_, err = b.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, r.Names())

	a.Close()
	assert.Equal(t, "No active chats.", r.ListActive())

	// a released name can be reused
	_, err = r.Create("b")
	require.NoError(t, err)
}

func TestSaveAndPrintDispatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := newTestRegistry(fs)

	_, err := r.Save("", conversation.SaveText)
	assert.True(t, errors.Is(err, conversation.ErrState))

	gpt, err := r.Create("gpt")
	require.NoError(t, err)

	_, err = r.Print("gpt", 10, conversation.PrintNoColor)
	assert.True(t, errors.Is(err, conversation.ErrState))

	_, err = gpt.Send(context.Background(), "hello")
	require.NoError(t, err)

	s, err := r.Print("", 10, conversation.PrintNoColor)
	require.NoError(t, err)
	assert.Contains(t, s, "echo: hello")

	p, err := r.Save("gpt", conversation.SaveJSON)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(chatdir.Dir("/data"), "alice_gpt_2024-01-02.json"), p)

	saved, err := r.ListSaved()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice_gpt_2024-01-02.json"}, saved)
}

func saveChat(t *testing.T, fs afero.Fs, label string, text string) string {
	t.Helper()
	r := newTestRegistry(fs)
	c, err := r.Create(label)
	require.NoError(t, err)
	_, err = c.Send(context.Background(), text)
	require.NoError(t, err)
	p, err := c.SaveTranscript(conversation.SaveOptions{})
	require.NoError(t, err)
	c.Close()
	return p
}

func TestLoadByNameRenamesOnCollision(t *testing.T) {
	fs := afero.NewMemMapFs()
	saveChat(t, fs, "test1", "hello")

	r := newTestRegistry(fs)
	_, err := r.Create("test1")
	require.NoError(t, err)

	res, err := r.Load("test1")
	require.NoError(t, err)
	assert.Equal(t, "test10", res.Label)
	assert.Equal(t, "test1", res.Requested)
	assert.Equal(t, "test10", res.Conversation.Label())
	assert.Contains(t, res.String(), "Updating to test10")

	res, err = r.Load("test1")
	require.NoError(t, err)
	assert.Equal(t, "test11", res.Label)

	cur, err := r.Current()
	require.NoError(t, err)
	assert.Same(t, res.Conversation, cur)
	assert.Len(t, res.Conversation.History(), 2)
	assert.Equal(t, []string{"test1", "test10", "test11"}, r.Names())
}

func TestLoadByPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := saveChat(t, fs, "gpt", "hello")

	r := newTestRegistry(fs)
	res, err := r.Load(p)
	require.NoError(t, err)
	assert.Equal(t, "gpt", res.Label)
	assert.Equal(t, p, res.Path)
	assert.Equal(t, "", res.Requested)
	assert.Equal(t, "Loaded chat gpt from "+p, res.String())
}

func TestLoadAmbiguous(t *testing.T) {
	fs := afero.NewMemMapFs()
	first := saveChat(t, fs, "gpt", "one")
	second := saveChat(t, fs, "gpt", "two")
	require.NotEqual(t, first, second)

	var offered []string
	r := newTestRegistry(fs, WithChooser(func(_ string, choices []string) (int, error) {
		offered = choices
		return 2, nil
	}))
	res, err := r.Load("gpt")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Base(first), filepath.Base(second)}, offered)
	assert.Equal(t, second, res.Path)
	assert.Equal(t, "two", res.Conversation.History()[0].Content[:3])

	r = newTestRegistry(fs, WithChooser(func(string, []string) (int, error) {
		return 0, errors.New("no tty")
	}))
	_, err = r.Load("gpt")
	var ambiguous *conversation.AmbiguityError
	require.True(t, errors.As(err, &ambiguous))
	assert.True(t, errors.Is(err, conversation.ErrAmbiguous))

	r = newTestRegistry(fs, WithChooser(func(string, []string) (int, error) { return 3, nil }))
	_, err = r.Load("gpt")
	assert.True(t, errors.Is(err, conversation.ErrAmbiguous))
}

func TestLoadNotFound(t *testing.T) {
	r := newTestRegistry(afero.NewMemMapFs())
	_, err := r.Load("nothing")
	var notFound *conversation.FileNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Empty(t, r.Names())
}

func TestEditAndListActive(t *testing.T) {
	r := newTestRegistry(afero.NewMemMapFs())
	gpt, err := r.Create("gpt")
	require.NoError(t, err)

	err = r.Edit("gpt", "not: [valid", false)
	assert.True(t, errors.Is(err, conversation.ErrUserInput))

	require.NoError(t, r.Edit("", `{"content": "Be brief."}`, true))
	assert.Equal(t, []transcript.Message{transcript.NewMessage(transcript.RoleSystem, "Be brief.")}, gpt.Base())

	_, err = r.Create("other")
	require.NoError(t, err)
	active := r.ListActive()
	blocks := strings.Split(active, "\n\n")
	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[0], "Alias: gpt")
	assert.Contains(t, blocks[1], "Alias: other")
}
