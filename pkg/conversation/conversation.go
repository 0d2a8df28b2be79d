package conversation

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/go-go-golems/gptsh/pkg/tokens"
	"github.com/go-go-golems/gptsh/pkg/transcript"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	DefaultMaxTokens = 3000
	DefaultModel     = "gpt-3.5-turbo"
)

var SupportedModels = []string{"gpt-3.5-turbo", "gpt-4"}

func IsSupportedModel(model string) bool {
	for _, m := range SupportedModels {
		if m == model {
			return true
		}
	}
	return false
}

const (
	defaultSystemPrompt = "You are a helpful assistant."
	codeBlockPrompt     = "If your responses include code, make sure to wrap it in a markdown code block with the appropriate language.\nExample:\n```python\nprint('Hello World!')\n```"
)

// DefaultBase returns the system messages every new conversation starts with.
func DefaultBase() []transcript.Message {
	return []transcript.Message{
		transcript.NewMessage(transcript.RoleSystem, defaultSystemPrompt),
		transcript.NewMessage(transcript.RoleSystem, codeBlockPrompt),
	}
}

type State int

const (
	StateIdle State = iota
	StateSending
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Environment is the externally supplied configuration a conversation reads
// when printing, saving and loading.
type Environment struct {
	User    string
	DataDir string
	Fs      afero.Fs
	Now     func() time.Time
	Confirm ConfirmFunc
}

// DefaultEnvironment reads $USER and $XDG_DATA_HOME from the process
// environment and works on the OS filesystem.
func DefaultEnvironment() Environment {
	user := os.Getenv("USER")
	if user == "" {
		user = "user"
	}
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return Environment{
		User:    user,
		DataDir: filepath.Join(dataDir, "gptsh"),
		Fs:      afero.NewOsFs(),
		Now:     time.Now,
	}
}

var lastID atomic.Uint64

// Conversation is one exchange with the chat API: a base of system messages,
// the turn history with a parallel token ledger, and a trim cursor marking
// the oldest history message still sent with each request.
//
// The trim cursor is a negative offset from the end of history. Messages
// before it stay in memory and are saved, they are only left out of requests
// and of the token count.
type Conversation struct {
	id       uint64
	label    string
	observer Observer
	closed   bool

	client     Client
	model      string
	accountant *tokens.Accountant
	maxTokens  int

	base       []transcript.Message
	baseTokens int
	history    []transcript.Message
	ledger     []int
	trimCursor int
	state      State

	env       Environment
	formatter transcript.Formatter
	styler    transcript.HeaderStyler
}

type Option func(*Conversation)

func WithLabel(label string) Option {
	return func(c *Conversation) {
		c.label = label
	}
}

// WithObserver makes the conversation managed: the observer is notified of
// its creation, use and Close.
func WithObserver(o Observer) Option {
	return func(c *Conversation) {
		c.observer = o
	}
}

func WithClient(client Client) Option {
	return func(c *Conversation) {
		c.client = client
	}
}

func WithModel(model string) Option {
	return func(c *Conversation) {
		c.model = model
	}
}

func WithAccountant(a *tokens.Accountant) Option {
	return func(c *Conversation) {
		c.accountant = a
	}
}

func WithMaxTokens(n int) Option {
	return func(c *Conversation) {
		c.maxTokens = n
	}
}

func WithFormatter(f transcript.Formatter) Option {
	return func(c *Conversation) {
		c.formatter = f
	}
}

func WithStyler(s transcript.HeaderStyler) Option {
	return func(c *Conversation) {
		c.styler = s
	}
}

func WithEnvironment(env Environment) Option {
	return func(c *Conversation) {
		c.env = env
	}
}

func WithBase(base []transcript.Message) Option {
	return func(c *Conversation) {
		c.base = append([]transcript.Message{}, base...)
	}
}

func newConversation(options ...Option) (*Conversation, error) {
	c := &Conversation{
		id:        lastID.Add(1),
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
		base:      DefaultBase(),
		history:   []transcript.Message{},
		ledger:    []int{},
		env:       DefaultEnvironment(),
	}
	for _, o := range options {
		o(c)
	}

	if c.accountant == nil {
		c.accountant = tokens.NewAccountant(tokens.NewLazyTokenizer(func() (tokens.Tokenizer, error) {
			return tokens.NewTokenizer(tokens.BackendTokenizer, c.model)
		}))
	}
	if c.env.Fs == nil {
		c.env.Fs = afero.NewOsFs()
	}
	if c.env.Now == nil {
		c.env.Now = time.Now
	}

	baseTokens, err := c.accountant.Total(c.base)
	if err != nil {
		return nil, errors.Wrap(err, "could not count base tokens")
	}
	c.baseTokens = baseTokens

	return c, nil
}

// New creates a conversation with the default base. A managed conversation
// notifies its observer before New returns.
func New(options ...Option) (*Conversation, error) {
	c, err := newConversation(options...)
	if err != nil {
		return nil, err
	}
	c.notifyCreate()
	return c, nil
}

func (c *Conversation) notifyCreate() {
	log.Debug().Uint64("conversation_id", c.id).Str("label", c.label).Msg("created conversation")
	if c.observer != nil {
		c.observer.OnCreate(c)
	}
}

func (c *Conversation) notifyUsed() {
	if c.observer != nil && !c.closed {
		c.observer.OnUsed(c)
	}
}

// ID is unique among all conversations created by the process.
func (c *Conversation) ID() uint64 {
	return c.id
}

func (c *Conversation) Label() string {
	return c.label
}

func (c *Conversation) SetLabel(label string) {
	c.label = label
}

func (c *Conversation) Managed() bool {
	return c.observer != nil
}

func (c *Conversation) Model() string {
	return c.model
}

func (c *Conversation) State() State {
	return c.state
}

func (c *Conversation) MaxTokens() int {
	return c.maxTokens
}

func (c *Conversation) BaseTokens() int {
	return c.baseTokens
}

func (c *Conversation) TrimCursor() int {
	return c.trimCursor
}

func (c *Conversation) Base() []transcript.Message {
	return append([]transcript.Message{}, c.base...)
}

func (c *Conversation) History() []transcript.Message {
	return append([]transcript.Message{}, c.history...)
}

func (c *Conversation) Ledger() []int {
	return append([]int{}, c.ledger...)
}

// Tokens is the cost of the next request: the base plus the in-scope
// history.
func (c *Conversation) Tokens() int {
	return c.baseTokens + tokens.Sum(c.ledger[len(c.ledger)+c.trimCursor:])
}

// InScope returns base followed by the history messages from the trim
// cursor on, the message list sent with a request.
func (c *Conversation) InScope() []transcript.Message {
	return transcript.Concat(c.base, c.history[len(c.history)+c.trimCursor:])
}

// SetBase replaces the system messages, recounts their cost and trims.
func (c *Conversation) SetBase(base []transcript.Message) error {
	baseTokens, err := c.accountant.Total(base)
	if err != nil {
		return errors.Wrap(err, "could not count base tokens")
	}
	c.base = append([]transcript.Message{}, base...)
	c.baseTokens = baseTokens
	c.Trim()
	return nil
}

// Trim moves the trim cursor toward the end of history while the
// conversation is over budget. The last exchange always stays in scope, even
// when it alone exceeds the budget.
func (c *Conversation) Trim() {
	for c.trimCursor < -1 && c.Tokens() > c.maxTokens {
		c.trimCursor++
	}
	log.Trace().
		Uint64("conversation_id", c.id).
		Int("trim_cursor", c.trimCursor).
		Int("tokens", c.Tokens()).
		Msg("trimmed conversation")
}

// Send appends text as a user message, sends the in-scope messages and
// appends the reply. If the call fails, history, ledger and trim cursor are
// restored and a *RemoteError is returned.
func (c *Conversation) Send(ctx context.Context, text string) (string, error) {
	c.notifyUsed()

	if !IsSupportedModel(c.model) {
		return "", &UnsupportedModelError{Model: c.model, Supported: SupportedModels}
	}
	if c.client == nil {
		return "", errors.New("no chat client configured")
	}

	userMessage := transcript.NewMessage(transcript.RoleUser, text)
	// counted locally, usage.prompt_tokens covers the whole request and not
	// this message alone
	userTokens, err := c.accountant.CountMessage(userMessage)
	if err != nil {
		return "", errors.Wrap(err, "could not count message tokens")
	}

	n, cursor := len(c.history), c.trimCursor
	rollback := func() {
		c.history = c.history[:n]
		c.ledger = c.ledger[:n]
		c.trimCursor = cursor
		c.state = StateError
	}

	c.history = append(c.history, userMessage)
	c.ledger = append(c.ledger, userTokens)
	c.trimCursor--
	c.state = StateSending

	log.Debug().
		Uint64("conversation_id", c.id).
		Str("model", c.model).
		Int("messages", len(c.InScope())).
		Int("tokens", c.Tokens()).
		Msg("sending conversation")

	reply, err := c.client.Complete(ctx, c.model, c.InScope())
	if err != nil {
		rollback()
		var remoteErr *RemoteError
		if errors.As(err, &remoteErr) {
			return "", remoteErr
		}
		return "", &RemoteError{Err: err}
	}
	if reply == nil {
		rollback()
		return "", &RemoteError{Err: errors.New("empty response")}
	}

	assistant := reply.Message
	if assistant.Role == "" {
		assistant.Role = transcript.RoleAssistant
	}
	assistantTokens := reply.Usage.CompletionTokens
	if assistantTokens <= 0 {
		assistantTokens, err = c.accountant.CountMessage(assistant)
		if err != nil {
			rollback()
			return "", errors.Wrap(err, "could not count reply tokens")
		}
	}

	c.history = append(c.history, assistant)
	c.ledger = append(c.ledger, assistantTokens)
	c.trimCursor--
	c.Trim()
	c.state = StateIdle

	return assistant.Content, nil
}

// Close releases a managed conversation from its observer. Further calls are
// no-ops.
func (c *Conversation) Close() {
	if c.closed {
		return
	}
	c.closed = true
	log.Debug().Uint64("conversation_id", c.id).Str("label", c.label).Msg("closed conversation")
	if c.observer != nil {
		c.observer.OnDestroy(c)
	}
}
