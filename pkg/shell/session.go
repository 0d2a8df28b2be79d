// Package shell is the interactive front end of gptsh. Each input line is
// split into words and dispatched to a builtin, to the chat manager or to a
// named chat, every one of them parsed by its own cobra command tree.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-go-golems/glazed/pkg/help"
	"github.com/go-go-golems/gptsh/pkg/conversation"
	"github.com/go-go-golems/gptsh/pkg/doc"
	"github.com/go-go-golems/gptsh/pkg/registry"
	"github.com/go-go-golems/gptsh/pkg/render"
	"github.com/go-go-golems/gptsh/pkg/transcript"
	"github.com/go-go-golems/gptsh/pkg/ui"
	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPrompt      = "gptsh> "
	ContinuationPrompt = "... "
	blockEnd           = "end"
)

var builtins = []string{
	"chatgpt", "chat-manager", "cm", "del", "with", "set", "unset", "vars", "help", "exit", "quit",
}

// Session holds the shell variables and the chat registry. Chats and
// variables share one namespace.
type Session struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	prompt string

	vars map[string]string

	registry  *registry.Registry
	env       conversation.Environment
	options   []conversation.Option
	colors    *render.Colorizer
	formatter transcript.Formatter
	choose    registry.ChooseFunc
	help      *help.HelpSystem
}

var _ registry.Namespace = (*Session)(nil)

type Option func(*Session)

// WithEnvironment sets the user, data directory and filesystem of every
// conversation. A nil Confirm is replaced by a prompt on the session input.
func WithEnvironment(env conversation.Environment) Option {
	return func(s *Session) {
		s.env = env
	}
}

// WithConversationOptions are applied to every conversation of the session,
// managed or one-off.
func WithConversationOptions(options ...conversation.Option) Option {
	return func(s *Session) {
		s.options = append(s.options, options...)
	}
}

func WithColorizer(c *render.Colorizer) Option {
	return func(s *Session) {
		s.colors = c
	}
}

// WithFormatter formats replies and colored transcripts.
func WithFormatter(f transcript.Formatter) Option {
	return func(s *Session) {
		s.formatter = f
	}
}

func WithChooser(choose registry.ChooseFunc) Option {
	return func(s *Session) {
		s.choose = choose
	}
}

func WithErrorWriter(w io.Writer) Option {
	return func(s *Session) {
		s.errOut = w
	}
}

// WithHelpSystem sets where the tutorial is read from. By default the gptsh
// help sections are loaded.
func WithHelpSystem(hs *help.HelpSystem) Option {
	return func(s *Session) {
		s.help = hs
	}
}

func WithPrompt(prompt string) Option {
	return func(s *Session) {
		s.prompt = prompt
	}
}

func New(in io.Reader, out io.Writer, options ...Option) *Session {
	s := &Session{
		in:     bufio.NewReader(in),
		out:    out,
		errOut: out,
		prompt: DefaultPrompt,
		vars:   map[string]string{},
		env:    conversation.DefaultEnvironment(),
		colors: render.NoColor(),
	}
	for _, o := range options {
		o(s)
	}

	if s.help == nil {
		hs, err := doc.NewHelpSystem()
		if err != nil {
			log.Warn().Err(err).Msg("could not load help sections")
		}
		s.help = hs
	}

	prompter := ui.NewPrompter(s.in, s.out)
	if s.env.Confirm == nil {
		s.env.Confirm = prompter.Confirm
	}
	if s.choose == nil {
		s.choose = prompter.Choose
	}

	s.registry = registry.New(
		registry.WithNamespace(s),
		registry.WithChooser(s.choose),
		registry.WithEnvironment(s.env),
		registry.WithConversationOptions(s.conversationOptions()...),
	)
	return s
}

func (s *Session) conversationOptions() []conversation.Option {
	ret := []conversation.Option{conversation.WithStyler(s.colors)}
	if s.formatter != nil {
		ret = append(ret, conversation.WithFormatter(s.formatter))
	}
	return append(ret, s.options...)
}

func (s *Session) Registry() *registry.Registry {
	return s.registry
}

// Has reports whether name is a builtin or a variable.
func (s *Session) Has(name string) bool {
	if _, ok := s.vars[name]; ok {
		return true
	}
	for _, b := range builtins {
		if b == name {
			return true
		}
	}
	return false
}

// Run reads lines until exit or end of input. Errors of single commands are
// printed and do not stop the loop.
func (s *Session) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprint(s.out, s.prompt)
		line, readErr := s.in.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return errors.Wrap(readErr, "could not read input")
		}
		if line == "" && readErr == io.EOF {
			fmt.Fprintln(s.out)
			return nil
		}

		exit, err := s.Execute(ctx, strings.TrimRight(line, "\r\n"))
		if err != nil {
			s.PrintError(err)
		}
		if exit || readErr == io.EOF {
			return nil
		}
	}
}

func (s *Session) PrintError(err error) {
	log.Debug().Err(err).Msg("command failed")
	fmt.Fprintln(s.errOut, s.colors.Error(err.Error()))
}

// Execute runs a single line. It returns true when the line asks the shell
// to exit.
func (s *Session) Execute(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false, nil
	}

	args, err := shellwords.Parse(line)
	if err != nil {
		return false, errors.Wrap(err, "could not parse line")
	}
	if len(args) == 0 {
		return false, nil
	}

	switch args[0] {
	case "exit", "quit":
		return true, nil
	case "help":
		fmt.Fprintln(s.out, s.Tutorial())
		return false, nil
	case "chatgpt":
		return false, s.oneOff(ctx, args[1:])
	case "chat-manager", "cm":
		return false, s.runManager(ctx, args[1:])
	case "del":
		return false, s.del(args[1:])
	case "with":
		return false, s.with(ctx, args[1:])
	case "set":
		return false, s.set(args[1:])
	case "unset":
		for _, name := range args[1:] {
			delete(s.vars, name)
		}
		return false, nil
	case "vars":
		s.printVars()
		return false, nil
	}

	if c, ok := s.registry.Get(args[0]); ok {
		return false, s.runChat(ctx, c, args[1:])
	}
	if v, ok := s.vars[args[0]]; ok && len(args) == 1 {
		fmt.Fprintln(s.out, v)
		return false, nil
	}
	return false, errors.Errorf("unknown command: %s", args[0])
}

func (s *Session) set(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: set NAME [VALUE...]")
	}
	name := args[0]
	if _, ok := s.registry.Get(name); ok {
		return &conversation.NameCollisionError{Name: name}
	}
	for _, b := range builtins {
		if b == name {
			return &conversation.NameCollisionError{Name: name, Variable: true}
		}
	}
	s.vars[name] = strings.Join(args[1:], " ")
	return nil
}

func (s *Session) printVars() {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(s.out, "%s=%s\n", name, s.vars[name])
	}
}

// del releases chats and removes variables.
func (s *Session) del(names []string) error {
	if len(names) == 0 {
		return errors.New("usage: del NAME...")
	}
	for _, name := range names {
		if _, ok := s.vars[name]; ok {
			delete(s.vars, name)
			continue
		}
		if err := s.registry.Release(name); err != nil {
			return err
		}
	}
	return nil
}

// with reads a block of lines up to a line holding only "end" and sends it,
// dedented, to the named chat or to the current one.
func (s *Session) with(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return errors.New("usage: with [NAME]")
	}

	lines := []string{}
	for {
		fmt.Fprint(s.out, ContinuationPrompt)
		line, err := s.in.ReadString('\n')
		if err != nil && err != io.EOF {
			return errors.Wrap(err, "could not read block")
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(trimmed) == blockEnd {
			break
		}
		lines = append(lines, trimmed)
		if err == io.EOF {
			break
		}
	}

	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	c, err := s.registry.Resolve(name)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(transcript.Dedent(strings.Join(lines, "\n")))
	if text == "" {
		return nil
	}
	return s.send(ctx, c, text)
}

func (s *Session) send(ctx context.Context, c *conversation.Conversation, text string) error {
	reply, err := c.Send(ctx, text)
	if err != nil {
		return err
	}
	s.printReply(reply)
	return nil
}

// printReply shows the assistant header followed by the formatted reply,
// indented.
func (s *Session) printReply(reply string) {
	formatted := reply
	if s.formatter != nil {
		f, err := s.formatter.Format(reply)
		if err != nil {
			log.Warn().Err(err).Msg("could not format reply")
		} else {
			formatted = f
		}
	}
	fmt.Fprintf(s.out, "\n%s\n\n%s\n", s.colors.Assistant(transcript.AssistantHeader), transcript.Indent(formatted, transcript.Margin))
}

// oneOff sends through a conversation that is not registered and is
// discarded afterwards.
func (s *Session) oneOff(ctx context.Context, args []string) error {
	options := append([]conversation.Option{conversation.WithEnvironment(s.env)}, s.conversationOptions()...)
	c, err := conversation.New(options...)
	if err != nil {
		return err
	}
	defer c.Close()
	return s.runChat(ctx, c, args)
}
