// Package registry indexes the live managed conversations by identity, tracks
// the current one and dispatches the multi-conversation commands (add, list,
// load, save, print, edit) to the right conversation.
package registry

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-go-golems/gptsh/pkg/chatdir"
	"github.com/go-go-golems/gptsh/pkg/conversation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Namespace is the set of names already bound by the host shell. A chat can
// not be created under one of them.
type Namespace interface {
	Has(name string) bool
}

// ChooseFunc presents choices and returns the 1-based number picked.
type ChooseFunc func(prompt string, choices []string) (int, error)

type entry struct {
	label string
	conv  *conversation.Conversation
}

// Registry implements conversation.Observer. It never changes a conversation
// itself, and never holds its lock while calling into one, since
// conversations call back into the registry.
type Registry struct {
	mu      sync.RWMutex
	entries map[uint64]*entry
	active  uint64

	namespace Namespace
	choose    ChooseFunc
	env       conversation.Environment
	options   []conversation.Option
}

var _ conversation.Observer = (*Registry)(nil)

type Option func(*Registry)

func WithNamespace(ns Namespace) Option {
	return func(r *Registry) {
		r.namespace = ns
	}
}

func WithChooser(choose ChooseFunc) Option {
	return func(r *Registry) {
		r.choose = choose
	}
}

// WithEnvironment sets where saved chats are looked up. It is also passed to
// every conversation the registry creates.
func WithEnvironment(env conversation.Environment) Option {
	return func(r *Registry) {
		r.env = env
	}
}

// WithConversationOptions are applied to every conversation created or
// loaded by the registry.
func WithConversationOptions(options ...conversation.Option) Option {
	return func(r *Registry) {
		r.options = append(r.options, options...)
	}
}

func New(options ...Option) *Registry {
	r := &Registry{
		entries: map[uint64]*entry{},
		env:     conversation.DefaultEnvironment(),
	}
	for _, o := range options {
		o(r)
	}
	if r.env.Fs == nil {
		r.env.Fs = afero.NewOsFs()
	}
	return r
}

func (r *Registry) conversationOptions(label string) []conversation.Option {
	ret := []conversation.Option{conversation.WithEnvironment(r.env)}
	ret = append(ret, r.options...)
	return append(ret, conversation.WithLabel(label), conversation.WithObserver(r))
}

func (r *Registry) OnCreate(c *conversation.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.index(c)
	r.active = c.ID()
}

func (r *Registry) OnDestroy(c *conversation.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, c.ID())
	if r.active == c.ID() {
		r.active = 0
	}
	log.Debug().Uint64("conversation_id", c.ID()).Str("label", c.Label()).Msg("released conversation")
}

// OnUsed marks c as current. A conversation that was not indexed yet gets an
// entry.
func (r *Registry) OnUsed(c *conversation.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[c.ID()]; !ok {
		r.index(c)
	}
	r.active = c.ID()
}

func (r *Registry) index(c *conversation.Conversation) {
	e, ok := r.entries[c.ID()]
	if !ok {
		e = &entry{}
		r.entries[c.ID()] = e
	}
	e.conv = c
	if c.Label() != "" {
		e.label = c.Label()
	}
}

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]*$`)

// Create makes a new managed conversation named label, which becomes the
// current one.
func (r *Registry) Create(label string) (*conversation.Conversation, error) {
	if !validName.MatchString(label) {
		return nil, &conversation.InvalidNameError{Name: label}
	}
	if r.hasLabel(label) {
		return nil, &conversation.NameCollisionError{Name: label}
	}
	if r.namespace != nil && r.namespace.Has(label) {
		return nil, &conversation.NameCollisionError{Name: label, Variable: true}
	}

	return conversation.New(r.conversationOptions(label)...)
}

func (r *Registry) hasLabel(label string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.label == label {
			return true
		}
	}
	return false
}

// Get returns the live conversation named label.
func (r *Registry) Get(label string) (*conversation.Conversation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.label == label {
			return e.conv, true
		}
	}
	return nil, false
}

// Resolve returns the conversation named label, or the current one when
// label is empty.
func (r *Registry) Resolve(label string) (*conversation.Conversation, error) {
	if label != "" {
		c, ok := r.Get(label)
		if !ok {
			return nil, &conversation.NoActiveConversationError{Name: label}
		}
		return c, nil
	}
	return r.Current()
}

func (r *Registry) Current() (*conversation.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[r.active]
	if !ok || r.active == 0 {
		return nil, &conversation.NoActiveConversationError{}
	}
	return e.conv, nil
}

// Names returns the labels of the live conversations in creation order.
func (r *Registry) Names() []string {
	ret := []string{}
	for _, e := range r.sortedEntries() {
		if e.label != "" {
			ret = append(ret, e.label)
		}
	}
	return ret
}

func (r *Registry) sortedEntries() []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uint64, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	ret := make([]entry, 0, len(ids))
	for _, id := range ids {
		ret = append(ret, *r.entries[id])
	}
	return ret
}

// Release closes the conversation named label, removing it from the
// registry.
func (r *Registry) Release(label string) error {
	c, ok := r.Get(label)
	if !ok {
		return &conversation.NoActiveConversationError{Name: label}
	}
	c.Close()
	return nil
}

type LoadResult struct {
	Conversation *conversation.Conversation
	Label        string
	Path         string
	// Requested is the name found in the file name when it had to be
	// suffixed to avoid a collision.
	Requested string
}

func (l *LoadResult) String() string {
	ret := ""
	if l.Requested != "" {
		ret = fmt.Sprintf("Chat with name %s already loaded. Updating to %s\n", l.Requested, l.Label)
	}
	return ret + fmt.Sprintf("Loaded chat %s from %s", l.Label, l.Path)
}

// Load loads a saved conversation from a file path or from a chat name found
// in the default directory. Several saved files with that name are resolved
// with the chooser. If the name is taken, the smallest free name+N, N >= 0,
// is used instead.
func (r *Registry) Load(pathOrName string) (*LoadResult, error) {
	path, name, err := r.findSaved(pathOrName)
	if err != nil {
		return nil, err
	}

	label := name
	requested := ""
	if r.taken(label) {
		idx := 0
		for r.taken(label + strconv.Itoa(idx)) {
			idx++
		}
		requested = label
		label = label + strconv.Itoa(idx)
	}

	c, err := conversation.LoadFromTranscript(path, r.conversationOptions(label)...)
	if err != nil {
		return nil, err
	}

	return &LoadResult{Conversation: c, Label: label, Path: path, Requested: requested}, nil
}

func (r *Registry) taken(label string) bool {
	return r.hasLabel(label) || (r.namespace != nil && r.namespace.Has(label))
}

func (r *Registry) findSaved(pathOrName string) (string, string, error) {
	if info, err := r.env.Fs.Stat(pathOrName); err == nil && info.Mode().IsRegular() {
		return pathOrName, chatdir.NameFromFilename(pathOrName), nil
	}

	candidates, err := chatdir.FindByName(r.env.Fs, r.env.DataDir, pathOrName)
	if err != nil {
		return "", "", err
	}

	switch len(candidates) {
	case 0:
		return "", "", &conversation.FileNotFoundError{Path: pathOrName}
	case 1:
		return candidates[0].Path, candidates[0].Name, nil
	}

	files := make([]string, len(candidates))
	for i, c := range candidates {
		files[i] = c.File
	}
	if r.choose == nil {
		return "", "", &conversation.AmbiguityError{Name: pathOrName, Candidates: files}
	}
	choice, err := r.choose("Multiple choices found, please choose from:", files)
	if err != nil {
		return "", "", &conversation.AmbiguityError{Name: pathOrName, Candidates: files, Err: err}
	}
	if choice < 1 || choice > len(candidates) {
		return "", "", &conversation.AmbiguityError{
			Name:       pathOrName,
			Candidates: files,
			Err:        fmt.Errorf("choice %d out of range 1 - %d", choice, len(candidates)),
		}
	}
	c := candidates[choice-1]
	return c.Path, c.Name, nil
}

// Save saves the conversation named label, or the current one, to its
// default path.
func (r *Registry) Save(label string, mode string) (string, error) {
	c, err := r.Resolve(label)
	if err != nil {
		return "", err
	}
	return c.SaveTranscript(conversation.SaveOptions{Mode: mode})
}

func (r *Registry) Print(label string, n int, mode string) (string, error) {
	c, err := r.Resolve(label)
	if err != nil {
		return "", err
	}
	return c.PrintTranscript(n, mode)
}

// Edit replaces the system messages of a conversation with the ones parsed
// from messages.
func (r *Registry) Edit(label string, messages string, replace bool) error {
	c, err := r.Resolve(label)
	if err != nil {
		return err
	}
	msgs, err := conversation.ParseSystemMessages(messages)
	if err != nil {
		return err
	}
	return c.EditBase(msgs, replace)
}

func (r *Registry) ListSaved() ([]string, error) {
	return chatdir.ListSaved(r.env.Fs, r.env.DataDir)
}

// ListActive returns the stats of every live conversation, separated by
// blank lines.
func (r *Registry) ListActive() string {
	entries := r.sortedEntries()
	if len(entries) == 0 {
		return "No active chats."
	}
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, e.conv.StatsString())
	}
	return strings.Join(blocks, "\n\n")
}
