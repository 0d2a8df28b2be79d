// Package ui asks the interactive questions of gptsh: overwrite
// confirmation and choosing among saved chats.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/tcnksm/go-input"
)

type Prompter struct {
	ui *input.UI
}

// NewPrompter asks on w and reads answers from r. Passing a *bufio.Reader
// shares its buffer with the prompter.
func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{ui: &input.UI{Reader: r, Writer: w}}
}

// NewTTYPrompter prompts on the controlling terminal. The returned closer
// releases it.
func NewTTYPrompter() (*Prompter, io.Closer, error) {
	tty, err := OpenTTY()
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not open terminal")
	}
	return NewPrompter(tty, tty), tty, nil
}

// Confirm asks a [Y/n] question. Anything but n or N accepts.
func (p *Prompter) Confirm(question string) (bool, error) {
	answer, err := p.ui.Ask(question, &input.Options{
		Default:     "y",
		HideDefault: true,
		Loop:        true,
		ValidateFunc: func(answer string) error {
			switch strings.ToLower(strings.TrimSpace(answer)) {
			case "y", "yes", "n", "no", "":
				return nil
			default:
				return fmt.Errorf("please enter 'y' or 'n'")
			}
		},
	})
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "n", "no":
		return false, nil
	}
	return true, nil
}

// Choose lists choices numbered from 1 and returns the number entered.
func (p *Prompter) Choose(prompt string, choices []string) (int, error) {
	if len(choices) == 0 {
		return 0, errors.New("nothing to choose from")
	}
	answer, err := p.ui.Select(prompt, choices, &input.Options{
		Loop: true,
	})
	if err != nil {
		return 0, err
	}
	for i, c := range choices {
		if c == answer {
			return i + 1, nil
		}
	}
	return 0, errors.Errorf("unexpected choice: %s", answer)
}

// ConfirmOnTTY opens the terminal for a single Confirm.
func ConfirmOnTTY(question string) (bool, error) {
	p, closer, err := NewTTYPrompter()
	if err != nil {
		return false, err
	}
	defer closer.Close()
	return p.Confirm(question)
}

// ChooseOnTTY opens the terminal for a single Choose.
func ChooseOnTTY(prompt string, choices []string) (int, error) {
	p, closer, err := NewTTYPrompter()
	if err != nil {
		return 0, err
	}
	defer closer.Close()
	return p.Choose(prompt, choices)
}
