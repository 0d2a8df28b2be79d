// Package cmds holds the subcommands of the gptsh binary.
package cmds

import (
	"io"

	"github.com/go-go-golems/gptsh/pkg/client/openai"
	"github.com/go-go-golems/gptsh/pkg/conversation"
	"github.com/go-go-golems/gptsh/pkg/render"
	"github.com/go-go-golems/gptsh/pkg/settings"
	"github.com/go-go-golems/gptsh/pkg/tokens"
	"github.com/go-go-golems/gptsh/pkg/transcript"
	"github.com/spf13/viper"
)

// App is what every subcommand needs to build conversations from the
// loaded settings.
type App struct {
	Settings  *settings.Settings
	Env       conversation.Environment
	Colors    *render.Colorizer
	Formatter transcript.Formatter
}

// NewApp loads the settings from viper. Colors and markdown formatting are
// only enabled when out is a terminal.
func NewApp(out io.Writer, confirm conversation.ConfirmFunc) (*App, error) {
	s, err := settings.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	app := &App{
		Settings: s,
		Env:      s.Environment(confirm),
		Colors:   render.ForWriter(out),
	}
	if render.IsTerminal(out) {
		app.Formatter, err = render.NewFormatter(render.Renderer(s.MarkdownRenderer), s.GlamourStyle)
		if err != nil {
			return nil, err
		}
	}
	return app, nil
}

// ConversationOptions configures the remote client, the tokenizer and the
// presentation of conversations. The environment is not part of it, callers
// pass it along with their own confirm function.
func (a *App) ConversationOptions() []conversation.Option {
	s := a.Settings
	accountant := tokens.NewAccountant(tokens.NewLazyTokenizer(func() (tokens.Tokenizer, error) {
		return tokens.NewTokenizer(tokens.Backend(s.TokenBackend), s.ChatModel)
	}))

	ret := []conversation.Option{
		conversation.WithClient(openai.NewClient(s.OpenAIAPIKey, s.OpenAIBaseURL)),
		conversation.WithModel(s.ChatModel),
		conversation.WithMaxTokens(s.MaxTokens),
		conversation.WithAccountant(accountant),
		conversation.WithStyler(a.Colors),
	}
	if a.Formatter != nil {
		ret = append(ret, conversation.WithFormatter(a.Formatter))
	}
	return ret
}

// PrintMode is the default print mode for out.
func (a *App) PrintMode(out io.Writer) string {
	if render.IsTerminal(out) {
		return conversation.PrintColor
	}
	return conversation.PrintNoColor
}
