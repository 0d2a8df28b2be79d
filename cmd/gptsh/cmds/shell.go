package cmds

import (
	"github.com/go-go-golems/glazed/pkg/help"
	"github.com/go-go-golems/gptsh/pkg/shell"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewShellCommand starts the interactive shell. Its help builtin reads the
// tutorial from helpSystem.
func NewShellCommand(helpSystem *help.HelpSystem) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive shell to manage and talk to several chats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			// confirm and choose prompt on the shell input
			app, err := NewApp(out, nil)
			if err != nil {
				return err
			}

			options := []shell.Option{
				shell.WithEnvironment(app.Env),
				shell.WithConversationOptions(app.ConversationOptions()...),
				shell.WithColorizer(app.Colors),
				shell.WithErrorWriter(cmd.ErrOrStderr()),
				shell.WithPrompt(app.Settings.Prompt),
			}
			if helpSystem != nil {
				options = append(options, shell.WithHelpSystem(helpSystem))
			}
			if app.Formatter != nil {
				options = append(options, shell.WithFormatter(app.Formatter))
			}
			s := shell.New(cmd.InOrStdin(), out, options...)

			log.Debug().Str("data_dir", app.Env.DataDir).Str("model", app.Settings.ChatModel).Msg("starting shell")
			return s.Run(cmd.Context())
		},
	}

	cmd.Flags().String("prompt", "", "Prompt of the shell (default \""+shell.DefaultPrompt+"\")")
	cobra.CheckErr(viper.BindPFlag("prompt", cmd.Flags().Lookup("prompt")))
	return cmd
}
