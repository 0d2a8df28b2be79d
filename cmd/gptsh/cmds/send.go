package cmds

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-go-golems/gptsh/pkg/conversation"
	"github.com/go-go-golems/gptsh/pkg/transcript"
	"github.com/go-go-golems/gptsh/pkg/ui"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// isPiped reports whether r is not an interactive terminal.
func isPiped(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return true
	}
	return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
}

// NewSendCommand sends a single message through a conversation that is not
// kept, optionally saving the exchange.
func NewSendCommand() *cobra.Command {
	var (
		save bool
		name string
		mode string
	)

	cmd := &cobra.Command{
		Use:   "send [text...]",
		Short: "Send a single message to ChatGPT, text is read from stdin when no argument is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "" && isPiped(cmd.InOrStdin()) {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return errors.Wrap(err, "could not read stdin")
				}
				text = string(b)
			}
			text = strings.TrimSpace(text)
			if text == "" {
				return errors.New("nothing to send")
			}

			out := cmd.OutOrStdout()
			app, err := NewApp(out, ui.ConfirmOnTTY)
			if err != nil {
				return err
			}

			c, err := conversation.New(append(app.ConversationOptions(), conversation.WithEnvironment(app.Env))...)
			if err != nil {
				return err
			}
			defer c.Close()

			reply, err := c.Send(cmd.Context(), text)
			if err != nil {
				return err
			}

			formatted := reply
			if app.Formatter != nil {
				if f, err := app.Formatter.Format(reply); err == nil {
					formatted = f
				}
			}
			fmt.Fprintf(out, "\n%s\n\n%s\n", app.Colors.Assistant(transcript.AssistantHeader), transcript.Indent(formatted, transcript.Margin))

			if save {
				p, err := c.SaveTranscript(conversation.SaveOptions{Name: name, Mode: mode})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Conversation saved to: %s\n", p)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&save, "save", "s", false, "Save the exchange to the data directory")
	cmd.Flags().StringVar(&name, "name", "", "Name used in the file name of the saved exchange")
	cmd.Flags().StringVarP(&mode, "type", "t", conversation.SaveText,
		"Type of the saved file ("+strings.Join(conversation.SaveModes, ", ")+")")
	return cmd
}
