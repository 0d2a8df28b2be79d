package cmds

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	glazed_cmds "github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	glazed_settings "github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/go-go-golems/gptsh/pkg/chatdir"
	"github.com/go-go-golems/gptsh/pkg/conversation"
	"github.com/go-go-golems/gptsh/pkg/registry"
	"github.com/go-go-golems/gptsh/pkg/ui"
	"github.com/spf13/cobra"
)

func NewPrintCommand() *cobra.Command {
	var (
		n    int
		mode string
	)

	cmd := &cobra.Command{
		Use:   "print NAME|PATH",
		Short: "Print a saved chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			app, err := NewApp(out, ui.ConfirmOnTTY)
			if err != nil {
				return err
			}

			r := registry.New(
				registry.WithEnvironment(app.Env),
				registry.WithChooser(ui.ChooseOnTTY),
				registry.WithConversationOptions(app.ConversationOptions()...),
			)
			res, err := r.Load(args[0])
			if err != nil {
				return err
			}
			defer res.Conversation.Close()

			if mode == "" {
				mode = app.PrintMode(out)
			}
			s, err := res.Conversation.PrintTranscript(n, mode)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, s)
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "n", "n", 0, "Number of messages to print, 0 for all in scope")
	cmd.Flags().StringVarP(&mode, "mode", "m", "",
		"Print mode ("+strings.Join(conversation.PrintModes, ", ")+"), color when printing to a terminal")
	return cmd
}

type ListCommand struct {
	*glazed_cmds.CommandDescription
}

var _ glazed_cmds.GlazeCommand = (*ListCommand)(nil)

func NewListCommand() (*ListCommand, error) {
	glazedLayer, err := glazed_settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, err
	}
	return &ListCommand{
		CommandDescription: glazed_cmds.NewCommandDescription(
			"list",
			glazed_cmds.WithShort("List the chats saved in the data directory"),
			glazed_cmds.WithLayersList(glazedLayer),
		),
	}, nil
}

func (c *ListCommand) RunIntoGlazeProcessor(ctx context.Context, parsedLayers *layers.ParsedLayers, gp middlewares.Processor) error {
	app, err := NewApp(io.Discard, nil)
	if err != nil {
		return err
	}
	rows, err := savedChatRows(app.Env)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// savedChatRows has one row per saved chat: the chat name, the file name and
// its full path.
func savedChatRows(env conversation.Environment) ([]types.Row, error) {
	files, err := chatdir.ListSaved(env.Fs, env.DataDir)
	if err != nil {
		return nil, err
	}
	rows := make([]types.Row, 0, len(files))
	for _, f := range files {
		rows = append(rows, types.NewRow(
			types.MRP("name", chatdir.NameFromFilename(f)),
			types.MRP("file", f),
			types.MRP("path", filepath.Join(chatdir.Dir(env.DataDir), f)),
		))
	}
	return rows, nil
}
