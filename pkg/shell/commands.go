package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-go-golems/gptsh/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (s *Session) execute(ctx context.Context, cmd *cobra.Command, args []string) error {
	cmd.SetArgs(args)
	cmd.SetIn(s.in)
	cmd.SetOut(s.out)
	cmd.SetErr(s.errOut)
	return cmd.ExecuteContext(ctx)
}

func (s *Session) runChat(ctx context.Context, c *conversation.Conversation, args []string) error {
	return s.execute(ctx, s.newChatCommand(c), args)
}

func (s *Session) runManager(ctx context.Context, args []string) error {
	return s.execute(ctx, s.newManagerCommand(), args)
}

func chatUse(c *conversation.Conversation) string {
	if c == nil || c.Label() == "" {
		return "chatgpt [text...]"
	}
	return c.Label() + " [text...]"
}

// newChatCommand parses the arguments given to a chat: text to send, or
// --print / --save. Flags have to come before the text. c is nil when the
// command is only built for its help.
func (s *Session) newChatCommand(c *conversation.Conversation) *cobra.Command {
	var (
		printConv bool
		n         int
		mode      string
		save      bool
		path      string
		name      string
		fileType  string
	)

	cmd := &cobra.Command{
		Use:           chatUse(c),
		Short:         "Chat with OpenAI's ChatGPT from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case printConv:
				out, err := c.PrintTranscript(n, mode)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil

			case save:
				p, err := c.SaveTranscript(conversation.SaveOptions{Path: path, Name: name, Mode: fileType})
				if err != nil {
					return err
				}
				if p != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Conversation saved to: %s\n", p)
				}
				return nil
			}

			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return nil
			}
			return s.send(cmd.Context(), c, text)
		},
	}
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().BoolVarP(&printConv, "print", "p", false, "Prints the conversation")
	cmd.Flags().IntVarP(&n, "n", "n", 10, "Number of messages to print, 0 for all in scope")
	cmd.Flags().StringVarP(&mode, "mode", "m", conversation.PrintColor,
		"Print mode ("+strings.Join(conversation.PrintModes, ", ")+")")
	cmd.Flags().BoolVarP(&save, "save", "s", false, "Saves the conversation")
	cmd.Flags().StringVarP(&path, "path", "P", "", "File path to save the conversation to, defaults to the data directory")
	cmd.Flags().StringVar(&name, "name", "", "Name used in the file name, ignored when --path is given")
	cmd.Flags().StringVarP(&fileType, "type", "t", conversation.SaveText,
		"Type of the saved file ("+strings.Join(conversation.SaveModes, ", ")+")")

	return cmd
}

func optionalName(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// newManagerCommand builds the chat-manager tree: add, list, load, save,
// print, edit and help.
func (s *Session) newManagerCommand() *cobra.Command {
	var current bool

	root := &cobra.Command{
		Use:           "chat-manager",
		Short:         "Manage multiple chats",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !current {
				return cmd.Help()
			}
			c, err := s.registry.Current()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.StatsString())
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolVarP(&current, "current", "C", false, "Print information on the current chat and exit")

	root.AddCommand(&cobra.Command{
		Use:     "add NAME",
		Aliases: []string{"a", "create"},
		Short:   "Create a chat",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := s.registry.Create(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created new chat %s\n", args[0])
			return nil
		},
	})

	var saved bool
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the active chats, or the saved ones",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !saved {
				fmt.Fprintln(cmd.OutOrStdout(), s.registry.ListActive())
				return nil
			}
			files, err := s.registry.ListSaved()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.colors.Bold("Saved chats:"))
			for _, f := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", f)
			}
			return nil
		},
	}
	list.Flags().BoolVarP(&saved, "saved", "s", false, "List the chats saved in the data directory")
	root.AddCommand(list)

	root.AddCommand(&cobra.Command{
		Use:   "load NAME|PATH",
		Short: "Load a saved chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := s.registry.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.String())
			return nil
		},
	})

	var saveMode string
	saveCmd := &cobra.Command{
		Use:   "save [NAME]",
		Short: "Save a chat, the current one by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := s.registry.Save(optionalName(args), saveMode)
			if err != nil {
				return err
			}
			if p != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Conversation saved to: %s\n", p)
			}
			return nil
		},
	}
	saveCmd.Flags().StringVarP(&saveMode, "mode", "m", conversation.SaveText,
		"Type of the saved file ("+strings.Join(conversation.SaveModes, ", ")+")")
	root.AddCommand(saveCmd)

	var (
		printN    int
		printMode string
	)
	printCmd := &cobra.Command{
		Use:     "print [NAME]",
		Aliases: []string{"p"},
		Short:   "Print a chat, the current one by default",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := s.registry.Print(optionalName(args), printN, printMode)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	printCmd.Flags().IntVarP(&printN, "n", "n", 10, "Number of messages to print, 0 for all in scope")
	printCmd.Flags().StringVarP(&printMode, "mode", "m", conversation.PrintColor,
		"Print mode ("+strings.Join(conversation.PrintModes, ", ")+")")
	root.AddCommand(printCmd)

	var (
		systemMessages string
		replace        bool
	)
	editCmd := &cobra.Command{
		Use:   "edit [NAME]",
		Short: "Replace the system messages of a chat",
		Long: "Replace the system messages of a chat, the current one by default.\n" +
			"The messages are given as JSON or YAML, a list or a single object with a content field.\n" +
			"The default system message is kept in front unless --replace is given.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if systemMessages == "" {
				return errors.New("no system messages given, use --system")
			}
			name := optionalName(args)
			if err := s.registry.Edit(name, systemMessages, replace); err != nil {
				return err
			}
			c, err := s.registry.Resolve(name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.StatsString())
			return nil
		},
	}
	editCmd.Flags().StringVarP(&systemMessages, "system", "s", "", "System messages as JSON or YAML")
	editCmd.Flags().BoolVar(&replace, "replace", false, "Drop the default system message")
	root.AddCommand(editCmd)

	root.SetHelpCommand(&cobra.Command{
		Use:   "help [TARGET]",
		Short: "Print the tutorial, or the help of a command",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := optionalName(args)
			if target == "" {
				fmt.Fprintln(cmd.OutOrStdout(), s.Tutorial())
				return nil
			}
			if target == "chat" || target == "chatgpt" {
				chat := s.newChatCommand(nil)
				chat.SetOut(cmd.OutOrStdout())
				return chat.Help()
			}
			sub, _, err := root.Find([]string{target})
			if err != nil || sub == root {
				return root.Help()
			}
			return sub.Help()
		},
	})

	return root
}
