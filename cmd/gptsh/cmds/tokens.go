package cmds

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-go-golems/glazed/pkg/cli"
	glazed_cmds "github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/gptsh/pkg/conversation"
	"github.com/go-go-golems/gptsh/pkg/tokens"
	"github.com/go-go-golems/gptsh/pkg/transcript"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func NewTokensCommand() (*cobra.Command, error) {
	tokensCmd := &cobra.Command{
		Use:   "tokens",
		Short: "Count tokens",
	}

	countCmd, err := NewCountCommand()
	if err != nil {
		return nil, err
	}
	countCobra, err := cli.BuildCobraCommandFromWriterCommand(countCmd)
	if err != nil {
		return nil, err
	}

	transcriptCmd, err := NewTranscriptTokensCommand()
	if err != nil {
		return nil, err
	}
	transcriptCobra, err := cli.BuildCobraCommandFromWriterCommand(transcriptCmd)
	if err != nil {
		return nil, err
	}

	tokensCmd.AddCommand(countCobra, transcriptCobra)
	return tokensCmd, nil
}

type CountSettings struct {
	Model string   `glazed.parameter:"model"`
	Codec string   `glazed.parameter:"codec"`
	Files []string `glazed.parameter:"files"`
}

type CountCommand struct {
	*glazed_cmds.CommandDescription
	stdin io.Reader
	fs    afero.Fs
}

var _ glazed_cmds.WriterCommand = (*CountCommand)(nil)

func NewCountCommand() (*CountCommand, error) {
	return &CountCommand{
		CommandDescription: glazed_cmds.NewCommandDescription(
			"count",
			glazed_cmds.WithShort("Count the tokens of raw text using a specific model and encoding"),
			glazed_cmds.WithLong("Count the tokens of the given files, or of stdin when no file is given."),
			glazed_cmds.WithFlags(
				parameters.NewParameterDefinition(
					"model",
					parameters.ParameterTypeString,
					parameters.WithHelp("Model used for encoding"),
					parameters.WithDefault(conversation.DefaultModel),
				),
				parameters.NewParameterDefinition(
					"codec",
					parameters.ParameterTypeString,
					parameters.WithHelp("Codec used for encoding, derived from the model by default"),
					parameters.WithDefault(""),
				),
			),
			glazed_cmds.WithArguments(
				parameters.NewParameterDefinition(
					"files",
					parameters.ParameterTypeStringList,
					parameters.WithHelp("Input files"),
				),
			),
		),
		stdin: os.Stdin,
		fs:    afero.NewOsFs(),
	}, nil
}

func (c *CountCommand) RunIntoWriter(ctx context.Context, parsedLayers *layers.ParsedLayers, w io.Writer) error {
	s := &CountSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, s); err != nil {
		return errors.Wrap(err, "could not initialize settings")
	}
	return c.count(w, s)
}

func (c *CountCommand) readInputs(files []string) (string, error) {
	if len(files) == 0 {
		b, err := io.ReadAll(c.stdin)
		if err != nil {
			return "", errors.Wrap(err, "could not read stdin")
		}
		return string(b), nil
	}
	var sb strings.Builder
	for _, f := range files {
		b, err := afero.ReadFile(c.fs, f)
		if err != nil {
			return "", errors.Wrapf(err, "could not read %s", f)
		}
		sb.Write(b)
	}
	return sb.String(), nil
}

func (c *CountCommand) count(w io.Writer, s *CountSettings) error {
	input, err := c.readInputs(s.Files)
	if err != nil {
		return err
	}
	encoding := s.Codec
	if encoding == "" {
		encoding = tokens.DefaultEncoding(s.Model)
	}
	codec, err := tokens.NewCodec(s.Model, encoding)
	if err != nil {
		return err
	}
	ids, _, err := codec.Encode(input)
	if err != nil {
		return errors.Wrap(err, "error encoding input")
	}

	fmt.Fprintf(w, "Model: %s\n", s.Model)
	fmt.Fprintf(w, "Codec: %s\n", encoding)
	fmt.Fprintf(w, "Total tokens used: %d\n", len(ids))
	return nil
}

type TranscriptTokensSettings struct {
	Model   string `glazed.parameter:"model"`
	Backend string `glazed.parameter:"backend"`
	File    string `glazed.parameter:"file"`
}

// TranscriptTokensCommand shows what each message of a saved transcript
// costs in a request.
type TranscriptTokensCommand struct {
	*glazed_cmds.CommandDescription
	fs afero.Fs
}

var _ glazed_cmds.WriterCommand = (*TranscriptTokensCommand)(nil)

func NewTranscriptTokensCommand() (*TranscriptTokensCommand, error) {
	return &TranscriptTokensCommand{
		CommandDescription: glazed_cmds.NewCommandDescription(
			"transcript",
			glazed_cmds.WithShort("Count the tokens of each message of a saved chat"),
			glazed_cmds.WithFlags(
				parameters.NewParameterDefinition(
					"model",
					parameters.ParameterTypeString,
					parameters.WithHelp("Model used for encoding"),
					parameters.WithDefault(conversation.DefaultModel),
				),
				parameters.NewParameterDefinition(
					"backend",
					parameters.ParameterTypeChoice,
					parameters.WithHelp("Tokenizer backend"),
					parameters.WithChoices([]string{string(tokens.BackendTokenizer), string(tokens.BackendWeaviate)}...),
					parameters.WithDefault(string(tokens.BackendTokenizer)),
				),
			),
			glazed_cmds.WithArguments(
				parameters.NewParameterDefinition(
					"file",
					parameters.ParameterTypeString,
					parameters.WithHelp("Saved chat, json or text"),
					parameters.WithRequired(true),
				),
			),
		),
		fs: afero.NewOsFs(),
	}, nil
}

func (c *TranscriptTokensCommand) RunIntoWriter(ctx context.Context, parsedLayers *layers.ParsedLayers, w io.Writer) error {
	s := &TranscriptTokensSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, s); err != nil {
		return errors.Wrap(err, "could not initialize settings")
	}
	return c.count(w, s)
}

func (c *TranscriptTokensCommand) count(w io.Writer, s *TranscriptTokensSettings) error {
	b, err := afero.ReadFile(c.fs, s.File)
	if err != nil {
		return errors.Wrapf(err, "could not read %s", s.File)
	}
	history, base := transcript.Decode(string(b))
	messages := transcript.Concat(base, history)

	tokenizer, err := tokens.NewTokenizer(tokens.Backend(s.Backend), s.Model)
	if err != nil {
		return err
	}
	counts, err := tokens.NewAccountant(tokenizer).CountTokens(messages)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "framing\t%d\n", counts[0])
	for i, m := range messages {
		fmt.Fprintf(w, "%d\t%s\t%d\n", i+1, m.Role, counts[i+1])
	}
	fmt.Fprintf(w, "total\t%d\n", tokens.Sum(counts))
	return nil
}
