// Package settings reads the configuration of gptsh from flags, environment
// and config file through viper.
package settings

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-go-golems/gptsh/pkg/conversation"
	"github.com/go-go-golems/gptsh/pkg/render"
	"github.com/go-go-golems/gptsh/pkg/shell"
	"github.com/go-go-golems/gptsh/pkg/tokens"
	"github.com/go-go-golems/gptsh/pkg/transcript"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "gptsh"

type Settings struct {
	OpenAIAPIKey     string `mapstructure:"openai-api-key"`
	OpenAIBaseURL    string `mapstructure:"openai-base-url"`
	ChatModel        string `mapstructure:"chat-model"`
	User             string `mapstructure:"user"`
	DataDir          string `mapstructure:"data-dir"`
	MaxTokens        int    `mapstructure:"max-tokens"`
	TokenBackend     string `mapstructure:"token-backend"`
	MarkdownRenderer string `mapstructure:"markdown-renderer"`
	GlamourStyle     string `mapstructure:"glamour-style"`
	Prompt           string `mapstructure:"prompt"`
}

// AddFlags registers the settings as persistent flags. Defaults are set on
// viper, not on the flags, so that config files and environment apply.
func AddFlags(fs *pflag.FlagSet) {
	fs.String("openai-api-key", "", "OpenAI API key (also OPENAI_API_KEY)")
	fs.String("openai-base-url", "", "OpenAI API base URL")
	fs.String("chat-model", "", "Chat model, one of "+strings.Join(conversation.SupportedModels, ", ")+" (also OPENAI_CHAT_MODEL)")
	fs.String("user", "", "User name used in transcripts and file names")
	fs.String("data-dir", "", "Data directory, transcripts are saved in its chatgpt/ subdirectory")
	fs.Int("max-tokens", 0, "Token budget after which old messages are trimmed")
	fs.String("token-backend", "", "Tokenizer backend (tiktoken, weaviate)")
	fs.String("markdown-renderer", "", "Markdown renderer for colored output (highlight, glamour, none)")
	fs.String("glamour-style", "", "Style for the glamour renderer")
}

func defaultDataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "gptsh")
}

// Setup configures v for the gptsh environment: GPTSH_ prefixed variables,
// the OpenAI variables shared with other tools, and defaults.
func Setup(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("openai-api-key", "")
	v.SetDefault("openai-base-url", "")
	v.SetDefault("chat-model", conversation.DefaultModel)
	v.SetDefault("user", "user")
	v.SetDefault("data-dir", defaultDataDir())
	v.SetDefault("max-tokens", conversation.DefaultMaxTokens)
	v.SetDefault("token-backend", string(tokens.BackendTokenizer))
	v.SetDefault("markdown-renderer", string(render.RendererHighlight))
	v.SetDefault("glamour-style", render.DefaultGlamourStyle)
	v.SetDefault("prompt", shell.DefaultPrompt)

	for key, envs := range map[string][]string{
		"openai-api-key":  {"GPTSH_OPENAI_API_KEY", "OPENAI_API_KEY"},
		"openai-base-url": {"GPTSH_OPENAI_BASE_URL", "OPENAI_BASE_URL"},
		"chat-model":      {"GPTSH_CHAT_MODEL", "OPENAI_CHAT_MODEL"},
		"user":            {"GPTSH_USER", "USER"},
	} {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return err
		}
	}
	return nil
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, errors.Wrap(err, "could not decode settings")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Validate() error {
	if s.MaxTokens <= 0 {
		return errors.Errorf("max-tokens must be positive, got %d", s.MaxTokens)
	}
	switch tokens.Backend(s.TokenBackend) {
	case tokens.BackendTokenizer, tokens.BackendWeaviate:
	default:
		return errors.Errorf("unknown token-backend: %s", s.TokenBackend)
	}
	switch render.Renderer(s.MarkdownRenderer) {
	case render.RendererHighlight, render.RendererGlamour, render.RendererNone:
	default:
		return errors.Errorf("unknown markdown-renderer: %s", s.MarkdownRenderer)
	}
	if s.DataDir == "" {
		return errors.New("data-dir must not be empty")
	}
	if s.User == "" || s.User+":" == transcript.SystemHeader || s.User+":" == transcript.AssistantHeader {
		return errors.Errorf("user can not be %q, it would be read back as another role", s.User)
	}
	return nil
}

// Environment returns the conversation environment on the OS filesystem.
func (s *Settings) Environment(confirm conversation.ConfirmFunc) conversation.Environment {
	env := conversation.DefaultEnvironment()
	env.User = s.User
	env.DataDir = s.DataDir
	env.Fs = afero.NewOsFs()
	env.Confirm = confirm
	return env
}
