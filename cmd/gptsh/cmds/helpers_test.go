package cmds

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-go-golems/gptsh/pkg/settings"
	go_openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// newEchoServer answers chat completions with "echo: " and the last message.
// The received requests are appended to requests.
func newEchoServer(t *testing.T, requests *[]go_openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req go_openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		*requests = append(*requests, req)

		last := req.Messages[len(req.Messages)-1]
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(go_openai.ChatCompletionResponse{
			Choices: []go_openai.ChatCompletionChoice{{
				Message:      go_openai.ChatCompletionMessage{Role: "assistant", Content: "echo: " + last.Content},
				FinishReason: go_openai.FinishReasonStop,
			}},
			Usage: go_openai.Usage{PromptTokens: 20, CompletionTokens: 4, TotalTokens: 24},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

// setupConfig points the global configuration at baseURL and dataDir, for
// user alice.
func setupConfig(t *testing.T, baseURL string, dataDir string) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	require.NoError(t, settings.Setup(viper.GetViper()))

	viper.Set("openai-api-key", "sk-test")
	viper.Set("openai-base-url", baseURL)
	viper.Set("data-dir", dataDir)
	viper.Set("user", "alice")
}

func runCommand(t *testing.T, cmd *cobra.Command, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	return out.String(), err
}
