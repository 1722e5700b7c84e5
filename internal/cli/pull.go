// internal/cli/pull.go
package modelmux

import (
	"context"
	"fmt"

	"github.com/modelmux/modelmux/internal/llm/ollama"
	"github.com/spf13/cobra"
)

// pullCmd implements 'pull', downloading a model onto the Ollama backend.
// LM Studio manages its models through its own UI and exposes no pull API.
var pullCmd = &cobra.Command{
	Use:   "pull [model]",
	Short: "Pull a model onto the Ollama backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := ollama.New(GetConfig())
		defer func() { _ = client.Close() }()

		if err := client.PullModel(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Pulled %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pullCmd)
}
