// internal/cli/generate.go
package modelmux

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/modelmux/modelmux/internal/clientfactory"
	"github.com/modelmux/modelmux/internal/router"
	"github.com/spf13/cobra"
)

var (
	generateModel   string
	generateOptions string
)

// generateCmd implements 'generate', a one-shot single-prompt completion
// routed to whichever backend serves the requested model.
var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate a completion for a single prompt",
	Long: `The 'generate' command sends a single prompt to the backend that serves the
requested model. Model names may carry a service prefix ("ollama:llama2",
"lmstudio:deepseek-r1"); bare names are routed using the preferred service
from the configuration.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		options, err := parseSamplingOptions(generateOptions)
		if err != nil {
			return err
		}

		model := generateModel
		if model == "" {
			model = cfg.DefaultModel
		}

		r := router.New(cfg, clientfactory.NewClients)
		defer func() { _ = r.Cleanup() }()

		resp, err := r.Generate(context.Background(), model, strings.Join(args, " "), options)
		if err != nil {
			color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "generate failed: %v\n", err)
			return err
		}

		fmt.Println(resp.Content)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateModel, "model", "m", "", "model to use (defaults to the configured default model)")
	generateCmd.Flags().StringVarP(&generateOptions, "options", "o", "", `sampling options as JSON, e.g. '{"temperature":0.2}'`)
	rootCmd.AddCommand(generateCmd)
}
