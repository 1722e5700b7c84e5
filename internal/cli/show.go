// internal/cli/show.go
package modelmux

import (
	"context"
	"fmt"

	"github.com/k0kubun/pp"
	"github.com/modelmux/modelmux/internal/llm/lmstudio"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// showCmd groups introspection subcommands.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Group commands for showing settings and state",
}

// showConfigCmd implements 'show config', printing the fully merged
// configuration (flags > env > config file > defaults).
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Run: func(cmd *cobra.Command, args []string) {
		file := viper.ConfigFileUsed()
		if file == "" {
			fmt.Println("No config file loaded (using defaults and environment).")
		} else {
			fmt.Printf("Config file: %s\n\n", file)
		}

		pp.Println(GetConfig())
	},
}

// showCurrentCmd implements 'show current', printing the model LM Studio has
// loaded. Ollama loads models per request, so it has no equivalent notion.
var showCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the model currently loaded by LM Studio",
	Run: func(cmd *cobra.Command, args []string) {
		client := lmstudio.New(GetConfig())
		defer func() { _ = client.Close() }()

		model := client.CurrentModel(context.Background())
		if model == "" {
			fmt.Println("No model loaded (is LM Studio running?)")
			return
		}
		fmt.Println(model)
	},
}

func init() {
	showCmd.AddCommand(showConfigCmd)
	showCmd.AddCommand(showCurrentCmd)
	rootCmd.AddCommand(showCmd)
}
