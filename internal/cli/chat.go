// internal/cli/chat.go
package modelmux

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/modelmux/modelmux/internal/clientfactory"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/router"
	"github.com/modelmux/modelmux/internal/tui"
	"github.com/spf13/cobra"
)

var (
	chatModel   string
	chatPrompt  string
	chatSystem  string
	chatOptions string
)

// chatCmd implements 'chat'. With --prompt it runs a one-shot exchange;
// without it, it starts an interactive session.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a model",
	Long: `The 'chat' command talks to the backend that serves the requested model.
With --prompt a single exchange is printed and the command exits; without it,
an interactive session opens.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		options, err := parseSamplingOptions(chatOptions)
		if err != nil {
			return err
		}

		model := chatModel
		if model == "" {
			model = cfg.DefaultModel
		}

		r := router.New(cfg, clientfactory.NewClients)
		defer func() { _ = r.Cleanup() }()

		if chatPrompt == "" {
			return tui.Run(r, model, chatSystem, options)
		}

		var messages []llm.ChatMessage
		if chatSystem != "" {
			messages = append(messages, llm.ChatMessage{Role: llm.RoleSystem, Content: chatSystem})
		}
		messages = append(messages, llm.ChatMessage{Role: llm.RoleUser, Content: chatPrompt})

		resp, err := r.Chat(context.Background(), model, messages, options)
		if err != nil {
			color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "chat failed: %v\n", err)
			return err
		}

		fmt.Println(resp.Content)
		return nil
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "model to use (defaults to the configured default model)")
	chatCmd.Flags().StringVarP(&chatPrompt, "prompt", "p", "", "one-shot prompt; omit for an interactive session")
	chatCmd.Flags().StringVarP(&chatSystem, "system", "s", "", "optional system prompt")
	chatCmd.Flags().StringVarP(&chatOptions, "options", "o", "", `sampling options as JSON, e.g. '{"temperature":0.2}'`)
	rootCmd.AddCommand(chatCmd)
}
