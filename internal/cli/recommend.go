// internal/cli/recommend.go
package modelmux

import (
	"context"
	"fmt"

	"github.com/modelmux/modelmux/internal/clientfactory"
	"github.com/modelmux/modelmux/internal/router"
	"github.com/spf13/cobra"
)

// recommendCmd implements 'recommend', printing the model the tiered
// recommendation policy would pick.
var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend a model from the current catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := router.New(GetConfig(), clientfactory.NewClients)
		defer func() { _ = r.Cleanup() }()

		model, err := r.Recommend(context.Background())
		if err != nil {
			return err
		}
		if model == "" {
			fmt.Println("No models available to recommend.")
			return nil
		}
		fmt.Println(model)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)
}
