// internal/cli/models.go
package modelmux

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/modelmux/modelmux/internal/clientfactory"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/router"
	"github.com/modelmux/modelmux/internal/util"
	"github.com/spf13/cobra"
)

var modelsRefresh bool

var (
	modelsHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	modelNameStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	modelDetailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	modelsMissingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// modelsCmd implements 'models', listing the aggregated namespaced catalog
// across every healthy backend service.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models across all backend services",
	Long:  `The 'models' command aggregates the model listings of every healthy backend service under namespaced names like "ollama:llama2".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := router.New(GetConfig(), clientfactory.NewClients)
		defer func() { _ = r.Cleanup() }()

		models, err := r.ListModels(context.Background(), modelsRefresh)
		if err != nil {
			return err
		}
		printModels(models)
		return nil
	},
}

func printModels(models []llm.ModelInfo) {
	if len(models) == 0 {
		fmt.Println(modelsMissingStyle.Render("No models available (are any backend services running?)"))
		return
	}

	fmt.Println(modelsHeaderStyle.Render(fmt.Sprintf("%-48s %-12s %s", "NAME", "STATUS", "SIZE")))
	for _, model := range models {
		name := util.TruncateRunes(model.Name, 47)
		size := modelDetailStyle.Render(humanSize(model.Size))
		fmt.Printf("%s %-12s %s\n", modelNameStyle.Render(fmt.Sprintf("%-48s", name)), model.Status, size)
	}
}

func humanSize(size int64) string {
	if size <= 0 {
		return "-"
	}
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

func init() {
	modelsCmd.Flags().BoolVar(&modelsRefresh, "refresh", false, "force a catalog refresh before listing")
	rootCmd.AddCommand(modelsCmd)
}
