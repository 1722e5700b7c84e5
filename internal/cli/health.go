// internal/cli/health.go
package modelmux

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/modelmux/modelmux/internal/clientfactory"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/metrics"
	"github.com/modelmux/modelmux/internal/router"
	"github.com/spf13/cobra"
)

var healthShowMetrics bool

var (
	serviceUp   = color.New(color.FgGreen).SprintFunc()
	serviceDown = color.New(color.FgRed).SprintFunc()
)

// healthCmd implements 'health', forcing a fresh probe of every backend.
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the health of all backend services",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := router.New(GetConfig(), clientfactory.NewClients)
		defer func() { _ = r.Cleanup() }()

		status, err := r.HealthCheck(context.Background())
		if err != nil {
			return err
		}

		for _, service := range llm.Services {
			if status[service] {
				fmt.Printf("%-10s %s\n", service, serviceUp("up"))
			} else {
				fmt.Printf("%-10s %s\n", service, serviceDown("down"))
			}
		}

		if healthShowMetrics {
			printMetrics()
		}
		return nil
	},
}

func printMetrics() {
	snapshot := metrics.GetInstance().Snapshot()
	if len(snapshot) == 0 {
		fmt.Println("\nNo metrics recorded (enable with --metrics).")
		return
	}

	fmt.Println("\nBackend call metrics:")
	for _, service := range llm.Services {
		stats, ok := snapshot[service]
		if !ok {
			continue
		}
		fmt.Printf("  %-10s calls=%d errors=%d avg=%s\n", service, stats.Calls, stats.Errors, stats.AverageDuration())
	}
}

func init() {
	healthCmd.Flags().BoolVar(&healthShowMetrics, "report", false, "print collected backend call metrics")
	rootCmd.AddCommand(healthCmd)
}
