package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/layoutrack/pkg/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database, cache and broker health",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		health := app.Health(cmd.Context())
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, health.Status)
		for _, name := range slices.Sorted(maps.Keys(health.Checks)) {
			check := health.Checks[name]
			fmt.Fprintf(out, "  %-10s %s", name, check.Status)
			if check.Message != "" {
				fmt.Fprintf(out, " (%s)", check.Message)
			}
			fmt.Fprintln(out)
		}
		if health.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
