package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/application/commands"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/application/queries"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
)

var (
	weightRole string
	weightWeek string
)

var weightCmd = &cobra.Command{
	Use:   "weight",
	Short: "Manage weekly layout-owner weights",
}

var weightSetCmd = &cobra.Command{
	Use:   "set <project> <ip> <week> <value>",
	Short: "Record a weight for an ISO week",
	Long: `Record the layout owner's weight for an ISO week (YYYY-Www).

The value is a ratio between 0 and 1.5, or a percentage with a % suffix.
Each update adds a new version; earlier versions stay in the history.

Examples:
  layoutrack layout weight set P1 PLL 2025-W24 0.6
  layoutrack layout weight set P1 PLL 2025-W24 60%`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		value, err := parseWeightValue(args[3])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		result, err := app.UpdateWeightHandler.Handle(ctx, commands.UpdateWeightCommand{
			ProjectID: args[0],
			IPName:    args[1],
			Week:      args[2],
			Value:     value,
			Role:      weightRole,
		})
		if err != nil {
			return fmt.Errorf("failed to update weight: %w", err)
		}
		app.FlushEvents(ctx)

		fmt.Fprintf(cmd.OutOrStdout(), "%s/%s %s = %d%% (version %d)\n",
			args[0], args[1], result.Weight.Week, result.Weight.Percent(), result.Weight.Version)
		return nil
	},
}

var weightHistoryCmd = &cobra.Command{
	Use:   "history <project> <ip>",
	Short: "Show the weight history of a layout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		result, err := app.GetWeightHistoryHandler.Handle(cmd.Context(), queries.GetWeightHistoryQuery{
			ProjectID: args[0],
			IPName:    args[1],
			Week:      weightWeek,
		})
		if err != nil {
			return fmt.Errorf("failed to load weight history: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, result)
		}
		if len(result.History) == 0 {
			fmt.Fprintln(out, "No weights recorded.")
			return nil
		}
		for _, w := range result.History {
			by := w.UpdatedBy
			if w.Role != "" {
				by += " (" + w.Role + ")"
			}
			fmt.Fprintf(out, "%s v%d %3d%%  %s  %s\n",
				w.Week, w.Version, w.Percent, w.UpdatedAt.Format("2006-01-02 15:04"), orDash(by))
		}
		return nil
	},
}

// parseWeightValue accepts a ratio ("0.6") or a percentage ("60%").
func parseWeightValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	percent := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrMalformedWeight, s)
	}
	if percent {
		v /= 100
	}
	return v, nil
}

func init() {
	weightSetCmd.Flags().StringVar(&weightRole, "role", "", "role of the person recording the weight")
	weightHistoryCmd.Flags().StringVar(&weightWeek, "week", "", "only one ISO week (YYYY-Www)")
	weightHistoryCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")

	weightCmd.AddCommand(weightSetCmd)
	weightCmd.AddCommand(weightHistoryCmd)
}
