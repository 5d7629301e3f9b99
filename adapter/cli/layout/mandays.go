package layout

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
)

var (
	mandaysFrom string
	mandaysTo   string
)

var mandaysCmd = &cobra.Command{
	Use:   "mandays [<project> <ip>]",
	Short: "Count business days of a layout or a date range",
	Long: `Count the weekdays between schematic freeze and LVS clean, both inclusive.

Examples:
  layoutrack layout mandays P1 PLL
  layoutrack layout mandays --from 2025-06-02 --to 2025-06-20`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected <project> <ip> or --from/--to")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			n, err := domain.BusinessDaysBetween(mandaysFrom, mandaysTo)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, n)
			return nil
		}

		app, err := requireApp()
		if err != nil {
			return err
		}
		l, err := findLayout(cmd.Context(), app, args[0], args[1], time.Time{})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, l.Mandays)
		return nil
	},
}

func init() {
	mandaysCmd.Flags().StringVar(&mandaysFrom, "from", "", "schematic freeze date (YYYY-MM-DD)")
	mandaysCmd.Flags().StringVar(&mandaysTo, "to", "", "LVS clean date (YYYY-MM-DD)")
}
