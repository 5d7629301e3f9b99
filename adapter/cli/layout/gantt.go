package layout

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	ganttDomain "github.com/felixgeelhaar/layoutrack/internal/gantt/domain"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/application/queries"
)

var (
	ganttMode  string
	ganttStart string
	ganttDate  string
	ganttRows  bool
)

var ganttCmd = &cobra.Command{
	Use:   "gantt",
	Short: "Render the workload timeline",
	Long: `Render per-bucket workload totals and task bars.

Modes: day, week (default), month, quarter, halfyear.

Cell legend:
  D   designer window active
  L   layout-leader window active
  nn  layout-owner weight percent for the bucket

Examples:
  layoutrack layout gantt --project P1
  layoutrack layout gantt --mode month --start 2025-01-01
  layoutrack layout gantt --owner carol --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		filter, err := buildFilter()
		if err != nil {
			return err
		}
		start, err := parseDateFlag("start", ganttStart)
		if err != nil {
			return err
		}
		ref, err := parseDateFlag("date", ganttDate)
		if err != nil {
			return err
		}

		tl, err := app.GetGanttHandler.Handle(cmd.Context(), queries.GetGanttQuery{
			Mode:          ganttMode,
			Start:         start,
			ReferenceDate: ref,
			Filter:        filter,
		})
		if err != nil {
			return fmt.Errorf("failed to build timeline: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, tl)
		}
		return renderTimeline(cmd, tl)
	},
}

func renderTimeline(cmd *cobra.Command, tl ganttDomain.Timeline) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Timeline (%s) from %s, reference %s\n",
		tl.Mode, tl.Start.Format("2006-01-02"), tl.ReferenceDate.Format("2006-01-02"))

	tw := tabwriter.NewWriter(out, 0, 4, 1, ' ', 0)
	header := []string{""}
	for _, b := range tl.Buckets {
		header = append(header, b.Label)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	totals := map[string]func(ganttDomain.BucketWorkload) int{
		"designers": func(w ganttDomain.BucketWorkload) int { return w.DesignerCount },
		"leaders":   func(w ganttDomain.BucketWorkload) int { return w.LayoutLeaderCount },
		"owners":    func(w ganttDomain.BucketWorkload) int { return w.LayoutOwnerCount },
		"owner %":   func(w ganttDomain.BucketWorkload) int { return w.LayoutOwnerTotalWeight },
	}
	for _, name := range []string{"designers", "leaders", "owners", "owner %"} {
		line := []string{name}
		for _, w := range tl.Totals {
			line = append(line, fmt.Sprint(totals[name](w)))
		}
		fmt.Fprintln(tw, strings.Join(line, "\t"))
	}

	if ganttRows {
		for _, row := range tl.Rows {
			line := []string{row.ProjectID + "/" + row.IPName}
			for _, c := range row.Cells {
				line = append(line, cellText(c))
			}
			fmt.Fprintln(tw, strings.Join(line, "\t"))
		}
	}
	return tw.Flush()
}

func cellText(c ganttDomain.Cell) string {
	var b strings.Builder
	if c.DesignerActive {
		b.WriteString("D")
	}
	if c.LayoutLeaderActive {
		b.WriteString("L")
	}
	if c.LayoutOwnerRatio > 0 {
		if b.Len() > 0 {
			b.WriteString(":")
		}
		fmt.Fprintf(&b, "%d", c.LayoutOwnerWeight)
	}
	if b.Len() == 0 {
		return "."
	}
	return b.String()
}

func init() {
	addFilterFlags(ganttCmd)
	ganttCmd.Flags().StringVarP(&ganttMode, "mode", "m", "week", "timeline mode (day, week, month, quarter, halfyear)")
	ganttCmd.Flags().StringVar(&ganttStart, "start", "", "first bucket date (YYYY-MM-DD)")
	ganttCmd.Flags().StringVar(&ganttDate, "date", "", "reference date (YYYY-MM-DD, default today)")
	ganttCmd.Flags().BoolVar(&ganttRows, "rows", true, "print per-task bars")
	ganttCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
}
