package layout

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/application/queries"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
)

var (
	projectID    string
	ownerName    string
	designerName string
	statusFilter string
	keyword      string
	refDate      string
	jsonOutput   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List layout tasks",
	Long: `List layout tasks with their derived status.

Filter Options:
  --project    Only tasks of one project
  --owner      Layout owner (case-insensitive)
  --designer   Designer (case-insensitive)
  --status     Derived status (Closed, Unassigned, "Waiting for Freeze", "In Progress", Postim)
  -q           Keyword matched against project, IP, designer and owner

Examples:
  layoutrack layout list --project P1
  layoutrack layout list --status postim
  layoutrack layout list --owner carol --date 2025-06-10`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		filter, err := buildFilter()
		if err != nil {
			return err
		}
		ref, err := parseDateFlag("date", refDate)
		if err != nil {
			return err
		}

		layouts, err := app.ListLayoutsHandler.Handle(cmd.Context(), queries.ListLayoutsQuery{
			Filter:        filter,
			ReferenceDate: ref,
		})
		if err != nil {
			return fmt.Errorf("failed to list layouts: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, layouts)
		}
		if len(layouts) == 0 {
			fmt.Fprintln(out, "No layouts found.")
			return nil
		}

		fmt.Fprintf(out, "Layouts (%d):\n", len(layouts))
		fmt.Fprintln(out, strings.Repeat("-", 60))
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "\tPROJECT\tIP\tDESIGNER\tOWNER\tSTATUS\tMANDAYS\tWEIGHT")
		for _, l := range layouts {
			weight := "-"
			if l.CurrentWeight != nil {
				weight = fmt.Sprintf("%d%%", l.CurrentWeight.Percent)
			}
			status := l.Status
			if l.NeedsReview {
				status += " (review)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
				statusIcon(l.Status), l.ProjectID, l.IPName, orDash(l.Designer), orDash(l.LayoutOwner),
				status, l.Mandays, weight)
		}
		return tw.Flush()
	},
}

func buildFilter() (domain.Filter, error) {
	f := domain.Filter{
		ProjectID: strings.TrimSpace(projectID),
		Owner:     strings.TrimSpace(ownerName),
		Designer:  strings.TrimSpace(designerName),
		Keyword:   keyword,
	}
	if statusFilter != "" {
		s, err := domain.ParseStatus(statusFilter)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("invalid --status %q: %w", statusFilter, err)
		}
		f.Status = s
	}
	return f, nil
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "filter by project")
	cmd.Flags().StringVar(&ownerName, "owner", "", "filter by layout owner")
	cmd.Flags().StringVar(&designerName, "designer", "", "filter by designer")
	cmd.Flags().StringVarP(&statusFilter, "status", "s", "", "filter by derived status")
	cmd.Flags().StringVarP(&keyword, "query", "q", "", "keyword filter")
}

func init() {
	addFilterFlags(listCmd)
	listCmd.Flags().StringVar(&refDate, "date", "", "reference date for status derivation (YYYY-MM-DD, default today)")
	listCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
}
