package layout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/layoutrack/adapter/cli"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/application/queries"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
)

var statusDate string

var statusCmd = &cobra.Command{
	Use:   "status <project> <ip>",
	Short: "Show the derived status of one layout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		ref, err := parseDateFlag("date", statusDate)
		if err != nil {
			return err
		}

		l, err := findLayout(cmd.Context(), app, args[0], args[1], ref)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, l)
		}
		fmt.Fprintf(out, "%s %s/%s\n", statusIcon(l.Status), l.ProjectID, l.IPName)
		fmt.Fprintf(out, "   Status:        %s\n", l.Status)
		if l.LegacyStatus != "" {
			fmt.Fprintf(out, "   Legacy status: %s\n", l.LegacyStatus)
		}
		fmt.Fprintf(out, "   Designer:      %s (%s .. %s)\n", orDash(l.Designer), orDash(l.SchematicFreeze), orDash(l.LVSClean))
		fmt.Fprintf(out, "   Layout leader: %s .. %s\n", orDash(l.LayoutLeaderSchematicFreeze), orDash(l.LayoutLeaderLVSClean))
		fmt.Fprintf(out, "   Owner:         %s\n", orDash(l.LayoutOwner))
		fmt.Fprintf(out, "   Mandays:       %d\n", l.Mandays)
		if l.CurrentWeight != nil {
			fmt.Fprintf(out, "   Weight %s: %d%%\n", l.CurrentWeek, l.CurrentWeight.Percent)
		}
		if l.NeedsReview {
			fmt.Fprintf(out, "   Needs review:  %s\n", l.ReworkNote)
		}
		return nil
	},
}

// findLayout returns one layout of a project, derived against ref.
func findLayout(ctx context.Context, app *cli.App, project, ip string, ref time.Time) (queries.LayoutDTO, error) {
	layouts, err := app.GetProjectLayoutsHandler.Handle(ctx, queries.GetProjectLayoutsQuery{
		ProjectID:     project,
		ReferenceDate: ref,
	})
	if err != nil && !errors.Is(err, domain.ErrLayoutNotFound) {
		return queries.LayoutDTO{}, fmt.Errorf("failed to load project: %w", err)
	}
	for _, l := range layouts {
		if l.IPName == ip {
			return l, nil
		}
	}
	return queries.LayoutDTO{}, fmt.Errorf("%s/%s: %w", project, ip, domain.ErrLayoutNotFound)
}

func init() {
	statusCmd.Flags().StringVar(&statusDate, "date", "", "reference date (YYYY-MM-DD, default today)")
	statusCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
}
