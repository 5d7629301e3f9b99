package layout

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/infrastructure/calendar"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/security"
)

var (
	exportOutput        string
	exportPublish       bool
	exportDeleteMissing bool
)

var exportICSCmd = &cobra.Command{
	Use:   "export-ics <project>",
	Short: "Export schedule windows as iCalendar",
	Long: `Export the designer and layout-leader windows of a project's open
layouts as all-day iCalendar events.

With --publish the events are written to the CalDAV calendar configured
by CALDAV_URL instead.

Examples:
  layoutrack layout export-ics P1              # Export to stdout
  layoutrack layout export-ics P1 -o p1.ics    # Export to file
  layoutrack layout export-ics P1 --publish    # Sync to CalDAV`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		tasks, err := app.LayoutRepo.FindByProject(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to load project: %w", err)
		}
		if len(tasks) == 0 {
			return fmt.Errorf("%s: %w", args[0], domain.ErrLayoutNotFound)
		}
		events := calendar.EventsFor(tasks)

		if exportPublish {
			if app.CalendarPublisher == nil {
				return fmt.Errorf("CalDAV publishing requires CALDAV_URL")
			}
			result, err := app.CalendarPublisher.WithDeleteMissing(exportDeleteMissing).Publish(ctx, events)
			if err != nil {
				return fmt.Errorf("failed to publish calendar: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %d event(s): %d created, %d updated, %d deleted, %d failed\n",
				len(events), result.Created, result.Updated, result.Deleted, result.Failed)
			return nil
		}

		if len(events) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No open layouts have schedule windows.")
			return nil
		}

		if exportOutput == "" {
			return calendar.WriteICS(cmd.OutOrStdout(), events, time.Now())
		}
		f, err := security.SafeCreate(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		if err := calendar.WriteICS(f, events, time.Now()); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write calendar: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d event(s) to %s\n", len(events), exportOutput)
		return nil
	},
}

func init() {
	exportICSCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
	exportICSCmd.Flags().BoolVar(&exportPublish, "publish", false, "publish to the configured CalDAV calendar")
	exportICSCmd.Flags().BoolVar(&exportDeleteMissing, "delete-missing", false, "remove CalDAV events no longer exported")
}
