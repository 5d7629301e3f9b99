package layout

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/application/commands"
)

var closeCmd = &cobra.Command{
	Use:   "close <project> <ip>",
	Short: "Close a layout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setClosed(cmd, args[0], args[1], true)
	},
}

var reopenCmd = &cobra.Command{
	Use:   "reopen <project> <ip>",
	Short: "Reopen a closed layout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setClosed(cmd, args[0], args[1], false)
	},
}

func setClosed(cmd *cobra.Command, project, ip string, closed bool) error {
	app, err := requireApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	task, err := app.SetLayoutClosedHandler.Handle(ctx, commands.SetLayoutClosedCommand{
		ProjectID: project,
		IPName:    ip,
		Closed:    closed,
	})
	if err != nil {
		return fmt.Errorf("failed to update layout: %w", err)
	}
	app.FlushEvents(ctx)

	action := "Closed"
	if !closed {
		action = "Reopened"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", action, task.Key())
	return nil
}
