package layout

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/layoutrack/adapter/cli"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
)

// Cmd is the layout command group
var Cmd = &cobra.Command{
	Use:   "layout",
	Short: "Track IC layout tasks",
	Long:  `List layout tasks, derive their status, update weekly weights and render timelines.`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(statusCmd)
	Cmd.AddCommand(mandaysCmd)
	Cmd.AddCommand(submitCmd)
	Cmd.AddCommand(ganttCmd)
	Cmd.AddCommand(weightCmd)
	Cmd.AddCommand(closeCmd)
	Cmd.AddCommand(reopenCmd)
	Cmd.AddCommand(exportICSCmd)
}

func requireApp() (*cli.App, error) {
	app := cli.GetApp()
	if app == nil || app.ListLayoutsHandler == nil {
		return nil, fmt.Errorf("application not initialized - database connection required")
	}
	return app, nil
}

// parseDateFlag returns the zero time for an empty value.
func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q, use YYYY-MM-DD: %w", name, value, err)
	}
	return t, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusIcon(status string) string {
	switch domain.Status(status) {
	case domain.StatusClosed:
		return "[x]"
	case domain.StatusInProgress:
		return "[>]"
	case domain.StatusPostim:
		return "[!]"
	case domain.StatusUnassigned:
		return "[?]"
	default:
		return "[ ]"
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
