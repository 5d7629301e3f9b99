package layout

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/application/commands"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/security"
)

var submitProject string

// submitFile is the rows file read by "layout submit". JSON is valid YAML,
// so both formats are accepted.
type submitFile struct {
	ProjectID string      `yaml:"projectId"`
	Rows      []submitRow `yaml:"rows"`
}

type submitRow struct {
	IPName                      string `yaml:"ipName"`
	Designer                    string `yaml:"designer"`
	LayoutOwner                 string `yaml:"layoutOwner"`
	SchematicFreeze             string `yaml:"schematicFreeze"`
	LVSClean                    string `yaml:"lvsClean"`
	LayoutLeaderSchematicFreeze string `yaml:"layoutLeaderSchematicFreeze"`
	LayoutLeaderLVSClean        string `yaml:"layoutLeaderLvsClean"`
	PlannedMandays              *int   `yaml:"plannedMandays"`
	ReworkNote                  string `yaml:"reworkNote"`
	LayoutClosed                *bool  `yaml:"layoutClosed"`
}

var submitCmd = &cobra.Command{
	Use:   "submit <file>",
	Short: "Upsert layout rows from a YAML or JSON file",
	Long: `Upsert the layout rows of a project. Invalid rows are reported and
skipped; valid rows are saved.

Example file:
  projectId: P1
  rows:
    - ipName: PLL
      designer: Bob
      layoutOwner: Carol
      schematicFreeze: 2025-06-02
      lvsClean: 2025-06-20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		data, err := security.SafeReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read rows file: %w", err)
		}
		var file submitFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("failed to parse rows file: %w", err)
		}
		if submitProject != "" {
			file.ProjectID = submitProject
		}

		cmdIn := commands.SubmitLayoutsCommand{ProjectID: file.ProjectID}
		for _, r := range file.Rows {
			cmdIn.Rows = append(cmdIn.Rows, commands.LayoutRow{
				IPName:                      r.IPName,
				Designer:                    r.Designer,
				LayoutOwner:                 r.LayoutOwner,
				SchematicFreeze:             r.SchematicFreeze,
				LVSClean:                    r.LVSClean,
				LayoutLeaderSchematicFreeze: r.LayoutLeaderSchematicFreeze,
				LayoutLeaderLVSClean:        r.LayoutLeaderLVSClean,
				PlannedMandays:              r.PlannedMandays,
				ReworkNote:                  r.ReworkNote,
				LayoutClosed:                r.LayoutClosed,
			})
		}

		ctx := cmd.Context()
		result, err := app.SubmitLayoutsHandler.Handle(ctx, cmdIn)
		if err != nil {
			return fmt.Errorf("failed to submit layouts: %w", err)
		}
		app.FlushEvents(ctx)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Saved %d layout(s) for %s\n", len(result.Saved), result.ProjectID)
		for _, e := range result.Errors {
			fmt.Fprintf(out, "   rejected %s\n", e.Error())
		}
		if len(result.Saved) == 0 && len(result.Errors) > 0 {
			return fmt.Errorf("no rows were saved")
		}
		return nil
	},
}

func init() {
	submitCmd.Flags().StringVarP(&submitProject, "project", "p", "", "project ID (overrides the file)")
}
