package cli

import (
	"log/slog"

	"github.com/imgajeed76/tabula/internal/source"
	"github.com/imgajeed76/tabula/internal/util"
	"github.com/spf13/cobra"
)

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [file|-]",
		Short: "Show rows from a JSON, CSV or TOML file",
		Long: `Load rows from a file (or stdin) and show them as a table.

JSON input is an array of objects, or {"fields": [...], "rows": [...]}.
CSV input uses the first line as the header. TOML input is a list of
[[rows]] tables with an optional top-level fields array.

Reserved row keys: _rowVariant and _cellVariants color rows and cells,
_details is shown when a row is expanded, _showDetails starts it expanded.

Examples:
  tabula view people.json
  tabula view --sort age:desc,name --page-size 25 people.csv
  tabula view --filter berlin --filter-keys city people.csv
  curl -s api/users | tabula view --json --fields '["id","email"]'`,
		Args: cobra.MaximumNArgs(1),
		RunE: runView,
	}

	cmd.Flags().String("format", "", "Input format: json, csv, toml (default from extension)")
	addPipelineFlags(cmd)

	return cmd
}

func runView(cmd *cobra.Command, args []string) error {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}

	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := source.ParseFormat(formatFlag)
	if err != nil {
		return util.InvalidFlagError("format", formatFlag, err)
	}

	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	tbl, err := source.LoadFile(path, format)
	if err != nil {
		return err
	}
	slog.Info("rows loaded", "source", tbl.Name, "rows", len(tbl.Rows))

	p, err := buildPipeline(cmd, cfg, tbl.Name, tbl.Fields)
	if err != nil {
		return err
	}
	p.SetSourceRows(tbl.Rows)
	if err := applyPipelineFlags(cmd, p); err != nil {
		return err
	}

	return show(p, displayOptions(cmd, cfg, tbl.Name))
}
