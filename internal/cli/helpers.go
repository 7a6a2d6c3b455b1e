package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/imgajeed76/tabula/internal/config"
	"github.com/imgajeed76/tabula/internal/logging"
	"github.com/imgajeed76/tabula/internal/pipeline"
	"github.com/imgajeed76/tabula/internal/ui/table"
	"github.com/imgajeed76/tabula/internal/util"
	"github.com/spf13/cobra"
)

// loadSettings reads the user config, falling back to defaults when there
// is no file.
func loadSettings() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, util.NewError("Cannot read config").
			WithContext(config.Path()).
			WithSuggestion("tabula config --list   # Show the effective settings").
			Wrap(err)
	}
	return cfg, nil
}

// addPipelineFlags registers the flags shared by every command that shows
// a table.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("sort", "", "Sort keys, e.g. name:asc,age:desc")
	cmd.Flags().String("filter", "", "Only show rows containing this text (case-insensitive)")
	cmd.Flags().String("filter-keys", "", "Comma-separated columns the filter looks at (default all)")
	cmd.Flags().Int("page", 1, "Page to show")
	cmd.Flags().String("page-size", "", "Rows per page, or 'all' (default from config)")
	cmd.Flags().String("fields", "", "Column config as JSON, or @file")
	cmd.Flags().String("select-mode", "", "Row selection: none, single, multi, range (default from config)")
	cmd.Flags().Bool("json", false, "Output the page as a JSON array")
	cmd.Flags().Bool("csv", false, "Output the page as CSV")
	cmd.Flags().Bool("raw", false, "Output raw tab-separated values (for piping)")
	cmd.Flags().Bool("no-pager", false, "Disable the interactive table view")
}

// buildPipeline creates a pipeline from config defaults and flags. fields
// is the column config carried by the row source, if any; --fields wins
// over it.
func buildPipeline(cmd *cobra.Command, cfg *config.Config, name string, fields []byte) (*pipeline.Pipeline, error) {
	pageSize := cfg.PageSize()
	if v, _ := cmd.Flags().GetString("page-size"); v != "" {
		size, err := pipeline.ParsePageSize(v)
		if err != nil {
			return nil, util.InvalidFlagError("page-size", v, err)
		}
		pageSize = size
	} else if !cmd.Flags().Changed("page") && !displayOptions(cmd, cfg, name).Interactive() {
		// Printed output shows every row unless paging was asked for
		pageSize = pipeline.PageSizeAll
	}

	mode := cfg.SelectMode()
	if v, _ := cmd.Flags().GetString("select-mode"); v != "" {
		m, err := pipeline.ParseSelectMode(v)
		if err != nil {
			return nil, util.InvalidFlagError("select-mode", v, err)
		}
		mode = m
	}

	if v, _ := cmd.Flags().GetString("fields"); v != "" {
		data, err := readFieldsFlag(v)
		if err != nil {
			return nil, util.InvalidFlagError("fields", v, err)
		}
		fields = data
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logging.WithFields("source", name)),
		pipeline.WithSortable(cfg.Table.Sortable),
		pipeline.WithPageSize(pageSize),
		pipeline.WithSelectMode(mode),
	}
	if len(fields) > 0 {
		opts = append(opts, pipeline.WithFieldsJSON(fields))
	}
	return pipeline.New(opts...), nil
}

// readFieldsFlag returns inline JSON, or the contents of the file named
// after an @.
func readFieldsFlag(v string) ([]byte, error) {
	if path, ok := strings.CutPrefix(v, "@"); ok {
		return os.ReadFile(path)
	}
	return []byte(v), nil
}

// applyPipelineFlags applies sort, filter and page flags to a pipeline that
// already holds its rows.
func applyPipelineFlags(cmd *cobra.Command, p *pipeline.Pipeline) error {
	if v, _ := cmd.Flags().GetString("sort"); v != "" {
		criteria, err := pipeline.ParseSortCriteria(v)
		if err != nil {
			return util.InvalidFlagError("sort", v, err)
		}
		if err := p.SetSortCriteria(criteria); err != nil {
			return util.InvalidFlagError("sort", v, err)
		}
	}

	filter, _ := cmd.Flags().GetString("filter")
	keysFlag, _ := cmd.Flags().GetString("filter-keys")
	keys := util.SplitList(keysFlag)
	if err := checkKeys(p, keys); err != nil {
		return util.InvalidFlagError("filter-keys", keysFlag, err)
	}
	p.SetFilter(pipeline.FilterState{Text: filter, RestrictedKeys: keys})

	if cmd.Flags().Changed("page") {
		page, _ := cmd.Flags().GetInt("page")
		p.SetPage(page)
	}
	return nil
}

// checkKeys rejects filter keys that are not columns of p.
func checkKeys(p *pipeline.Pipeline, keys []string) error {
	known := make(map[string]bool)
	for _, f := range p.View().Fields {
		known[f.Key] = true
	}
	for _, k := range keys {
		if !known[k] {
			return fmt.Errorf("unknown column %q", k)
		}
	}
	return nil
}

// displayOptions collects output flags, with config defaults.
func displayOptions(cmd *cobra.Command, cfg *config.Config, title string) table.DisplayOptions {
	jsonOut, _ := cmd.Flags().GetBool("json")
	csvOut, _ := cmd.Flags().GetBool("csv")
	raw, _ := cmd.Flags().GetBool("raw")
	noPager, _ := cmd.Flags().GetBool("no-pager")

	return table.DisplayOptions{
		Title:       title,
		JSON:        jsonOut,
		CSV:         csvOut,
		Raw:         raw,
		NoPager:     noPager || cfg.Display.NoPager,
		MaxColWidth: cfg.Display.MaxColWidth,
		Out:         cmd.OutOrStdout(),
	}
}

// show hands a ready pipeline to the display layer through a hub, so the
// viewer addresses it by table id like any other consumer.
func show(p *pipeline.Pipeline, opts table.DisplayOptions) error {
	hub := pipeline.NewHub()
	hub.Register(p)
	defer hub.Unregister(p.ID())
	return table.Display(p, hub, opts)
}
