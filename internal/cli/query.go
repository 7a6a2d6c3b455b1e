package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/imgajeed76/tabula/internal/db"
	"github.com/imgajeed76/tabula/internal/ui"
	"github.com/imgajeed76/tabula/internal/util"
	"github.com/spf13/cobra"
)

// EnvDatabaseURL is read when neither --url nor database.url is set.
const EnvDatabaseURL = "TABULA_DATABASE_URL"

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Show the rows of a PostgreSQL query",
		Long: `Run a query against PostgreSQL and show the result as a table.

Queries run inside a read-only transaction that is always rolled back, so
statements that modify data or schema are rejected.

The connection URL comes from --url, then database.url in the config,
then the TABULA_DATABASE_URL environment variable.

Examples:
  tabula query --url postgres://localhost/shop "SELECT * FROM orders"
  tabula query --sort total:desc --page-size 50 "SELECT * FROM orders"
  tabula query --json "SELECT id, email FROM users" > users.json`,
		Args: cobra.ExactArgs(1),
		RunE: runQuery,
	}

	cmd.Flags().String("url", "", "PostgreSQL connection URL")
	cmd.Flags().Duration("timeout", 0, "Query timeout, e.g. 30s (default from config)")
	addPipelineFlags(cmd)

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	sql := args[0]

	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	url, _ := cmd.Flags().GetString("url")
	if url == "" {
		url = cfg.Database.URL
	}
	if url == "" {
		url = os.Getenv(EnvDatabaseURL)
	}
	if url == "" {
		return util.NoDatabaseURLError()
	}

	if db.IsWriteQuery(sql) {
		return util.NewError("Write statements are not allowed").
			WithMessage("tabula query runs every statement in a read-only transaction").
			WithSuggestion("Use psql for statements that modify data")
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if !cmd.Flags().Changed("timeout") {
		timeout, err = cfg.QueryTimeout()
		if err != nil {
			return util.InvalidFlagError("database.timeout", cfg.Database.Timeout, err)
		}
	}

	opts := displayOptions(cmd, cfg, queryTitle(sql))
	res, err := fetchRows(cmd.Context(), url, sql, timeout, opts.Interactive())
	if err != nil {
		return err
	}

	p, err := buildPipeline(cmd, cfg, "query", nil)
	if err != nil {
		return err
	}
	p.SetSourceRows(res.Rows)
	if err := applyPipelineFlags(cmd, p); err != nil {
		return err
	}

	return show(p, opts)
}

// fetchRows connects, runs sql and disconnects. The timeout covers both.
func fetchRows(ctx context.Context, url, sql string, timeout time.Duration, spin bool) (*db.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if spin {
		spinner := ui.NewSpinner("Running query")
		spinner.Start()
		defer spinner.Stop()
	}

	conn, err := db.Connect(ctx, url, db.Options{StatementTimeout: timeout, ApplicationName: "tabula"})
	if err != nil {
		return nil, util.DatabaseConnectionError(url, err)
	}
	defer conn.Close()

	res, err := conn.QueryRows(ctx, sql)
	if err != nil {
		return nil, util.NewError("Query failed").Wrap(err)
	}
	slog.Info("query finished", "rows", len(res.Rows), "columns", len(res.Columns), "duration", res.Duration)
	return res, nil
}

// queryTitle shortens sql for the viewer header.
func queryTitle(sql string) string {
	title := util.EscapeControl(sql)
	if r := []rune(title); len(r) > 60 {
		title = fmt.Sprintf("%s...", string(r[:57]))
	}
	return title
}
