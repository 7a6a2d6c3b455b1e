package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/imgajeed76/tabula/internal/logging"
	"github.com/imgajeed76/tabula/internal/ui/styles"
	"github.com/imgajeed76/tabula/internal/util"
	"github.com/spf13/cobra"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tabula",
		Short: "Sort, filter, page and select rows of tabular data",
		Long: `tabula loads rows from JSON, CSV, TOML or a PostgreSQL query and runs
them through a table pipeline: multi-key sort, text filter, pagination,
row selection and row details.

On a terminal the result opens in an interactive viewer. When piped, the
current page is printed as a table, JSON, CSV or tab-separated values.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output (debug logging)")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default from config)")
	cmd.PersistentFlags().String("log-format", "", "Log format: text or json (default from config)")

	// Version flag template to show more info
	cmd.SetVersionTemplate(fmt.Sprintf("tabula version %s\n  commit: %s\n  built:  %s\n", Version, CommitSHA, BuildDate))

	// Set up pre-run to handle global flags
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		noColor, _ := cmd.Flags().GetBool("no-color")
		if noColor {
			styles.SetNoColor(true)
		}
		return setupLogging(cmd)
	}

	// Add all subcommands
	cmd.AddCommand(
		newVersionCmd(),
		newViewCmd(),
		newQueryCmd(),
		newConfigCmd(),
		newCompletionCmd(),
	)
	return cmd
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		// Check if it's a structured TabulaError
		var tabErr *util.TabulaError
		if errors.As(err, &tabErr) {
			fmt.Fprintln(os.Stderr, tabErr.Format())
		} else {
			// Simple error - still format nicely
			fmt.Fprintln(os.Stderr, styles.ErrorMsg(err.Error()))
		}
		return err
	}
	return nil
}

// setupLogging configures slog from flags, falling back to the config file.
func setupLogging(cmd *cobra.Command) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = cfg.Log.Level
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}

	formatFlag, _ := cmd.Flags().GetString("log-format")
	if formatFlag == "" {
		formatFlag = cfg.Log.Format
	}
	format, err := logging.ParseFormat(formatFlag)
	if err != nil {
		return util.InvalidFlagError("log-format", formatFlag, err)
	}

	logging.Setup(level, format).Debug("logging ready", "level", level, "format", format)
	return nil
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for tabula.

To load completions:

Bash:
  $ source <(tabula completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ tabula completion bash > /etc/bash_completion.d/tabula
  # macOS:
  $ tabula completion bash > $(brew --prefix)/etc/bash_completion.d/tabula

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ tabula completion zsh > "${fpath[1]}/_tabula"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ tabula completion fish | source

  # To load completions for each session, execute once:
  $ tabula completion fish > ~/.config/fish/completions/tabula.fish

PowerShell:
  PS> tabula completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> tabula completion powershell > tabula.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(out)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tabula version %s\n", Version)
			fmt.Fprintf(out, "  commit: %s\n", CommitSHA)
			fmt.Fprintf(out, "  built:  %s\n", BuildDate)
		},
	}
}
