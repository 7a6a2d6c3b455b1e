package cli

import (
	"fmt"

	"github.com/imgajeed76/tabula/internal/config"
	"github.com/imgajeed76/tabula/internal/ui/styles"
	"github.com/imgajeed76/tabula/internal/util"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [key] [value]",
		Short: "Get and set tabula options",
		Long: `Get and set tabula settings. Flags on view and query override them.

Available settings:

` + config.GenerateHelpText() + `Examples:
  tabula config table.page_size            # Get value
  tabula config table.page_size 50         # Set value
  tabula config table.select_mode range    # Set value
  tabula config --list                     # List all settings
  tabula config --path                     # Show config file location`,
		Args: cobra.MaximumNArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ListKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: runConfig,
	}

	cmd.Flags().BoolP("list", "l", false, "List all settings")
	cmd.Flags().Bool("path", false, "Print the config file path")

	return cmd
}

func runConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if showPath, _ := cmd.Flags().GetBool("path"); showPath {
		fmt.Fprintln(out, config.Path())
		return nil
	}

	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	listAll, _ := cmd.Flags().GetBool("list")
	if listAll || len(args) == 0 {
		for _, key := range config.ListKeys() {
			value, _ := cfg.GetValue(key)
			if key == "database.url" && value != "" {
				value = util.RedactURL(value)
			}
			fmt.Fprintf(out, "%s=%s\n", key, value)
		}
		return nil
	}

	key := args[0]
	if len(args) == 1 {
		value, ok := cfg.GetValue(key)
		if !ok {
			return unknownKeyError(key)
		}
		fmt.Fprintln(out, value)
		return nil
	}

	if _, ok := cfg.GetValue(key); !ok {
		return unknownKeyError(key)
	}
	if err := cfg.SetValue(key, args[1]); err != nil {
		return util.NewError(fmt.Sprintf("Invalid value for %s: %q", key, args[1])).Wrap(err)
	}
	if err := cfg.Save(); err != nil {
		return util.NewError("Cannot write config").
			WithContext(config.Path()).
			Wrap(err)
	}

	fmt.Fprintln(out, styles.SuccessMsg(fmt.Sprintf("Set %s", key)))
	return nil
}

func unknownKeyError(key string) error {
	return util.NewError(fmt.Sprintf("Unknown config key: %s", key)).
		WithSuggestion("tabula config --list   # Show available keys")
}
