// Package commands implements the strata CLI commands.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/strata/internal/logger"
	"github.com/marmos91/strata/pkg/config"
	"github.com/marmos91/strata/pkg/metrics"
	"github.com/marmos91/strata/pkg/vfd/drivers"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string

	// cfg is the loaded configuration, available to all commands after
	// PersistentPreRunE.
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "strata - self-describing hierarchical container tooling",
	Long: `strata is a library and toolset for a self-describing hierarchical
binary container format. The CLI works at the virtual file driver layer:
it can probe arbitrary host files (or object stores) for embedded
containers and report their address-space state.

Use "strata [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := logger.Init(logger.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: cfg.Logging.Output,
		}); err != nil {
			return err
		}
		if cfg.Metrics.Enabled {
			metrics.InitRegistry()
		}
		return drivers.RegisterBuiltin()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("strata %s (commit %s, built %s)\n", Version, Commit, Date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/strata/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(driversCmd)
	rootCmd.AddCommand(configCmd)
}
