// =============================================================================
// PO Item Extractor - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (poextract)
//   ├── processCmd (poextract process)
//   ├── serveCmd   (poextract serve)
//   └── versionCmd (poextract version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads the YAML configuration (--config), .env and PO_* overrides
//   2. Builds the zap logger (--verbose forces debug level)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/ginjaninja78/po-item-extractor/internal/config"
	"github.com/ginjaninja78/po-item-extractor/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// appConfig and logger are initialized by the root command before any
// subcommand runs.
var (
	appConfig *config.MainConfig
	logger    *zap.Logger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "poextract",
	Short: "PO Item Extractor - Aggregate line items across purchase order PDFs",
	Long: `PO Item Extractor reads a folder of purchase order PDFs, recovers the line
items (item number, name, quantity, DIY code) from their text and combines
the quantities of every item across all orders into one workbook.

Workbook sheets:
  - PO Summary:       reference number, vendor location, date and total per PO
  - Quantity Summary: one row per item, one column per PO, Grand Total
  - PO Items:         every parsed line item, for auditing

Example Usage:
  poextract process                      # Process ./PO into ./PO/po_analysis.xlsx
  poextract process --folder ./orders    # Process another folder
  poextract serve --listen :9000         # Accept uploads over HTTP`,

	// Execute prints the error itself.
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initApp loads the configuration and builds the logger.
func initApp() error {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	l, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	appConfig = cfg
	logger = l
	return nil
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file (default is config.yaml)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
