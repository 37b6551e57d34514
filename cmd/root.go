// Package cmd implements the flowctl command-line front-end: a cobra root
// command plus run/resources/version subcommands exercising the workflow
// engine.
package cmd

import (
	"fmt"
	"os"

	"github.com/kris-hansen/flowctl/utils/wfconfig"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool
var debug bool

var rootCmd = &cobra.Command{
	Use:   "flowctl",
	Short: "A file-based workflow engine for batch pipelines",
	Long: `flowctl runs named jobs that consume input files and produce output
files, skipping jobs whose outputs are already up to date, running them
locally (serially or in parallel) or submitting them to a detached
scheduler, and supporting grouped stages with temporary-file cleanup.

Getting Started:
  1. flowctl run          Run the bundled example workflow
  2. flowctl resources    Inspect a resource file's effective settings`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		wfconfig.SetVerbose(verbose || debug)
		if debug {
			wfconfig.DebugLog("debug logging enabled")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resourcesCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command, printing a top-level error and exiting
// non-zero on failure.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
