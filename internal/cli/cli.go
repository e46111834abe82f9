// Package cli implements the plantlayout command-line interface.
//
// # Commands
//
//   - init: write a default run configuration
//   - optimize: search for a station layout and save it as JSON
//   - route: resolve access points and route paths over a saved layout
//   - compare: run the search under several parameter scenarios
//   - import: load a station catalogue from CSV, Excel or DXF into a config
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// attached to the command context and handed to the engine and router.
package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const appName = "plantlayout"

var version = "dev"

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	version = v
}

// Execute runs the plantlayout CLI. Cancelling ctx interrupts a running
// search or routing pass.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the root command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   appName,
		Short: "PlantLayout places manufacturing stations and routes the paths between them",
		Long: `PlantLayout searches for a placement of manufacturing stations on a grid
floor that balances travel distance against line throughput, then routes
walkable paths between consecutive stations of the process sequence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("%s %s\n", appName, version))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newInitCmd())
	root.AddCommand(newOptimizeCmd())
	root.AddCommand(newRouteCmd())
	root.AddCommand(newCompareCmd())
	root.AddCommand(newImportCmd())

	return root
}
