package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the reservations admin CLI. Subcommands
// (bootstrap, seed, etc.) are attached here.
var rootCmd = &cobra.Command{
	Use:           "reservations",
	Short:         "Reservations admin CLI",
	Long:          "Administrative utilities for the reservations backend (schema bootstrap, data seeding).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
