// Package app wires the pkgmux command line interface.
package app

import (
	"github.com/spf13/cobra"
)

var (
	flagSystem  bool
	flagBackend string

	// RootCmd is the root command for pkgmux
	RootCmd = &cobra.Command{
		Use:   "pkgmux",
		Short: "One command line for every package manager",
		Long: `pkgmux drives the package managers installed on this machine through a
single command surface. It resolves which backend owns a package, keeps a
per-scope ledger of what was installed through it, and lets extensions
hook into the lifecycle of every operation.

Examples:
  # Find a package across every backend
  pkgmux search ripgrep

  # Install through a specific backend
  pkgmux install --backend apt ripgrep

  # Let pkgmux pick the backend (errors if more than one claims it)
  pkgmux install ripgrep

  # See what was installed through pkgmux
  pkgmux history list

  # Bring the ledger back in line with reality
  pkgmux reconcile

  # Check backends and ledger integrity
  pkgmux doctor`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVar(&flagSystem, "system", false, "operate on the system scope instead of the user scope")
	RootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "use a specific backend instead of automatic resolution")

	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(searchCmd)
	RootCmd.AddCommand(installCmd)
	RootCmd.AddCommand(removeCmd)
	RootCmd.AddCommand(purgeCmd)
	RootCmd.AddCommand(updateCmd)
	RootCmd.AddCommand(upgradeCmd)
	RootCmd.AddCommand(historyCmd)
	RootCmd.AddCommand(reconcileCmd)
	RootCmd.AddCommand(pluginsCmd)
	RootCmd.AddCommand(doctorCmd)
	RootCmd.AddCommand(watchCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}
