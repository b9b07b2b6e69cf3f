package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install <package>...",
	Short: "Install packages through the owning backend",
	Long: `Install resolves which backend provides the requested packages and
installs through it. If more than one backend claims a package the
command fails and lists the claimants; pick one with --backend.

Successful installs are recorded in the scope's history ledger.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		return runSession(rt, func(ctx context.Context) error {
			res, err := rt.engine.Install(ctx, flagBackend, args, rt.scope)
			reportActionFailures(res)
			if err != nil {
				return err
			}
			if !res.Outcome.Success {
				return fmt.Errorf("install failed: %s", res.Outcome.Error)
			}

			fmt.Printf("Installed %s via %s", strings.Join(args, ", "), res.Context.BackendName)
			if res.LedgerID > 0 {
				fmt.Printf(" (history entry %d)", res.LedgerID)
			}
			fmt.Println()
			return nil
		})
	},
}
