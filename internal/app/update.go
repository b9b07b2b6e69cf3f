package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pkgmux/internal/engine"
	"github.com/blackwell-systems/pkgmux/internal/output"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh package metadata on every backend",
	Long: `Update refreshes the package index of every enabled backend, one at a
time. Native package managers take system-wide locks, so backends are
never updated concurrently. Use --backend to update just one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		return runSession(rt, func(ctx context.Context) error {
			spinner := output.NewSpinner("Updating backends")
			spinner.Start()
			results, err := rt.engine.Update(ctx, flagBackend, rt.scope)
			spinner.Stop()
			printPerBackend(results)
			return err
		})
	},
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade [package]...",
	Short: "Upgrade packages",
	Long: `With package arguments, upgrade resolves the owning backend the same way
install does and upgrades just those packages. Without arguments it
upgrades everything on every enabled backend, sequentially.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		return runSession(rt, func(ctx context.Context) error {
			if len(args) > 0 {
				res, err := rt.engine.Upgrade(ctx, flagBackend, args, rt.scope)
				reportActionFailures(res)
				if err != nil {
					return err
				}
				if !res.Outcome.Success {
					return fmt.Errorf("upgrade failed: %s", res.Outcome.Error)
				}
				fmt.Printf("Upgraded via %s\n", res.Context.BackendName)
				return nil
			}

			spinner := output.NewSpinner("Upgrading backends")
			spinner.Start()
			results, err := rt.engine.UpgradeAll(ctx, flagBackend, rt.scope)
			spinner.Stop()
			printPerBackend(results)
			return err
		})
	},
}

// printPerBackend prints per-backend status lines for a sequential
// multi-backend run.
func printPerBackend(results []*engine.Result) {
	failed := 0
	for _, res := range results {
		reportActionFailures(res)
		if res.Outcome.Success {
			fmt.Printf("  %-10s ok\n", res.Context.BackendName)
		} else {
			fmt.Printf("  %-10s failed: %s\n", res.Context.BackendName, res.Outcome.Error)
			failed++
		}
	}
	if failed > 0 {
		fmt.Printf("%d of %d backends failed\n", failed, len(results))
	}
}
