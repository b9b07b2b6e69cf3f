package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pkgmux/internal/output"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for a package across every backend",
	Long: `Search queries every enabled backend concurrently and prints the union
of their results, tagged with the backend that reported each package.
Use --backend to search a single backend.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		return runSession(rt, func(ctx context.Context) error {
			spinner := output.NewSpinner("Searching backends")
			spinner.Start()
			res, err := rt.engine.Search(ctx, flagBackend, args[0], rt.scope)
			spinner.Stop()

			reportActionFailures(res)
			if err != nil {
				return err
			}
			if !res.Outcome.Success {
				return fmt.Errorf("search failed: %s", res.Outcome.Error)
			}

			fmt.Print(output.RenderSearchResults(res.Packages))
			return nil
		})
	},
}
