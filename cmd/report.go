package cmd

import (
	"github.com/huangsam/churnmill/core"
	"github.com/huangsam/churnmill/internal/contract"
	"github.com/spf13/cobra"
)

// reportCmd runs the parallel churn analysis.
var reportCmd = &cobra.Command{
	Use:   "report [repo-paths...]",
	Short: "Compute the monthly mean code churn series.",
	Long: `Scan Git history in parallel and report the mean code churn per calendar month.

The analysis window is sliced into intervals, each repository is copied into
isolated per-worker snapshots, and every worker sums line insertions and
deletions for its own slice of time. The samples from all repositories are
then merged into one month-ordered series.

With --threshold, the series is additionally split into before/after means so
you can see whether churn changed around a specific month.

A run with worker failures still prints the surviving partial series, lists
every failed repository and interval, and exits non-zero.

Examples:
  # Churn for the current repository over the past year
  churnmill report

  # Several repositories, two-week intervals, explicit window
  churnmill report ~/src/app ~/src/lib --since 2024-01-01 --step "2 weeks"

  # Did churn change after June 2024?
  churnmill report --threshold 2024-06

  # Machine-readable output plus an HTML chart
  churnmill report --output json --output-file churn.json --chart-file churn.html`,
	Args:    cobra.ArbitraryArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteChurnReport(rootCtx, cfg, gitReader, storeManager); err != nil {
			contract.LogFatal("Cannot run churn report", err)
		}
	},
}
