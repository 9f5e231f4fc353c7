package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/fundpilot/internal/contracts"
	"github.com/wonny/fundpilot/pkg/config"
)

// runCmd executes one decision batch and prints the results
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "일괄 의사결정 1회 실행",
	Long: `Runs the decision pipeline once over the configured fund pool and
prints each fund's final action, confidence and trace.

Example:
  go run ./cmd/fundpilot run
  go run ./cmd/fundpilot run --fund 518880
  go run ./cmd/fundpilot run --quant-only`,
	RunE: runOnce,
}

var (
	runFunds     []string
	runQuantOnly bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVar(&runFunds, "fund", nil, "restrict the run to these fund codes")
	runCmd.Flags().BoolVar(&runQuantOnly, "quant-only", false, "skip the advisory track")
}

func runOnce(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(runQuantOnly)
	if err != nil {
		return err
	}
	defer a.close()

	funds, err := selectFunds(a.cfg.Funds, runFunds)
	if err != nil {
		return err
	}
	if len(funds) == 0 {
		return fmt.Errorf("no funds configured: set FUND_LIST")
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Engine.RunDeadline)
	defer cancel()

	batch := a.engine.Run(ctx, funds, a.cfg.Engine.Workers)

	printBatch(batch)

	if batch.Evaluated() == 0 {
		return fmt.Errorf("no instrument could be evaluated")
	}
	return nil
}

// selectFunds filters the pool by the --fund flag
func selectFunds(pool []config.FundConfig, codes []string) ([]config.FundConfig, error) {
	if len(codes) == 0 {
		return pool, nil
	}

	byCode := make(map[string]config.FundConfig, len(pool))
	for _, f := range pool {
		byCode[f.Code] = f
	}

	var selected []config.FundConfig
	for _, code := range codes {
		f, ok := byCode[code]
		if !ok {
			return nil, fmt.Errorf("fund %s is not in FUND_LIST", code)
		}
		selected = append(selected, f)
	}
	return selected, nil
}

func printBatch(batch *contracts.BatchResult) {
	fmt.Printf("\n=== FundPilot run %s ===\n", batch.RunID)
	fmt.Printf("%d/%d funds evaluated in %s\n\n",
		batch.Evaluated(), len(batch.Results), batch.FinishedAt.Sub(batch.StartedAt).Round(1e6))

	for _, r := range batch.Results {
		if !r.Evaluated() {
			fmt.Printf("  %-8s %-24s SKIP  %s\n", r.Code, r.Name, r.Err)
			continue
		}

		d := r.Decision
		flags := make([]string, 0, 2)
		if d.Suppressed {
			flags = append(flags, "suppressed")
		}
		if d.Agreement {
			flags = append(flags, "agreement")
		}

		fmt.Printf("  %-8s %-24s %-4s  conf %.2f  [%s] %s\n",
			r.Code, r.Name, d.Action, d.Confidence, d.Path, strings.Join(flags, ","))
		fmt.Printf("           %s\n", d.Trace)
	}
	fmt.Println()
}
