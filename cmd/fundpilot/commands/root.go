package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fundpilot",
	Short: "FundPilot - 基金投顾决策引擎",
	Long: `FundPilot Unified CLI

Rule-based quant signals arbitrated against an external AI advisor,
per fund, on a trading-day schedule.

Usage:
  go run ./cmd/fundpilot [command]

Examples:
  go run ./cmd/fundpilot run
  go run ./cmd/fundpilot run --fund 518880 --quant-only
  go run ./cmd/fundpilot serve
  go run ./cmd/fundpilot config validate`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}
