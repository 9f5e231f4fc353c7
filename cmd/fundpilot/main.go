package main

import (
	"os"

	"github.com/wonny/fundpilot/cmd/fundpilot/commands"
)

// main is the entry point for the FundPilot CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/fundpilot [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
