package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fundpilot/internal/assetprofile"
)

// configCmd groups configuration utilities
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "설정 점검 도구",
}

// configValidateCmd checks the profiles YAML without starting anything
var configValidateCmd = &cobra.Command{
	Use:   "validate [profiles.yaml]",
	Short: "전략 프로파일 YAML 검증",
	Long: `Validates the strategy profile file: strict field check, band and
threshold constraints, bond breaker asymmetry. Prints the SHA-256
config hash on success.

Example:
  go run ./cmd/fundpilot config validate
  go run ./cmd/fundpilot config validate config/profiles.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := "config/profiles.yaml"
	if len(args) == 1 {
		path = args[0]
	}

	profiles, err := assetprofile.Load(path)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	hash, err := assetprofile.Hash(profiles)
	if err != nil {
		return fmt.Errorf("hash failed: %w", err)
	}

	fmt.Printf("✅ %s is valid\n", path)
	fmt.Printf("   classes: %d, windows: %d/%d/%d, hash: %s\n",
		len(profiles.Profiles),
		profiles.Windows.Short, profiles.Windows.Mid, profiles.Windows.Long,
		hash)

	return nil
}
