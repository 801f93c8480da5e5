package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/catapult-go/chainsync/config"
)

// InitCmd writes a default config.toml into homeDir/config.
func InitCmd(homeDir *string, _ *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a config.toml with default values",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.EnsureRoot(*homeDir); err != nil {
				return err
			}
			configPath := filepath.Join(*homeDir, "config", "config.toml")
			if err := config.WriteConfigFile(*homeDir, config.DefaultConfig()); err != nil {
				return fmt.Errorf("writing %s: %w", configPath, err)
			}
			fmt.Println("wrote", configPath)
			return nil
		},
	}
}
