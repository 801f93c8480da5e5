package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/catapult-go/chainsync/config"
	"github.com/catapult-go/chainsync/libs/log"
)

// DefaultHomeDir is where config.toml and any on-disk state live when the
// user does not override it with --home.
const DefaultHomeDir = ".catapultd"

// ParseConfig merges viper's view of the environment (config file, flags,
// env vars) into conf and validates the result.
func ParseConfig(conf *config.Config) (*config.Config, error) {
	if err := viper.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := conf.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return conf, nil
}

// RootCommand constructs the root command-line entry point for the chain
// sync daemon.
func RootCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	var homeDir string

	cmd := &cobra.Command{
		Use:   "catapultd",
		Short: "Synchronizes the local chain against a remote peer's chain",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == VersionCmd.Name() {
				return nil
			}

			viper.SetConfigName("config")
			viper.SetConfigType("toml")
			viper.AddConfigPath(homeDir)
			viper.AddConfigPath(filepath.Join(homeDir, "config"))
			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					return fmt.Errorf("reading config file: %w", err)
				}
			}

			pconf, err := ParseConfig(conf)
			if err != nil {
				return err
			}
			*conf = *pconf
			logger.Debug("resolved configuration", "home", homeDir, "log_level", conf.LogLevel)
			return config.EnsureRoot(homeDir)
		},
	}

	cmd.PersistentFlags().StringVar(&homeDir, "home",
		os.ExpandEnv(filepath.Join("$HOME", DefaultHomeDir)), "directory for config and data")
	cmd.PersistentFlags().String("log-level", conf.LogLevel, "log level: debug | info | error | none")
	cmd.PersistentFlags().String("log-format", conf.LogFormat, "log output format: plain | json")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", cmd.PersistentFlags().Lookup("log-format"))

	cmd.AddCommand(VersionCmd)
	cmd.AddCommand(InitCmd(&homeDir, conf))
	cmd.AddCommand(StartCmd(conf))
	return cmd
}
