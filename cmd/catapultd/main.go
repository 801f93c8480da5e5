package main

import (
	"os"

	"github.com/catapult-go/chainsync/cmd/catapultd/commands"
	"github.com/catapult-go/chainsync/config"
	"github.com/catapult-go/chainsync/libs/log"
)

func main() {
	conf := config.DefaultConfig()
	logger := log.NewNopLogger()
	if l, err := log.NewDefaultLogger(config.LogFormatPlain, "info"); err == nil {
		logger = l
	}

	rootCmd := commands.RootCommand(conf, logger)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
