package config

import (
	"fmt"

	"github.com/catapult-go/chainsync/internal/chain"
	"github.com/pkg/errors"
)

const (
	// LogFormatPlain is a format for colored/plain text log output.
	LogFormatPlain = "plain"
	// LogFormatJSON is a format for json log output.
	LogFormatJSON = "json"
)

// Config defines the top level configuration for a chain-sync node.
type Config struct {
	BaseConfig `mapstructure:",squash"`

	ChainSync       *ChainSyncConfig       `mapstructure:"chainsync"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		ChainSync:       DefaultChainSyncConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration tuned for fast, deterministic tests.
func TestConfig() *Config {
	cfg := DefaultConfig()
	cfg.ChainSync.MaxBlocksPerSyncAttempt = 20
	cfg.ChainSync.MaxRollbackBlocks = 10
	cfg.ChainSync.MaxChainBytesPerSyncAttempt = 1 << 16
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.ChainSync.ValidateBasic(); err != nil {
		return errors.Wrap(err, "error in [chainsync] section")
	}
	return errors.Wrap(cfg.Instrumentation.ValidateBasic(), "error in [instrumentation] section")
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines options shared across every service in the node.
type BaseConfig struct {
	// A custom human readable name for this node, used only in logs/metrics.
	Moniker string `mapstructure:"moniker"`

	// Log level: debug | info | error | none.
	LogLevel string `mapstructure:"log_level"`

	// Log output format: plain | json.
	LogFormat string `mapstructure:"log_format"`
}

// DefaultBaseConfig returns a default base configuration.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		Moniker:   "anonymous",
		LogLevel:  "info",
		LogFormat: LogFormatPlain,
	}
}

// ValidateBasic performs basic validation.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case LogFormatPlain, LogFormatJSON:
	default:
		return fmt.Errorf("unknown log_format %q", cfg.LogFormat)
	}
	return nil
}

//-----------------------------------------------------------------------------
// ChainSyncConfig

// ChainSyncConfig defines the configuration recognized by the chain
// synchronizer (see §6 of the design: max_blocks_per_sync_attempt,
// max_rollback_blocks, max_chain_bytes_per_sync_attempt).
type ChainSyncConfig struct {
	// Passed to the chain comparator as MaxBlocksToAnalyze. CompareChains
	// does not read it: its ancestor search is bounded by
	// max_rollback_blocks alone.
	MaxBlocksPerSyncAttempt uint32 `mapstructure:"max_blocks_per_sync_attempt"`

	// Upper bound on the number of blocks pulled per remote request; also
	// bounds the finalization/rollback depth.
	MaxRollbackBlocks uint32 `mapstructure:"max_rollback_blocks"`

	// Byte cap per remote block request. The unprocessed-byte admission
	// threshold is derived as 3x this value.
	MaxChainBytesPerSyncAttempt uint64 `mapstructure:"max_chain_bytes_per_sync_attempt"`
}

// DefaultChainSyncConfig returns a default configuration for the chain
// synchronizer.
func DefaultChainSyncConfig() *ChainSyncConfig {
	return &ChainSyncConfig{
		MaxBlocksPerSyncAttempt:     360,
		MaxRollbackBlocks:           360,
		MaxChainBytesPerSyncAttempt: 100 * 1024 * 1024,
	}
}

// MaxUnprocessedBytes is the admission threshold for the unprocessed
// elements tracker: 3x the per-request byte cap.
func (cfg *ChainSyncConfig) MaxUnprocessedBytes() uint64 {
	return 3 * cfg.MaxChainBytesPerSyncAttempt
}

// ToChainSynchronizerConfiguration converts this configuration into the
// plain struct the chain package's constructors take, keeping that package
// free of a dependency on mapstructure tags and TOML-facing concerns.
func (cfg *ChainSyncConfig) ToChainSynchronizerConfiguration() chain.ChainSynchronizerConfiguration {
	return chain.ChainSynchronizerConfiguration{
		MaxBlocksPerSyncAttempt:     cfg.MaxBlocksPerSyncAttempt,
		MaxRollbackBlocks:           cfg.MaxRollbackBlocks,
		MaxChainBytesPerSyncAttempt: cfg.MaxChainBytesPerSyncAttempt,
	}
}

// ValidateBasic performs basic validation.
func (cfg *ChainSyncConfig) ValidateBasic() error {
	if cfg.MaxBlocksPerSyncAttempt == 0 {
		return errors.New("max_blocks_per_sync_attempt must be greater than 0")
	}
	if cfg.MaxRollbackBlocks == 0 {
		return errors.New("max_rollback_blocks must be greater than 0")
	}
	if cfg.MaxChainBytesPerSyncAttempt == 0 {
		return errors.New("max_chain_bytes_per_sync_attempt must be greater than 0")
	}
	return nil
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are served under /metrics on
	// PrometheusListenAddr.
	Prometheus bool `mapstructure:"prometheus"`

	// Address to listen for Prometheus collector(s) connections.
	PrometheusListenAddr string `mapstructure:"prometheus_listen_addr"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:           true,
		PrometheusListenAddr: ":26670",
		Namespace:            "catapult",
	}
}

// ValidateBasic performs basic validation.
func (cfg *InstrumentationConfig) ValidateBasic() error {
	if cfg.Namespace == "" {
		return errors.New("namespace cannot be empty")
	}
	return nil
}
