package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const defaultDirPerm = 0700

// defaultConfigFileName is the name of the config file written under the
// node's config directory.
const defaultConfigFileName = "config.toml"

// EnsureRoot creates the root and config directories if they don't exist.
func EnsureRoot(rootDir string) error {
	if err := os.MkdirAll(rootDir, defaultDirPerm); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(rootDir, "config"), defaultDirPerm)
}

// WriteConfigFile renders cfg as TOML and writes it under rootDir/config.
func WriteConfigFile(rootDir string, cfg *Config) error {
	path := filepath.Join(rootDir, "config", defaultConfigFileName)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// LoadConfigFile reads and decodes a TOML config file at path, starting
// from DefaultConfig so unspecified fields keep their defaults.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
