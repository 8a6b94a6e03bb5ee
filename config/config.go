// Package config handles application configuration for the wallet's
// network controller: where the API key comes from, which network a
// fresh install defaults to, and where its persisted state lives.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// BuildMode selects the default network a fresh install connects to,
// mirroring how a real wallet ships a different default per build
// channel (production/debug/integration test).
type BuildMode string

const (
	BuildModeProduction      BuildMode = "production"
	BuildModeDebug           BuildMode = "debug"
	BuildModeIntegrationTest BuildMode = "test"
)

// APIKeySourceKind distinguishes where the first-party hosted
// endpoint's credential comes from.
type APIKeySourceKind string

const (
	// APIKeySourceEnv reads the key from an environment variable.
	APIKeySourceEnv APIKeySourceKind = "env"
	// APIKeySourceFile reads the key from a file on disk (e.g. a
	// secret mounted by the OS keychain integration).
	APIKeySourceFile APIKeySourceKind = "file"
	// APIKeySourcePrompt reads the key interactively (CLI only).
	APIKeySourcePrompt APIKeySourceKind = "prompt"
)

// APIKeySource describes how to obtain the credential for the
// first-party hosted network endpoints.
type APIKeySource struct {
	Kind APIKeySourceKind `conf:"apikey.source"`
	// EnvVar names the environment variable when Kind == APIKeySourceEnv.
	EnvVar string `conf:"apikey.env"`
	// Path names the file when Kind == APIKeySourceFile.
	Path string `conf:"apikey.path"`
}

// Config holds the controller's bootstrap configuration. These
// settings can vary between installs without affecting wire protocol
// compatibility — there is no genesis/consensus layer here, since the
// controller is a client of someone else's chain, never a node.
type Config struct {
	// BuildMode selects defaults when no persisted state exists yet.
	BuildMode BuildMode `conf:"buildmode"`

	// DataDir is where the persisted composite network state (and any
	// badger files backing it) live on disk.
	DataDir string `conf:"datadir"`

	APIKey APIKeySource

	// PollingIntervalMS is read from network.pollms and checked by
	// Validate. It is not passed to the network client factory: block
	// trackers always poll at clientfactory.DefaultPollingInterval.
	PollingIntervalMS int `conf:"network.pollms"`

	Log LogConfig
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.walletnet
//	macOS:   ~/Library/Application Support/WalletNet
//	Windows: %APPDATA%\WalletNet
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".walletnet"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "WalletNet")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "WalletNet")
		}
		return filepath.Join(home, "AppData", "Roaming", "WalletNet")
	default:
		return filepath.Join(home, ".walletnet")
	}
}

// StateDB returns the path to the badger directory backing the
// persisted composite network state.
func (c *Config) StateDB() string {
	return filepath.Join(c.DataDir, "state")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "walletnet.conf")
}
