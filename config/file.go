package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key = value
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "buildmode":
		cfg.BuildMode = BuildMode(value)
	case "datadir":
		cfg.DataDir = value

	case "apikey.source":
		cfg.APIKey.Kind = APIKeySourceKind(value)
	case "apikey.env":
		cfg.APIKey.EnvVar = value
	case "apikey.path":
		cfg.APIKey.Path = value

	case "network.pollms":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.PollingIntervalMS = n

	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// LoadFromFile reads the conf file under dataDir (if any) and returns a
// Config seeded from mode's defaults and overridden by the file.
func LoadFromFile(dataDir string, mode BuildMode) (*Config, error) {
	cfg := Default(mode)
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	values, err := LoadFile(cfg.ConfigFile())
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, values); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteDefaultConfig writes a default configuration file for mode.
func WriteDefaultConfig(path string, mode BuildMode) error {
	content := `# WalletNet Configuration
#
# This file contains the network controller's bootstrap settings.

# Build mode: production, debug, or test — selects the default network
# a fresh install connects to (mainnet, goerli, localhost respectively).
buildmode = ` + string(mode) + `

# Data directory (default: ` + DefaultDataDir() + `)
# datadir = ~/.walletnet

# ============================================================================
# API key (hosted first-party network credential)
# ============================================================================

# Source: env, file, or prompt
apikey.source = env
apikey.env = WALLETNET_API_KEY
# apikey.path = ~/.walletnet/apikey

# ============================================================================
# Network
# ============================================================================

# Block tracker polling cadence, in milliseconds. Accepted and validated,
# but block trackers poll at their fixed 4000 ms default regardless.
# network.pollms = 4000

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
