package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/klingon-tech/wallet-netctl/config"
)

// resolveAPIKey reads the first-party hosted network credential from
// wherever src says it lives. The desktop app never prompts interactively
// for it (that's the CLI's job via golang.org/x/term) — a prompt source
// here is a configuration error.
func resolveAPIKey(src config.APIKeySource) (string, error) {
	switch src.Kind {
	case config.APIKeySourceEnv:
		v := os.Getenv(src.EnvVar)
		if strings.TrimSpace(v) == "" {
			return "", fmt.Errorf("environment variable %q is empty", src.EnvVar)
		}
		return v, nil
	case config.APIKeySourceFile:
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return "", fmt.Errorf("read api key file: %w", err)
		}
		v := strings.TrimSpace(string(data))
		if v == "" {
			return "", fmt.Errorf("api key file %q is empty", src.Path)
		}
		return v, nil
	default:
		return "", fmt.Errorf("api key source %q is not supported outside an interactive terminal", src.Kind)
	}
}
