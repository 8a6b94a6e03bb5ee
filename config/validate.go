package config

import "fmt"

// Validate checks the bootstrap config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	switch cfg.BuildMode {
	case BuildModeProduction, BuildModeDebug, BuildModeIntegrationTest:
	default:
		return fmt.Errorf("buildmode must be %q, %q, or %q", BuildModeProduction, BuildModeDebug, BuildModeIntegrationTest)
	}

	switch cfg.APIKey.Kind {
	case APIKeySourceEnv:
		if cfg.APIKey.EnvVar == "" {
			return fmt.Errorf("apikey.env is required when apikey.source = env")
		}
	case APIKeySourceFile:
		if cfg.APIKey.Path == "" {
			return fmt.Errorf("apikey.path is required when apikey.source = file")
		}
	case APIKeySourcePrompt:
	default:
		return fmt.Errorf("apikey.source must be %q, %q, or %q", APIKeySourceEnv, APIKeySourceFile, APIKeySourcePrompt)
	}

	if cfg.PollingIntervalMS < 0 {
		return fmt.Errorf("network.pollms must be >= 0")
	}

	return nil
}
