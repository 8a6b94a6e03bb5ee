package config

// DefaultProduction returns the configuration a production install
// starts with: mainnet by default, API key read from the environment.
func DefaultProduction() *Config {
	return &Config{
		BuildMode: BuildModeProduction,
		DataDir:   DefaultDataDir(),
		APIKey: APIKeySource{
			Kind:   APIKeySourceEnv,
			EnvVar: "WALLETNET_API_KEY",
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultDebug returns the configuration a debug build starts with:
// goerli by default, matching the controller's own build-mode default
// network selection (internal/network.Controller).
func DefaultDebug() *Config {
	cfg := DefaultProduction()
	cfg.BuildMode = BuildModeDebug
	cfg.Log.Level = "debug"
	return cfg
}

// DefaultIntegrationTest returns the configuration used by integration
// tests: localhost by default, API key irrelevant since a local RPC
// network requires none.
func DefaultIntegrationTest() *Config {
	cfg := DefaultProduction()
	cfg.BuildMode = BuildModeIntegrationTest
	cfg.APIKey = APIKeySource{Kind: APIKeySourcePrompt}
	return cfg
}

// Default returns the default configuration for the given build mode.
func Default(mode BuildMode) *Config {
	switch mode {
	case BuildModeDebug:
		return DefaultDebug()
	case BuildModeIntegrationTest:
		return DefaultIntegrationTest()
	default:
		return DefaultProduction()
	}
}
