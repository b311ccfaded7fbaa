package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Browser:  "chrome",
			Limit:    5,
			Format:   "markdown",
			LogLevel: "info",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   "",
		},
		Cache: CacheConfig{
			Enabled:      true,
			TTLSeconds:   300,
			MaxEntries:   1000,
			WatchSources: false,
		},
		Security: SecurityConfig{
			SensitiveParams: DefaultSensitiveParams(),
		},
		Advanced: AdvancedConfig{
			FuzzyThreshold: 0.6,
			MaxQueryLimit:  1000,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Webhooks: []WebhookConfig{},
	}
}
