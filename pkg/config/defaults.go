package config

// Default returns the default configuration: info-level text logging to
// stderr, metrics off, and the plain-file driver.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "localhost:9090",
		},
		Driver: DriverConfig{
			Name:    "fs",
			Options: map[string]any{},
		},
	}
}

// ApplyDefaults fills unset fields of cfg with default values.
func ApplyDefaults(cfg *Config) {
	def := Default()

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = def.Logging.Output
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = def.Metrics.Listen
	}
	if cfg.Driver.Name == "" {
		cfg.Driver.Name = def.Driver.Name
	}
	if cfg.Driver.Options == nil {
		cfg.Driver.Options = map[string]any{}
	}
}
