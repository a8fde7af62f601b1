package config

import "go.uber.org/fx"

// NewProvider supplies the application configuration to the fx graph. A
// non-nil config is handed through unchanged; otherwise the environment is
// loaded on first use, surfacing parse failures as fx errors.
func NewProvider(customConfig *Config) fx.Option {
	if customConfig != nil {
		return fx.Provide(func() *Config {
			return customConfig
		})
	}

	return fx.Provide(func() (*Config, error) {
		cfg := &Config{}
		if err := LoadConfig(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	})
}
