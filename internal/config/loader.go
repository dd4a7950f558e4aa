// Package config provides configuration management for the Prop Scout service.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment
// variables. Environment variable placeholders in the YAML file (${VAR_NAME})
// are expanded before parsing. A missing file is not an error: defaults and
// environment variables alone can configure the service.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix("PROP_SCOUT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "prop-scout")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8080)

	v.SetDefault("provider.rate_limit", 5.0)
	v.SetDefault("provider.timeout_seconds", 30)
	v.SetDefault("provider.max_retries", 3)
	v.SetDefault("provider.cache_ttl_minutes", 15)
	v.SetDefault("provider.circuit_breaker_trips", 5)

	v.SetDefault("prediction.blend_weight", 0.6)
	v.SetDefault("prediction.min_prob", 0.58)
	v.SetDefault("prediction.max_prob", 0.62)
	v.SetDefault("prediction.recent_window", 5)
	v.SetDefault("prediction.domains", []string{"basketball", "football"})

	v.SetDefault("refresh.interval_minutes", 120)
	v.SetDefault("refresh.stagger_seconds", 15)
	v.SetDefault("refresh.fixture_limit", 10)
	v.SetDefault("refresh.max_players_per_team", 6)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
