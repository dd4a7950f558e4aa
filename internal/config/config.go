// Package config provides configuration management for the Prop Scout service.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Health     HealthConfig     `mapstructure:"health"`
	Provider   ProviderConfig   `mapstructure:"provider" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Prediction PredictionConfig `mapstructure:"prediction" validate:"required"`
	Refresh    RefreshConfig    `mapstructure:"refresh" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// ServerConfig represents the prediction API HTTP server configuration
type ServerConfig struct {
	Port           int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// HealthConfig represents the health probe server configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
}

// ProviderConfig represents the upstream sports-data API configuration
type ProviderConfig struct {
	BaseURL             string  `mapstructure:"base_url" validate:"required,url"`
	APIKey              string  `mapstructure:"api_key"`
	RateLimit           float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
	TimeoutSeconds      int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries          int     `mapstructure:"max_retries" validate:"gte=0"`
	CacheTTLMinutes     int     `mapstructure:"cache_ttl_minutes" validate:"required,gt=0"`
	CircuitBreakerTrips int     `mapstructure:"circuit_breaker_trips" validate:"required,gt=0"`
}

// DatabaseConfig represents the optional prediction-history database. When
// Enabled is false the service runs purely in-memory.
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
}

// PredictionConfig represents the model and scan tuning knobs shared by all
// domains.
type PredictionConfig struct {
	Season       string   `mapstructure:"season" validate:"required"`
	BlendWeight  float64  `mapstructure:"blend_weight" validate:"gte=0,lte=1"`
	MinProb      float64  `mapstructure:"min_prob" validate:"required,gt=0,lt=1"`
	MaxProb      float64  `mapstructure:"max_prob" validate:"required,gt=0,lt=1"`
	RecentWindow int      `mapstructure:"recent_window" validate:"required,gt=0"`
	Domains      []string `mapstructure:"domains" validate:"required,min=1,domains"`
}

// RefreshConfig represents refresh scheduling and fan-out bounds
type RefreshConfig struct {
	IntervalMinutes   int `mapstructure:"interval_minutes" validate:"required,gt=0"`
	StaggerSeconds    int `mapstructure:"stagger_seconds" validate:"required,gt=0"`
	FixtureLimit      int `mapstructure:"fixture_limit" validate:"required,gt=0"`
	MaxPlayersPerTeam int `mapstructure:"max_players_per_team" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// RefreshInterval returns the refresh interval as a duration
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Refresh.IntervalMinutes) * time.Minute
}

// RefreshStagger returns the per-domain startup stagger as a duration
func (c *Config) RefreshStagger() time.Duration {
	return time.Duration(c.Refresh.StaggerSeconds) * time.Second
}
