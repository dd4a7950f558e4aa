// Package config provides configuration management for the Prop Scout service.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("domains", validateDomains)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateDomains validates the configured prediction domains
func validateDomains(fl validator.FieldLevel) bool {
	domains, ok := fl.Field().Interface().([]string)
	if !ok || len(domains) == 0 {
		return false
	}
	for _, d := range domains {
		switch d {
		case "basketball", "football":
		default:
			return false
		}
	}
	return true
}

// validateCrossField enforces constraints spanning multiple fields.
func validateCrossField(cfg *Config) error {
	if cfg.Prediction.MinProb >= cfg.Prediction.MaxProb {
		return fmt.Errorf("prediction.min_prob (%.3f) must be below prediction.max_prob (%.3f)",
			cfg.Prediction.MinProb, cfg.Prediction.MaxProb)
	}

	if cfg.Database.Enabled {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database.host, database.name and database.user are required when database is enabled")
		}
		if cfg.Database.Port == 0 {
			return fmt.Errorf("database.port is required when database is enabled")
		}
	}

	return nil
}

func formatValidationErrors(errs validator.ValidationErrors) error {
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return fmt.Errorf("invalid configuration: field %q failed rule %q (and %d more)",
		first.Namespace(), first.Tag(), len(errs)-1)
}
