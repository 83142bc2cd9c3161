package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that all values the service cannot run without are
// present. Redis and S3 are optional: the server degrades to no rate limiting
// and local media storage.
func ValidateConfig(cfg *Config) error {
	var errs []string

	if cfg.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}
	if cfg.DBHost == "" || cfg.DBPort == "" {
		errs = append(errs, "DB_HOST and DB_PORT are required")
	}
	if cfg.DBName == "" {
		errs = append(errs, "DB_NAME is required")
	}
	if IsProduction() && cfg.DBPassword == "" {
		errs = append(errs, "db_password secret is required in production")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errs, "\n"))
	}
	return nil
}
