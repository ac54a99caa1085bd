package parser

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	// Environment variable pattern: {{ env.VARIABLE_NAME }}
	envVarPattern = regexp.MustCompile(`\{\{\s*env\.(\w+)\s*\}\}`)
)

// SubstituteEnvVars replaces {{ env.VARIABLE_NAME }} placeholders with environment variable values
func SubstituteEnvVars(value string) (string, error) {
	result := value
	matches := envVarPattern.FindAllStringSubmatch(value, -1)
	seen := make(map[string]bool)

	for _, match := range matches {
		envVarName := match[1]
		placeholder := match[0]

		if seen[placeholder] {
			continue
		}
		seen[placeholder] = true

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			return "", fmt.Errorf("environment variable '%s' not found", envVarName)
		}

		result = strings.ReplaceAll(result, placeholder, envValue)
	}

	return result, nil
}

// SubstituteEnvVarsInConfig performs environment variable substitution on every
// string setting that may carry secrets or deployment-specific values
func SubstituteEnvVarsInConfig(cfg *Config) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"server.port", &cfg.Server.Port},
		{"catalog.static_file", &cfg.Catalog.StaticFile},
		{"catalog.connection_string", &cfg.Catalog.ConnectionString},
		{"catalog.table", &cfg.Catalog.Table},
		{"catalog.database", &cfg.Catalog.Database},
		{"catalog.collection", &cfg.Catalog.Collection},
		{"rate_limit.redis_url", &cfg.RateLimit.RedisURL},
	}

	for _, field := range fields {
		if *field.value == "" {
			continue
		}
		substituted, err := SubstituteEnvVars(*field.value)
		if err != nil {
			return fmt.Errorf("configuration error: failed to substitute environment variables in %s: %w", field.name, err)
		}
		*field.value = substituted
	}

	for i, origin := range cfg.CORS.AllowedOrigins {
		substituted, err := SubstituteEnvVars(origin)
		if err != nil {
			return fmt.Errorf("configuration error: failed to substitute environment variables in cors.allowed_origins[%d]: %w", i, err)
		}
		cfg.CORS.AllowedOrigins[i] = substituted
	}

	return nil
}
