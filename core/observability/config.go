package observability

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hyperterse/querycheck/core/parser"
)

type Config struct {
	Enabled           bool
	TracesEnabled     bool
	MetricsEnabled    bool
	ServiceName       string
	ServiceVersion    string
	Environment       string
	OTLPEndpoint      string
	TraceSamplingRate float64
}

// ResolveConfig builds the telemetry configuration from QUERYCHECK_OTEL_*
// environment variables. Export is disabled unless QUERYCHECK_OTEL_ENABLED is set.
func ResolveConfig(serviceVersion string) (Config, error) {
	cfg := Config{
		Enabled:           false,
		TracesEnabled:     true,
		MetricsEnabled:    true,
		ServiceName:       "querycheck",
		ServiceVersion:    "dev",
		Environment:       "development",
		OTLPEndpoint:      "localhost:4317",
		TraceSamplingRate: 1.0,
	}
	if serviceVersion != "" {
		cfg.ServiceVersion = serviceVersion
	}

	overrideBool("QUERYCHECK_OTEL_ENABLED", &cfg.Enabled)
	overrideBool("QUERYCHECK_OTEL_TRACES_ENABLED", &cfg.TracesEnabled)
	overrideBool("QUERYCHECK_OTEL_METRICS_ENABLED", &cfg.MetricsEnabled)
	overrideString("QUERYCHECK_OTEL_SERVICE_NAME", &cfg.ServiceName)
	overrideString("QUERYCHECK_OTEL_ENVIRONMENT", &cfg.Environment)
	overrideString("QUERYCHECK_OTEL_ENDPOINT", &cfg.OTLPEndpoint)
	overrideFloat("QUERYCHECK_OTEL_TRACE_SAMPLING_RATIO", &cfg.TraceSamplingRate)

	if cfg.TraceSamplingRate < 0 {
		cfg.TraceSamplingRate = 0
	}
	if cfg.TraceSamplingRate > 1 {
		cfg.TraceSamplingRate = 1
	}

	for name, target := range map[string]*string{
		"service name":  &cfg.ServiceName,
		"environment":   &cfg.Environment,
		"otlp endpoint": &cfg.OTLPEndpoint,
	} {
		resolved, err := parser.SubstituteEnvVars(strings.TrimSpace(*target))
		if err != nil {
			return Config{}, fmt.Errorf("resolve observability %s: %w", name, err)
		}
		*target = resolved
	}

	return cfg, nil
}

func overrideString(name string, target *string) {
	if value := os.Getenv(name); value != "" {
		*target = value
	}
}

func overrideBool(name string, target *bool) {
	value := os.Getenv(name)
	if value == "" {
		return
	}
	if parsed, err := strconv.ParseBool(value); err == nil {
		*target = parsed
	}
}

func overrideFloat(name string, target *float64) {
	value := os.Getenv(name)
	if value == "" {
		return
	}
	if parsed, err := strconv.ParseFloat(value, 64); err == nil {
		*target = parsed
	}
}
