package parser

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hyperterse/querycheck/core/logger"
)

var (
	// log is the logger instance for the validator package
	log = logger.New("parser")

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationErrors represents a collection of validation errors
type ValidationErrors struct {
	Errors []string
}

// Error implements the error interface
// Returns a simple message since detailed errors are already logged
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return ""
	}
	return fmt.Sprintf("validation failed with %d error(s)", len(ve.Errors))
}

// Validate checks the struct rules and the cross-field rules of a Config
func Validate(cfg *Config) error {
	log.Debugf("Validating configuration")
	var errs []string

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("failed to validate configuration: %w", err)
		}
		for _, fieldErr := range fieldErrs {
			errs = append(errs, describeFieldError(fieldErr))
		}
	}

	if cfg.Catalog.FallbackStatic && cfg.Catalog.Backend != BackendStatic && cfg.Catalog.StaticFile == "" {
		errs = append(errs, "catalog.static_file is required when catalog.fallback_static is set")
	}
	if cfg.RateLimit.Window < 0 {
		errs = append(errs, "rate_limit.window must not be negative")
	}
	if cfg.Catalog.CacheTTL < 0 {
		errs = append(errs, "catalog.cache_ttl must not be negative")
	}

	if len(errs) > 0 {
		log.PrintValidationErrors(errs)
		return &ValidationErrors{Errors: errs}
	}
	return nil
}

func describeFieldError(fieldErr validator.FieldError) string {
	field := strings.TrimPrefix(fieldErr.Namespace(), "Config.")
	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if", "required_unless":
		return fmt.Sprintf("%s is required for this catalog backend", field)
	case "oneof":
		return fmt.Sprintf("%s '%v' is invalid. Must be one of: %s", field, fieldErr.Value(), strings.ReplaceAll(fieldErr.Param(), " ", ", "))
	case "min", "max":
		return fmt.Sprintf("%s must satisfy %s=%s", field, fieldErr.Tag(), fieldErr.Param())
	default:
		return fmt.Sprintf("%s '%v' is not a valid %s", field, fieldErr.Value(), fieldErr.Tag())
	}
}
