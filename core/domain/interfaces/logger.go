package interfaces

// Logger defines the interface for logging operations
type Logger interface {
	// With returns a logger that adds key=value to every entry
	With(key string, value any) Logger

	Error(message string)
	Errorf(format string, args ...any)

	Warn(message string)
	Warnf(format string, args ...any)

	Info(message string)
	Infof(format string, args ...any)

	Debug(message string)
	Debugf(format string, args ...any)

	// Success logs at INFO level but always shows regardless of log level
	Success(message string)
	// Successf logs at INFO level but always shows regardless of log level
	Successf(format string, args ...any)

	// PrintValidationErrors logs a numbered list of validation errors
	PrintValidationErrors(errors []string)
}
