package ffff

import "time"

// Logger is an optional logging interface the Builder reports through.
// It matches any structured logger that takes a message and key-value
// pairs.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// Config holds the builder configuration.
type Config struct {
	// Logger receives build progress messages (optional)
	Logger Logger

	// BuildTime, when non-zero, is stamped into the header timestamp
	// field instead of the current time. Used for reproducible builds.
	BuildTime time.Time
}

func defaultConfig() Config {
	return Config{}
}

// Option is a functional option for configuring the Builder.
type Option func(*Config)

// WithLogger sets a logger for build operations.
//
// Example:
//
//	b := ffff.NewBuilder(ffff.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithBuildTime pins the header timestamp to t instead of the wall
// clock, making builds reproducible.
//
// Example:
//
//	b := ffff.NewBuilder(ffff.WithBuildTime(releaseTime))
func WithBuildTime(t time.Time) Option {
	return func(c *Config) {
		c.BuildTime = t
	}
}
