package cmon

import "time"

// DefaultLoadCommand asks CMON to load a file; CMON ignores the name.
const DefaultLoadCommand = "l : x\n"

// Progress is reported each time the echo of an S-record start byte is
// received.
type Progress struct {
	// State is the handshake state
	State State

	// Records is the number of S-record lines acknowledged so far
	Records int

	// BytesSent is the number of image bytes echoed so far
	BytesSent int

	// TotalBytes is the image size
	TotalBytes int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time since the transfer started
	ElapsedTime time.Duration
}

// ProgressCallback is called during a transfer to report progress.
type ProgressCallback func(Progress)

// Logger is an optional logging interface. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Config holds the loader configuration.
type Config struct {
	// ProgressCallback is called as records are acknowledged (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// WakeTimeout bounds the wait for the wake byte, which only arrives
	// after the board has been reset
	WakeTimeout time.Duration

	// ByteTimeout bounds every other wait: each magic byte, each echo and
	// each step of the go sequence
	ByteTimeout time.Duration

	// IdleTimeout ends pass-through when the program has been silent that
	// long. Zero follows until cancelled.
	IdleTimeout time.Duration

	// LoadCommand is written before waiting for the wake byte. Empty skips it.
	LoadCommand string
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		WakeTimeout: 30 * time.Second,
		ByteTimeout: 2 * time.Second,
		LoadCommand: DefaultLoadCommand,
	}
}

// Option is a functional option for configuring the Loader.
type Option func(*Config)

// WithProgressCallback sets a callback function to track transfer progress.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for loader operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithWakeTimeout sets how long to wait for the wake byte.
// Default is 30 seconds.
func WithWakeTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.WakeTimeout = timeout
		}
	}
}

// WithByteTimeout sets the bound on every wait after the wake byte.
// Default is 2 seconds.
//
// Example:
//
//	loader := cmon.New(link, cmon.WithByteTimeout(500*time.Millisecond))
func WithByteTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ByteTimeout = timeout
		}
	}
}

// WithIdleTimeout ends pass-through after the given silence.
// Default is 0 (follow until cancelled).
func WithIdleTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout >= 0 {
			c.IdleTimeout = timeout
		}
	}
}

// WithLoadCommand sets the command written before the handshake.
// An empty string disables it.
func WithLoadCommand(cmd string) Option {
	return func(c *Config) {
		c.LoadCommand = cmd
	}
}
