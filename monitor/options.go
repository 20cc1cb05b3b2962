package monitor

import (
	"time"

	"github.com/moffa90/go-shload/protocol"
)

// MaxChunkSize bounds the payload of a single memory-write command.
const MaxChunkSize = 256

// LoadPolicy decides which failures end a load.
type LoadPolicy struct {
	// AbortOnSendFailure stops the load when a chunk cannot be sent.
	// When false the chunk is skipped and its address range left unwritten.
	AbortOnSendFailure bool

	// AbortOnReceiveFailure stops the load when the reply to a chunk is
	// missing, truncated or an error reply. When false the failure is logged
	// and the load continues with the next chunk.
	AbortOnReceiveFailure bool
}

// DefaultLoadPolicy aborts on send failures and tolerates lost replies.
var DefaultLoadPolicy = LoadPolicy{
	AbortOnSendFailure:    true,
	AbortOnReceiveFailure: false,
}

// Config holds the session configuration.
type Config struct {
	// ProgressCallback is called during loads to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// SendTimeout is the wall-clock budget for writing one packet
	SendTimeout time.Duration

	// ReceiveTimeout is the wall-clock budget for reading one reply up to
	// its terminator
	ReceiveTimeout time.Duration

	// TrailerTimeout bounds each trailing checksum byte read after a reply
	// that ended without a terminator
	TrailerTimeout time.Duration

	// MaxResponseSize is the reply ceiling in bytes
	MaxResponseSize int

	// VerifyChecksum checks reply checksums and answers '-' on mismatch.
	// Off by default; the monitor's replies were never verified in practice.
	VerifyChecksum bool

	// ChunkSize is the maximum payload per memory-write command. Longer
	// records are split.
	ChunkSize int

	// LoadPolicy selects which load failures are fatal
	LoadPolicy LoadPolicy

	// MemoryDumpSize is the default length requested by MemoryDump
	MemoryDumpSize int
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		SendTimeout:     2 * time.Second,
		ReceiveTimeout:  2 * time.Second,
		TrailerTimeout:  100 * time.Millisecond,
		MaxResponseSize: protocol.DefaultMaxResponseSize,
		ChunkSize:       128,
		LoadPolicy:      DefaultLoadPolicy,
		MemoryDumpSize:  protocol.DefaultMemoryDumpSize,
	}
}

// Option is a functional option for configuring the Session.
type Option func(*Config)

// WithProgressCallback sets a callback function to track load progress.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for session operations.
//
// Example:
//
//	sess := monitor.New(link, monitor.WithLogger(slog.Default()))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithTimeout sets both send and receive timeouts.
//
// Example:
//
//	sess := monitor.New(link, monitor.WithTimeout(5*time.Second))
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.SendTimeout = timeout
			c.ReceiveTimeout = timeout
		}
	}
}

// WithSendTimeout sets the budget for writing one packet.
func WithSendTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.SendTimeout = timeout
		}
	}
}

// WithReceiveTimeout sets the budget for reading one reply.
func WithReceiveTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ReceiveTimeout = timeout
		}
	}
}

// WithTrailerTimeout sets the wait for checksum bytes after a failed reply.
func WithTrailerTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.TrailerTimeout = timeout
		}
	}
}

// WithMaxResponseSize sets the reply ceiling.
// Default is 1024 bytes.
func WithMaxResponseSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.MaxResponseSize = size
		}
	}
}

// WithVerifyChecksum enables or disables reply checksum verification.
// Default is false.
//
// Example:
//
//	sess := monitor.New(link, monitor.WithVerifyChecksum(true))
func WithVerifyChecksum(verify bool) Option {
	return func(c *Config) {
		c.VerifyChecksum = verify
	}
}

// WithChunkSize sets the maximum payload per memory-write command.
// Default is 128 bytes.
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 && size <= MaxChunkSize {
			c.ChunkSize = size
		}
	}
}

// WithLoadPolicy sets which load failures are fatal.
//
// Example:
//
//	sess := monitor.New(link, monitor.WithLoadPolicy(monitor.LoadPolicy{
//	    AbortOnSendFailure:    true,
//	    AbortOnReceiveFailure: true,
//	}))
func WithLoadPolicy(policy LoadPolicy) Option {
	return func(c *Config) {
		c.LoadPolicy = policy
	}
}

// WithMemoryDumpSize sets the default memory dump length.
// Default is 0x100 bytes.
func WithMemoryDumpSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.MemoryDumpSize = size
		}
	}
}
