package monitor

import "time"

// Load phases reported through Progress.Phase.
const (
	PhaseLoading  = "loading"
	PhaseComplete = "complete"
)

// Progress contains information about a running load.
// Passed to ProgressCallback after every acknowledged chunk.
type Progress struct {
	// Phase is PhaseLoading while chunks are sent and PhaseComplete at the end
	Phase string

	// Chunk is the number of chunks sent so far
	Chunk int

	// Address is the load address of the next chunk
	Address uint32

	// BytesWritten is the total payload sent so far
	BytesWritten int

	// TotalBytes is the image size when known in advance, otherwise 0
	TotalBytes int

	// Percentage is the completion percentage (0.0 to 100.0), or 0 when
	// TotalBytes is unknown
	Percentage float64

	// ElapsedTime is the time elapsed since the load started
	ElapsedTime time.Duration
}

// ProgressCallback is called during a load to report progress.
// Implementations should return quickly; the serial link is idle while
// the callback runs.
//
// Example:
//
//	sess := monitor.New(link,
//	    monitor.WithProgressCallback(func(p monitor.Progress) {
//	        fmt.Printf("\r%d chunks, %d bytes", p.Chunk, p.BytesWritten)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface. *slog.Logger satisfies it.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
