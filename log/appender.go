package log

// LogAppender is an output destination for formatted log lines.
// Implementations must be safe for concurrent use: the scheduler and push
// goroutines log at the same time.
type LogAppender interface {
	// Write outputs one formatted log line.
	Write(buf []byte) (n int, err error)
	// Refresh flushes any buffered data.
	Refresh() error
	// Close flushes and releases the underlying resources.
	Close() error
}
