package log

import (
	"io"
	"os"
	"sync"
)

// ConsoleAppender writes log lines to standard output without buffering.
type ConsoleAppender struct {
	WriterAppender
}

// NewConsoleAppender creates a ConsoleAppender bound to os.Stdout.
func NewConsoleAppender() *ConsoleAppender {
	return &ConsoleAppender{WriterAppender: WriterAppender{w: os.Stdout}}
}

// WriterAppender writes log lines to an arbitrary io.Writer.
// Writes are serialized so that lines from different goroutines never interleave.
type WriterAppender struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterAppender creates an appender writing to w.
func NewWriterAppender(w io.Writer) *WriterAppender {
	return &WriterAppender{w: w}
}

// Write writes buf to the underlying writer.
func (a *WriterAppender) Write(buf []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.w.Write(buf)
}

// Refresh is a no-op; writes are unbuffered.
func (a *WriterAppender) Refresh() error {
	return nil
}

// Close is a no-op; the writer is owned by the caller.
func (a *WriterAppender) Close() error {
	return nil
}
