package log

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileAppender writes log lines to a file through a buffered writer.
// The file is opened in append mode and its directory is created if missing.
type FileAppender struct {
	mu   sync.Mutex
	path string
	file *os.File
	w    *bufio.Writer
}

// NewFileAppender opens (or creates) the file at path.
func NewFileAppender(path string) (*FileAppender, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return &FileAppender{
		path: path,
		file: f,
		w:    bufio.NewWriterSize(f, 32*1024),
	}, nil
}

// Write appends buf to the file buffer.
func (a *FileAppender) Write(buf []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return 0, os.ErrClosed
	}
	return a.w.Write(buf)
}

// Refresh flushes buffered lines to disk.
func (a *FileAppender) Refresh() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	return a.w.Flush()
}

// Close flushes and closes the file. Further writes fail with os.ErrClosed.
func (a *FileAppender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	if err := a.w.Flush(); err != nil {
		_ = a.file.Close()
		a.file = nil
		return err
	}
	err := a.file.Close()
	a.file = nil
	return err
}
