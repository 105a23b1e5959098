// Package log is a small structured logger producing one JSON object per line.
// The package-level functions log through a process default logger that can be
// replaced with Initialize or SetDefaultLogger.
package log

import "sync/atomic"

var _defaultLogger atomic.Pointer[Logger]

func init() {
	_defaultLogger.Store(NewLogger(getDefaultCfg()))
}

// Initialize replaces the default logger with one built from cfg.
// A nil cfg restores the console defaults.
func Initialize(cfg *LogCfg) error {
	if cfg == nil {
		cfg = getDefaultCfg()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	SetDefaultLogger(NewLogger(cfg))
	return nil
}

// SetDefaultLogger replaces the default logger.
func SetDefaultLogger(logger *Logger) {
	_defaultLogger.Store(logger)
}

// Default returns the current default logger.
func Default() *Logger {
	return _defaultLogger.Load()
}

// AddAppender adds an appender to the default logger.
func AddAppender(appender LogAppender) {
	Default().AddAppender(appender)
}

// Refresh flushes the default logger's appenders.
func Refresh() {
	Default().Refresh()
}

// Close flushes and closes the default logger's appenders.
func Close() {
	Default().Close()
}

// Trace starts a trace-level event on the default logger.
func Trace() *LogEvent { return Default().Trace() }

// Debug starts a debug-level event on the default logger.
func Debug() *LogEvent { return Default().Debug() }

// Info starts an info-level event on the default logger.
func Info() *LogEvent { return Default().Info() }

// Warn starts a warn-level event on the default logger.
func Warn() *LogEvent { return Default().Warn() }

// Error starts an error-level event on the default logger.
func Error() *LogEvent { return Default().Error() }

// Fatal starts a fatal-level event on the default logger. It panics after writing.
func Fatal() *LogEvent { return Default().Fatal() }
