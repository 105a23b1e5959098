package log

import "strings"

// Level is the severity of a log event. Higher values are more severe.
type Level int8

const (
	// TraceLevel is for very detailed diagnostics, such as per-sample dispatch.
	TraceLevel Level = iota + 1
	// DebugLevel is for debugging information useful while troubleshooting.
	DebugLevel
	// InfoLevel is for lifecycle events: reporters starting, jobs armed.
	InfoLevel
	// WarnLevel is for dropped data or degraded operation that does not stop the process.
	WarnLevel
	// ErrorLevel is for failed operations such as a push or a sample registration.
	ErrorLevel
	// FatalLevel events panic after being written.
	FatalLevel
)

// String returns the upper-case name of the level.
func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a case-insensitive level name to a Level.
// Unknown names map to InfoLevel.
func ParseLevel(levelStr string) Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "TRACE":
		return TraceLevel
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	case "FATAL":
		return FatalLevel
	}
	return InfoLevel
}
