package log

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Logger writes structured JSON log lines to a set of appenders.
//
//	logger.Info().Str("url", url).Dur("period", p).Msg("push job armed")
//
// A disabled level returns a nil *LogEvent; every LogEvent method is nil-safe,
// so call sites never check the level themselves.
type Logger struct {
	mu                sync.RWMutex
	appenders         []LogAppender
	minLevel          atomic.Int32
	callerSkip        int
	enabledCallerInfo bool
	eventPool         sync.Pool
	callerCache       sync.Map
}

// NewLogger creates a Logger from cfg. A nil cfg uses the console defaults.
// If the file appender cannot be opened the logger falls back to the console
// and reports the failure on it.
func NewLogger(cfg *LogCfg) *Logger {
	if cfg == nil {
		cfg = getDefaultCfg()
	}
	l := &Logger{
		callerSkip:        cfg.CallerSkip,
		enabledCallerInfo: cfg.EnabledCallerInfo,
	}
	l.minLevel.Store(int32(cfg.Level()))
	l.eventPool.New = func() any {
		return newEvent(l)
	}

	var fileErr error
	if cfg.FileAppender {
		fa, err := NewFileAppender(cfg.LogPath)
		if err != nil {
			fileErr = err
		} else {
			l.AddAppender(fa)
		}
	}
	if cfg.ConsoleAppender || fileErr != nil {
		l.AddAppender(NewConsoleAppender())
	}
	if fileErr != nil {
		l.Error().Err(fileErr).Msg("file appender disabled")
	}
	return l
}

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.minLevel.Store(int32(level))
}

// GetLevel returns the current minimum level.
func (l *Logger) GetLevel() Level {
	return Level(l.minLevel.Load())
}

// AddAppender registers another output destination.
func (l *Logger) AddAppender(appender LogAppender) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appenders = append(l.appenders, appender)
}

// GetAppender returns the registered appenders.
func (l *Logger) GetAppender() []LogAppender {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]LogAppender(nil), l.appenders...)
}

// Refresh flushes every appender.
func (l *Logger) Refresh() {
	for _, a := range l.GetAppender() {
		_ = a.Refresh()
	}
}

// Close flushes and closes every appender.
func (l *Logger) Close() {
	for _, a := range l.GetAppender() {
		_ = a.Close()
	}
}

// Trace starts a trace-level event.
func (l *Logger) Trace() *LogEvent { return l.log(TraceLevel) }

// Debug starts a debug-level event.
func (l *Logger) Debug() *LogEvent { return l.log(DebugLevel) }

// Info starts an info-level event.
func (l *Logger) Info() *LogEvent { return l.log(InfoLevel) }

// Warn starts a warn-level event.
func (l *Logger) Warn() *LogEvent { return l.log(WarnLevel) }

// Error starts an error-level event.
func (l *Logger) Error() *LogEvent { return l.log(ErrorLevel) }

// Fatal starts a fatal-level event. The logger panics once the event is written.
func (l *Logger) Fatal() *LogEvent { return l.log(FatalLevel) }

func (l *Logger) enabled(level Level) bool {
	return Level(l.minLevel.Load()) <= level
}

func (l *Logger) log(level Level) *LogEvent {
	if !l.enabled(level) {
		return nil
	}
	e := l.eventPool.Get().(*LogEvent)
	e.reset(level)

	t := time.Now()
	e.Time("time", t)
	e.Str("level", level.String())
	if l.enabledCallerInfo {
		e.Str("caller", l.caller())
	}
	return e
}

// onEventEnd writes the finished event and returns it to the pool.
func (l *Logger) onEventEnd(e *LogEvent) {
	for _, a := range l.GetAppender() {
		_, _ = a.Write(e.buf.Bytes())
	}
	level := e.level
	msg := e.msg
	l.eventPool.Put(e)
	if level == FatalLevel {
		panic(msg)
	}
}

// caller resolves "dir/file.go:line func" of the code that created the event.
func (l *Logger) caller() string {
	// caller, log and the level method sit between runtime.Caller and the call site.
	pc, file, line, ok := runtime.Caller(3 + l.callerSkip)
	if !ok {
		return "unknown"
	}
	if cached, found := l.callerCache.Load(pc); found {
		return cached.(string)
	}

	fn := "unknown"
	if f := runtime.FuncForPC(pc); f != nil {
		fn = f.Name()
		if i := strings.LastIndexByte(fn, '.'); i != -1 {
			fn = fn[i+1:]
		}
	}
	if i := strings.LastIndexByte(file, '/'); i > 0 {
		if j := strings.LastIndexByte(file[:i], '/'); j >= 0 {
			file = file[j+1:]
		}
	}
	info := file + ":" + strconv.Itoa(line) + " " + fn
	l.callerCache.Store(pc, info)
	return info
}
