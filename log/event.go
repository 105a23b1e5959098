package log

import (
	"bytes"
	"time"
)

// LogEvent is one log line under construction. Obtain it from a level method
// on Logger, add fields, and finish it with Msg or End.
type LogEvent struct {
	buf    *bytes.Buffer
	logger *Logger
	level  Level
	msg    string
}

func newEvent(l *Logger) *LogEvent {
	e := &LogEvent{
		logger: l,
		buf:    &bytes.Buffer{},
	}
	e.buf.Grow(512)
	return e
}

func (e *LogEvent) reset(level Level) {
	e.buf.Reset()
	e.level = level
	e.msg = ""
	appendBeginMarker(e.buf)
}

// Time adds a timestamp formatted as "2006-01-02 15:04:05.000".
func (e *LogEvent) Time(k string, v time.Time) *LogEvent {
	if e == nil {
		return nil
	}
	appendKey(e.buf, k)
	e.buf.WriteByte('"')
	e.buf.WriteString(v.Format("2006-01-02 15:04:05.000"))
	e.buf.WriteByte('"')
	return e
}

// Str adds a string field.
func (e *LogEvent) Str(k, v string) *LogEvent {
	if e == nil {
		return nil
	}
	appendKey(e.buf, k)
	appendString(e.buf, v)
	return e
}

// Strs adds a string array field.
func (e *LogEvent) Strs(k string, v []string) *LogEvent {
	if e == nil {
		return nil
	}
	appendKey(e.buf, k)
	appendStrings(e.buf, v)
	return e
}

// Int adds an int field.
func (e *LogEvent) Int(k string, v int) *LogEvent {
	if e == nil {
		return nil
	}
	appendKey(e.buf, k)
	appendInt64(e.buf, int64(v))
	return e
}

// Int64 adds an int64 field.
func (e *LogEvent) Int64(k string, v int64) *LogEvent {
	if e == nil {
		return nil
	}
	appendKey(e.buf, k)
	appendInt64(e.buf, v)
	return e
}

// Uint64 adds a uint64 field.
func (e *LogEvent) Uint64(k string, v uint64) *LogEvent {
	if e == nil {
		return nil
	}
	appendKey(e.buf, k)
	appendUint64(e.buf, v)
	return e
}

// Float64 adds a float64 field. NaN and infinities are written as strings.
func (e *LogEvent) Float64(k string, v float64) *LogEvent {
	if e == nil {
		return nil
	}
	appendKey(e.buf, k)
	appendFloat64(e.buf, v)
	return e
}

// Bool adds a boolean field.
func (e *LogEvent) Bool(k string, v bool) *LogEvent {
	if e == nil {
		return nil
	}
	appendKey(e.buf, k)
	appendBool(e.buf, v)
	return e
}

// Dur adds a duration field rendered with time.Duration.String.
func (e *LogEvent) Dur(k string, v time.Duration) *LogEvent {
	if e == nil {
		return nil
	}
	appendKey(e.buf, k)
	appendString(e.buf, v.String())
	return e
}

// Any adds a field rendered as a JSON value, or its error text when it cannot be marshaled.
func (e *LogEvent) Any(k string, v any) *LogEvent {
	if e == nil {
		return nil
	}
	appendKey(e.buf, k)
	appendAny(e.buf, v)
	return e
}

// Err adds the "error" field; a nil error is written as null.
func (e *LogEvent) Err(v error) *LogEvent {
	if e == nil {
		return nil
	}
	appendKey(e.buf, "error")
	if v != nil {
		appendString(e.buf, v.Error())
	} else {
		appendNil(e.buf)
	}
	return e
}

// Msg adds the "msg" field and writes the event.
func (e *LogEvent) Msg(v string) {
	if e == nil {
		return
	}
	e.msg = v
	e.Str("msg", v)
	e.End()
}

// End writes the event without a message.
func (e *LogEvent) End() {
	if e == nil {
		return
	}
	appendEndMarker(e.buf)
	appendLineBreak(e.buf)
	e.logger.onEventEnd(e)
}
