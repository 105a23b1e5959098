package log

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"unicode/utf8"
)

const _hex = "0123456789abcdef"

func appendBeginMarker(buf *bytes.Buffer) {
	buf.WriteByte('{')
}

func appendEndMarker(buf *bytes.Buffer) {
	buf.WriteByte('}')
}

func appendLineBreak(buf *bytes.Buffer) {
	buf.WriteByte('\n')
}

// appendKey writes `"key":`, preceded by a comma unless it is the first field.
func appendKey(buf *bytes.Buffer, key string) {
	if buf.Len() >= 1 && buf.Bytes()[buf.Len()-1] != '{' {
		buf.WriteByte(',')
	}
	appendString(buf, key)
	buf.WriteByte(':')
}

func appendNil(buf *bytes.Buffer) {
	buf.WriteString("null")
}

func appendBool(buf *bytes.Buffer, v bool) {
	buf.WriteString(strconv.FormatBool(v))
}

func appendInt64(buf *bytes.Buffer, v int64) {
	var tmp [20]byte
	buf.Write(strconv.AppendInt(tmp[:0], v, 10))
}

func appendUint64(buf *bytes.Buffer, v uint64) {
	var tmp [20]byte
	buf.Write(strconv.AppendUint(tmp[:0], v, 10))
}

func appendFloat64(buf *bytes.Buffer, v float64) {
	switch {
	case math.IsNaN(v):
		buf.WriteString(`"NaN"`)
	case math.IsInf(v, 1):
		buf.WriteString(`"+Inf"`)
	case math.IsInf(v, -1):
		buf.WriteString(`"-Inf"`)
	default:
		var tmp [32]byte
		buf.Write(strconv.AppendFloat(tmp[:0], v, 'f', -1, 64))
	}
}

func appendStrings(buf *bytes.Buffer, vals []string) {
	buf.WriteByte('[')
	for i, v := range vals {
		if i > 0 {
			buf.WriteByte(',')
		}
		appendString(buf, v)
	}
	buf.WriteByte(']')
}

func appendAny(buf *bytes.Buffer, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		appendString(buf, err.Error())
		return
	}
	buf.Write(b)
}

// appendString writes s as a JSON string. The common case of printable ASCII
// without quotes or backslashes is written in one call.
func appendString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c == '"' || c == '\\' || c >= utf8.RuneSelf {
			appendStringComplex(buf, s, i)
			buf.WriteByte('"')
			return
		}
	}
	buf.WriteString(s)
	buf.WriteByte('"')
}

// appendStringComplex escapes s starting at the first byte that needs it.
func appendStringComplex(buf *bytes.Buffer, s string, i int) {
	start := 0
	for i < len(s) {
		c := s[i]
		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size == 1 {
				buf.WriteString(s[start:i])
				buf.WriteString(`�`)
				i += size
				start = i
				continue
			}
			i += size
			continue
		}
		if c >= 0x20 && c != '"' && c != '\\' {
			i++
			continue
		}
		buf.WriteString(s[start:i])
		switch c {
		case '"', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			buf.WriteString(`\u00`)
			buf.WriteByte(_hex[c>>4])
			buf.WriteByte(_hex[c&0xF])
		}
		i++
		start = i
	}
	buf.WriteString(s[start:])
}
