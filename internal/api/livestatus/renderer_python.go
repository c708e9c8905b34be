package livestatus

import (
	"bytes"
	"strconv"
)

// pythonBytes writes b as a quoted byte string body, escaping everything
// outside printable ASCII.
func pythonBytes(buf *bytes.Buffer, b []byte) {
	const hex = "0123456789abcdef"
	buf.WriteByte('"')
	for _, c := range b {
		switch {
		case c == '"' || c == '\\':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		case c >= 0x20 && c < 0x7f:
			buf.WriteByte(c)
		default:
			buf.WriteString(`\x`)
			buf.WriteByte(hex[c>>4])
			buf.WriteByte(hex[c&0xf])
		}
	}
	buf.WriteByte('"')
}

func pythonSyntax(python3 bool) syntax {
	syn := jsonSyntax()
	syn.null = "None"
	if python3 {
		syn.str = func(buf *bytes.Buffer, s string) { buf.WriteString(strconv.Quote(s)) }
		syn.blob = func(buf *bytes.Buffer, b []byte) {
			buf.WriteByte('b')
			pythonBytes(buf, b)
		}
		return syn
	}
	syn.str = func(buf *bytes.Buffer, s string) {
		buf.WriteByte('u')
		buf.WriteString(strconv.Quote(s))
	}
	syn.blob = pythonBytes
	return syn
}
