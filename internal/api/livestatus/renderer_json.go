package livestatus

import (
	"bytes"

	gojson "github.com/goccy/go-json"
)

func jsonString(buf *bytes.Buffer, s string) {
	out, err := gojson.MarshalNoEscape(s)
	if err != nil {
		buf.WriteString(`""`)
		return
	}
	buf.Write(out)
}

func jsonSyntax() syntax {
	return syntax{
		queryBegin:   "[",
		querySep:     ",\n",
		queryEnd:     "]\n",
		rowBegin:     "[",
		rowSep:       ",",
		rowEnd:       "]",
		listBegin:    "[",
		listSep:      ",",
		listEnd:      "]",
		sublistBegin: "[",
		sublistSep:   ",",
		sublistEnd:   "]",
		dictBegin:    "{",
		dictSep:      ",",
		dictKeyValue: ":",
		dictEnd:      "}",
		null:         "null",
		str:          jsonString,
		blob:         func(buf *bytes.Buffer, b []byte) { jsonString(buf, string(b)) },
	}
}
