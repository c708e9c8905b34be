package livestatus

import (
	"bytes"
	"strings"
)

// brokenCSVSyntax writes values unquoted. Dict entries reuse the host/service
// separator between key and value.
func brokenCSVSyntax(seps Separators) syntax {
	list := string(seps.List)
	hostService := string(seps.HostService)
	return syntax{
		rowSep:       string(seps.Field),
		rowEnd:       string(seps.Dataset),
		listSep:      list,
		sublistSep:   hostService,
		dictSep:      list,
		dictKeyValue: hostService,
		str:          func(buf *bytes.Buffer, s string) { buf.WriteString(s) },
		blob:         func(buf *bytes.Buffer, b []byte) { buf.Write(b) },
	}
}

var csvQuoter = strings.NewReplacer(`"`, `""`)

func csvSyntax() syntax {
	return syntax{
		rowElemBegin: `"`,
		rowElemEnd:   `"`,
		rowSep:       ",",
		rowEnd:       "\r\n",
		listSep:      ",",
		sublistSep:   "|",
		dictSep:      ",",
		dictKeyValue: "|",
		str:          func(buf *bytes.Buffer, s string) { csvQuoter.WriteString(buf, s) },
		blob:         func(buf *bytes.Buffer, b []byte) { csvQuoter.WriteString(buf, string(b)) },
	}
}
