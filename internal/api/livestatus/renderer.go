package livestatus

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// OutputFormat selects the wire syntax of a response body.
type OutputFormat int

const (
	FormatBrokenCSV OutputFormat = iota // "csv": unquoted, custom separators
	FormatCSV                           // "CSV": RFC 4180 style quoting
	FormatJSON
	FormatPython
	FormatPython3
)

var outputFormatNames = map[string]OutputFormat{
	"csv":     FormatBrokenCSV,
	"CSV":     FormatCSV,
	"json":    FormatJSON,
	"python":  FormatPython,
	"python3": FormatPython3,
}

func parseOutputFormat(s string) (OutputFormat, error) {
	if f, ok := outputFormatNames[s]; ok {
		return f, nil
	}
	return FormatBrokenCSV, fmt.Errorf("missing/invalid output format, use one of 'CSV', 'csv', 'json', 'python' or 'python3'")
}

// Separators are the four delimiters of the broken CSV format.
type Separators struct {
	Dataset     byte
	Field       byte
	List        byte
	HostService byte
}

// DefaultSeparators are "\n", ";", "," and "|".
var DefaultSeparators = Separators{Dataset: '\n', Field: ';', List: ',', HostService: '|'}

// syntax is the per-format vocabulary a Renderer emits.
type syntax struct {
	queryBegin, querySep, queryEnd            string
	rowBegin, rowElemBegin, rowElemEnd        string
	rowSep, rowEnd                            string
	listBegin, listSep, listEnd               string
	sublistBegin, sublistSep, sublistEnd      string
	dictBegin, dictSep, dictKeyValue, dictEnd string
	null                                      string

	str  func(buf *bytes.Buffer, s string)
	blob func(buf *bytes.Buffer, b []byte)
}

// Renderer writes one response body in a given output format.
type Renderer struct {
	buf    bytes.Buffer
	syntax syntax
}

// NewRenderer returns a renderer for format. seps only matters for the
// broken CSV format.
func NewRenderer(format OutputFormat, seps Separators) *Renderer {
	var syn syntax
	switch format {
	case FormatCSV:
		syn = csvSyntax()
	case FormatJSON:
		syn = jsonSyntax()
	case FormatPython:
		syn = pythonSyntax(false)
	case FormatPython3:
		syn = pythonSyntax(true)
	default:
		syn = brokenCSVSyntax(seps)
	}
	return &Renderer{syntax: syn}
}

func (r *Renderer) Len() int       { return r.buf.Len() }
func (r *Renderer) Bytes() []byte  { return r.buf.Bytes() }
func (r *Renderer) String() string { return r.buf.String() }

func (r *Renderer) raw(s string) { r.buf.WriteString(s) }

func (r *Renderer) outputNull()           { r.raw(r.syntax.null) }
func (r *Renderer) outputString(s string) { r.syntax.str(&r.buf, s) }
func (r *Renderer) outputInt(v int64)     { r.buf.WriteString(strconv.FormatInt(v, 10)) }

func (r *Renderer) outputBlob(b []byte) {
	if b == nil {
		r.outputNull()
		return
	}
	r.syntax.blob(&r.buf, b)
}

// outputDouble uses six significant digits; NaN and infinities render as null.
func (r *Renderer) outputDouble(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		r.outputNull()
		return
	}
	r.buf.WriteString(strconv.FormatFloat(v, 'g', 6, 64))
}

// QueryRenderer emits the rows of one response.
type QueryRenderer struct {
	r            *Renderer
	emitBeginEnd bool
	first        bool
}

func newQueryRenderer(r *Renderer, emitBeginEnd bool) *QueryRenderer {
	if emitBeginEnd {
		r.raw(r.syntax.queryBegin)
	}
	return &QueryRenderer{r: r, emitBeginEnd: emitBeginEnd, first: true}
}

// Row starts the next row; call End on the result when done.
func (q *QueryRenderer) Row() *RowRenderer {
	if q.first {
		q.first = false
	} else {
		q.r.raw(q.r.syntax.querySep)
	}
	return newRowRenderer(q.r, true)
}

func (q *QueryRenderer) Close() {
	if q.emitBeginEnd {
		q.r.raw(q.r.syntax.queryEnd)
	}
}

// RowRenderer emits the elements of one row.
type RowRenderer struct {
	r            *Renderer
	emitBeginEnd bool
	first        bool
}

func newRowRenderer(r *Renderer, emitBeginEnd bool) *RowRenderer {
	if emitBeginEnd {
		r.raw(r.syntax.rowBegin)
	}
	return &RowRenderer{r: r, emitBeginEnd: emitBeginEnd, first: true}
}

func (rr *RowRenderer) next() {
	if rr.first {
		rr.first = false
	} else {
		rr.r.raw(rr.r.syntax.rowSep)
	}
}

func (rr *RowRenderer) element(write func()) {
	rr.next()
	rr.r.raw(rr.r.syntax.rowElemBegin)
	write()
	rr.r.raw(rr.r.syntax.rowElemEnd)
}

func (rr *RowRenderer) Null()            { rr.element(rr.r.outputNull) }
func (rr *RowRenderer) Int(v int64)      { rr.element(func() { rr.r.outputInt(v) }) }
func (rr *RowRenderer) Double(v float64) { rr.element(func() { rr.r.outputDouble(v) }) }
func (rr *RowRenderer) String(s string)  { rr.element(func() { rr.r.outputString(s) }) }
func (rr *RowRenderer) Blob(b []byte)    { rr.element(func() { rr.r.outputBlob(b) }) }

// Fragment writes pre-rendered row elements verbatim.
func (rr *RowRenderer) Fragment(f string) {
	rr.next()
	rr.r.raw(f)
}

// List renders a list element; fill adds the items.
func (rr *RowRenderer) List(fill func(l *ListRenderer)) {
	rr.element(func() {
		rr.r.raw(rr.r.syntax.listBegin)
		fill(&ListRenderer{r: rr.r, first: true})
		rr.r.raw(rr.r.syntax.listEnd)
	})
}

// Dict renders a dict element; fill adds the entries.
func (rr *RowRenderer) Dict(fill func(d *DictRenderer)) {
	rr.element(func() {
		rr.r.raw(rr.r.syntax.dictBegin)
		fill(&DictRenderer{r: rr.r, first: true})
		rr.r.raw(rr.r.syntax.dictEnd)
	})
}

func (rr *RowRenderer) End() {
	if rr.emitBeginEnd {
		rr.r.raw(rr.r.syntax.rowEnd)
	}
}

// ListRenderer emits list items.
type ListRenderer struct {
	r     *Renderer
	first bool
}

func (l *ListRenderer) next() {
	if l.first {
		l.first = false
	} else {
		l.r.raw(l.r.syntax.listSep)
	}
}

func (l *ListRenderer) Int(v int64)     { l.next(); l.r.outputInt(v) }
func (l *ListRenderer) String(s string) { l.next(); l.r.outputString(s) }

// Sublist renders a nested list, e.g. a host/service pair.
func (l *ListRenderer) Sublist(fill func(s *SublistRenderer)) {
	l.next()
	l.r.raw(l.r.syntax.sublistBegin)
	fill(&SublistRenderer{r: l.r, first: true})
	l.r.raw(l.r.syntax.sublistEnd)
}

// SublistRenderer emits the items of a nested list.
type SublistRenderer struct {
	r     *Renderer
	first bool
}

func (s *SublistRenderer) next() {
	if s.first {
		s.first = false
	} else {
		s.r.raw(s.r.syntax.sublistSep)
	}
}

func (s *SublistRenderer) Int(v int64)     { s.next(); s.r.outputInt(v) }
func (s *SublistRenderer) String(v string) { s.next(); s.r.outputString(v) }
func (s *SublistRenderer) Time(v int64)    { s.next(); s.r.outputInt(v) }

// DictRenderer emits key/value pairs.
type DictRenderer struct {
	r     *Renderer
	first bool
}

func (d *DictRenderer) Entry(key, value string) {
	if d.first {
		d.first = false
	} else {
		d.r.raw(d.r.syntax.dictSep)
	}
	d.r.outputString(key)
	d.r.raw(d.r.syntax.dictKeyValue)
	d.r.outputString(value)
}
