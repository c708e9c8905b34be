package livestatus

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// renderSample renders the same two rows in every format: scalars first,
// then a list, a host/service sublist and a dict.
func renderSample(format OutputFormat, seps Separators) string {
	r := NewRenderer(format, seps)
	q := newQueryRenderer(r, true)

	row := q.Row()
	row.String("a")
	row.Int(1)
	row.Null()
	row.Double(0.5)
	row.End()

	row = q.Row()
	row.List(func(l *ListRenderer) {
		l.String("x")
		l.String("y")
	})
	row.List(func(l *ListRenderer) {
		l.Sublist(func(s *SublistRenderer) {
			s.String("h")
			s.String("s")
		})
	})
	row.Dict(func(d *DictRenderer) { d.Entry("k", "v") })
	row.End()

	q.Close()
	return r.String()
}

func TestRendererFormats(t *testing.T) {
	tests := []struct {
		name   string
		format OutputFormat
		want   string
	}{
		{"broken csv", FormatBrokenCSV, "a;1;;0.5\nx,y;h|s;k|v\n"},
		{"csv", FormatCSV, "\"a\",\"1\",\"\",\"0.5\"\r\n\"x,y\",\"h|s\",\"k|v\"\r\n"},
		{"json", FormatJSON, "[[\"a\",1,null,0.5],\n[[\"x\",\"y\"],[[\"h\",\"s\"]],{\"k\":\"v\"}]]\n"},
		{"python", FormatPython, "[[u\"a\",1,None,0.5],\n[[u\"x\",u\"y\"],[[u\"h\",u\"s\"]],{u\"k\":u\"v\"}]]\n"},
		{"python3", FormatPython3, "[[\"a\",1,None,0.5],\n[[\"x\",\"y\"],[[\"h\",\"s\"]],{\"k\":\"v\"}]]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderSample(tt.format, DefaultSeparators); got != tt.want {
				t.Errorf("render = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRendererCustomSeparators(t *testing.T) {
	seps := Separators{Dataset: '#', Field: '|', List: '+', HostService: '/'}
	assert.Equal(t, "a|1||0.5#x+y|h/s|k/v#", renderSample(FormatBrokenCSV, seps))
}

func TestRendererStringEscaping(t *testing.T) {
	tests := []struct {
		format OutputFormat
		in     string
		want   string
	}{
		{FormatBrokenCSV, `say "hi"`, `say "hi"` + "\n"},
		{FormatCSV, `say "hi"`, `"say ""hi"""` + "\r\n"},
		{FormatJSON, `say "hi"`, `[["say \"hi\""]]` + "\n"},
		{FormatJSON, "<b>", `[["<b>"]]` + "\n"},
		{FormatPython3, "tab\there", `[["tab\there"]]` + "\n"},
		{FormatPython, `back\slash`, `[[u"back\\slash"]]` + "\n"},
	}
	for _, tt := range tests {
		r := NewRenderer(tt.format, DefaultSeparators)
		q := newQueryRenderer(r, true)
		row := q.Row()
		row.String(tt.in)
		row.End()
		q.Close()
		if got := r.String(); got != tt.want {
			t.Errorf("format %d: render(%q) = %q, want %q", tt.format, tt.in, got, tt.want)
		}
	}
}

func TestRendererBlobs(t *testing.T) {
	tests := []struct {
		format OutputFormat
		blob   []byte
		want   string
	}{
		{FormatPython3, []byte("a\x00\"z"), `[[b"a\x00\"z"]]` + "\n"},
		{FormatPython, []byte("\xff"), `[["\xff"]]` + "\n"},
		{FormatBrokenCSV, []byte("raw;data"), "raw;data\n"},
		{FormatJSON, nil, "[[null]]\n"},
		{FormatPython, nil, "[[None]]\n"},
	}
	for _, tt := range tests {
		r := NewRenderer(tt.format, DefaultSeparators)
		q := newQueryRenderer(r, true)
		row := q.Row()
		row.Blob(tt.blob)
		row.End()
		q.Close()
		if got := r.String(); got != tt.want {
			t.Errorf("format %d: blob %q = %q, want %q", tt.format, tt.blob, got, tt.want)
		}
	}
}

func TestRendererDoubles(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1"},
		{0.1, "0.1"},
		{1234567, "1.23457e+06"},
		{math.NaN(), "null"},
		{math.Inf(1), "null"},
	}
	for _, tt := range tests {
		r := NewRenderer(FormatJSON, DefaultSeparators)
		r.outputDouble(tt.in)
		if got := r.String(); got != tt.want {
			t.Errorf("outputDouble(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRendererEmptyQuery(t *testing.T) {
	for format, want := range map[OutputFormat]string{
		FormatBrokenCSV: "",
		FormatCSV:       "",
		FormatJSON:      "[]\n",
		FormatPython3:   "[]\n",
	} {
		r := NewRenderer(format, DefaultSeparators)
		newQueryRenderer(r, true).Close()
		assert.Equal(t, want, r.String(), "format %d", format)
	}
}

func TestParseOutputFormat(t *testing.T) {
	for name, want := range outputFormatNames {
		got, err := parseOutputFormat(name)
		assert.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
	_, err := parseOutputFormat("xml")
	assert.Error(t, err)
}
