package livestatus

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputBufferFlush(t *testing.T) {
	tests := []struct {
		name   string
		header ResponseHeader
		code   ResponseCode
		msg    string
		body   string
		want   string
	}{
		{"plain", ResponseHeaderOff, 0, "", "a;b\n", "a;b\n"},
		{"fixed16", ResponseHeaderFixed16, 0, "", "a;b\n", "200           4\na;b\n"},
		{"fixed16 empty", ResponseHeaderFixed16, 0, "", "", "200           0\n"},
		{"fixed16 error replaces body", ResponseHeaderFixed16, CodeNotFound, "no such table", "partial\n",
			"404          14\nno such table\n"},
		{"error appended without header", ResponseHeaderOff, CodeBadRequest, "bad", "partial\n", "partial\nbad\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &OutputBuffer{Header: tt.header}
			if tt.code != 0 {
				out.SetError(tt.code, "%s", tt.msg)
			}
			var buf bytes.Buffer
			n, err := out.Flush(&buf, []byte(tt.body))
			require.NoError(t, err)
			if got := buf.String(); got != tt.want {
				t.Errorf("Flush = %q, want %q", got, tt.want)
			}
			assert.LessOrEqual(t, n, buf.Len())
		})
	}
}

func TestOutputBufferLastErrorWins(t *testing.T) {
	out := &OutputBuffer{}
	assert.False(t, out.HasError())
	assert.Equal(t, CodeOK, out.Code())

	out.SetError(CodeBadRequest, "first %d", 1)
	out.SetError(CodeNotFound, "second")
	assert.True(t, out.HasError())
	assert.Equal(t, CodeNotFound, out.Code())
	assert.Equal(t, "second", out.Message())
}
