package main

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanplexian/livestatusd/internal/api"
	"github.com/oceanplexian/livestatusd/internal/api/livestatus"
)

const testSnapshot = `
hosts:
  - name: web-01
    address: 10.0.0.1
  - name: web-02
    address: 10.0.0.2
services:
  - host_name: web-01
    description: HTTP
`

func TestBuildRequest(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"adds header", []string{"GET hosts", "Columns: name"}, "GET hosts\nColumns: name\nResponseHeader: fixed16\n\n"},
		{"keeps header", []string{"GET hosts", "ResponseHeader: off"}, "GET hosts\nResponseHeader: off\n\n"},
		{"drops blanks", []string{"GET hosts\r", "", "Limit: 1"}, "GET hosts\nLimit: 1\nResponseHeader: fixed16\n\n"},
		{"command", []string{"COMMAND [1] DISABLE_NOTIFICATIONS"}, "COMMAND [1] DISABLE_NOTIFICATIONS\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildRequest(tt.lines); got != tt.want {
				t.Errorf("buildRequest() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadResponse(t *testing.T) {
	code, body, err := readResponse(bufio.NewReader(strings.NewReader("200           6\nweb-01trailing")))
	require.NoError(t, err)
	assert.Equal(t, 200, code)
	assert.Equal(t, "web-01", string(body))

	for _, bad := range []string{"200", "20x           1\nx", "200 abc        \n", "200           9\nshort"} {
		_, _, err := readResponse(bufio.NewReader(strings.NewReader(bad)))
		assert.Error(t, err, bad)
	}
}

func TestPrettyJSON(t *testing.T) {
	assert.Equal(t, "[\n  [\n    \"a\",\n    1\n  ]\n]\n", string(prettyJSON([]byte(`[["a",1]]`))))
	assert.Equal(t, "a;1\n", string(prettyJSON([]byte("a;1\n"))))
}

func TestRunQueryAgainstServer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSnapshot), 0o644))
	provider, err := loadProvider(path, api.Options{})
	require.NoError(t, err)

	srv := livestatus.New(livestatus.Config{}, livestatus.NewRegistry(provider), nil, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeListener(ctx, ln) }()
	defer func() {
		cancel()
		<-done
	}()

	opts := queryOptions{tcp: ln.Addr().String(), timeout: 5 * time.Second}
	var out bytes.Buffer
	require.NoError(t, runQuery(&out, []string{"GET hosts", "Columns: name address"}, opts))
	assert.Equal(t, "web-01;10.0.0.1\nweb-02;10.0.0.2\n", out.String())

	err = runQuery(&out, []string{"GET nosuch"}, opts)
	assert.EqualError(t, err, "server returned 404: Invalid GET request, no such table 'nosuch'")
}

func TestLoadProviderEmpty(t *testing.T) {
	provider, err := loadProvider("", api.Options{})
	require.NoError(t, err)
	assert.Empty(t, provider.Hosts())

	_, err = loadProvider(filepath.Join(t.TempDir(), "missing.yaml"), api.Options{})
	assert.Error(t, err)
}
