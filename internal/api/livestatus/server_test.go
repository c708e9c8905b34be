package livestatus

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oceanplexian/livestatusd/internal/api"
	"github.com/oceanplexian/livestatusd/internal/logging"
	"github.com/oceanplexian/livestatusd/internal/metrics"
)

// startServer runs srv on a loopback port until the test ends.
func startServer(t *testing.T, srv *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeListener(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return ln.Addr().String()
}

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	return conn
}

// readFixed16 reads one response with a fixed16 header.
func readFixed16(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	header := make([]byte, 16)
	_, err := io.ReadFull(r, header)
	require.NoError(t, err)
	var code, length int
	_, err = fmt.Sscanf(strings.TrimSpace(string(header)), "%d %d", &code, &length)
	require.NoError(t, err)
	body := make([]byte, length)
	_, err = io.ReadFull(r, body)
	require.NoError(t, err)
	return strings.TrimSpace(string(header[:3])), string(body)
}

func TestServerQuery(t *testing.T) {
	reg, _ := newTestRegistry(t)
	addr := startServer(t, New(Config{}, reg, nil, nil))

	conn := dial(t, addr)
	_, err := io.WriteString(conn, "GET hosts\nColumns: name\nFilter: state = 0\n\n")
	require.NoError(t, err)

	got, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(got), "connection closes without KeepAlive")
}

func TestServerKeepAliveFixed16(t *testing.T) {
	reg, _ := newTestRegistry(t)
	collector := metrics.NewCollector()
	addr := startServer(t, New(Config{}, reg, collector, nil))

	conn := dial(t, addr)
	r := bufio.NewReader(conn)
	for _, host := range []string{"a", "b"} {
		_, err := io.WriteString(conn, "GET hosts\nColumns: state\nFilter: name = "+host+"\nKeepAlive: on\nResponseHeader: fixed16\n\n")
		require.NoError(t, err)
		code, body := readFixed16(t, r)
		assert.Equal(t, "200", code)
		if host == "a" {
			assert.Equal(t, "0\n", body)
		} else {
			assert.Equal(t, "1\n", body)
		}
	}

	_, err := io.WriteString(conn, "GET nosuch\nResponseHeader: fixed16\n\n")
	require.NoError(t, err)
	code, body := readFixed16(t, r)
	assert.Equal(t, "404", code)
	assert.Equal(t, "Invalid GET request, no such table 'nosuch'\n", body)

	snap := collector.Snapshot()
	assert.Equal(t, uint64(1), snap.Connections)
	assert.Equal(t, uint64(3), snap.Requests)
}

func TestServerInvalidMethod(t *testing.T) {
	reg, _ := newTestRegistry(t)
	srv := New(Config{}, reg, nil, nil)

	got := string(srv.Query("PUT hosts\nResponseHeader: fixed16\n"))
	assert.Equal(t, "Invalid request method\n", got)
}

func TestServerQueryHelper(t *testing.T) {
	reg, _ := newTestRegistry(t)
	srv := New(Config{}, reg, nil, nil)
	assert.Equal(t, "b\nc\n", string(srv.Query("GET hosts\nColumns: name\nFilter: state = 1\n")))
	assert.Nil(t, srv.Query("\n\n"))
}

func TestServerBatchesCommands(t *testing.T) {
	reg, _ := newTestRegistry(t)
	var mu sync.Mutex
	var batches [][]api.CommandEntry
	srv := New(Config{}, reg, nil, nil)
	srv.SetBatchCommandSink(func(cmds []api.CommandEntry) {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, cmds)
	})
	addr := startServer(t, srv)

	// Commands separated by blank lines, as Thruk sends them.
	conn := dial(t, addr)
	bulk := "COMMAND [1234567890] ENABLE_SVC_NOTIFICATIONS;a;HTTP\n\n" +
		"COMMAND [1234567890] ENABLE_SVC_NOTIFICATIONS;a;SSH\n\n" +
		"COMMAND [1234567890] ENABLE_SVC_NOTIFICATIONS;b;HTTP\n\n" +
		"GET hosts\nColumns: name\nFilter: name = a\n\n"
	_, err := io.WriteString(conn, bulk)
	require.NoError(t, err)
	got, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(got))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches, 1, "commands before a query go out as one batch")
	require.Len(t, batches[0], 3)
	assert.Equal(t, "ENABLE_SVC_NOTIFICATIONS", batches[0][2].Name)
	assert.Equal(t, []string{"b", "HTTP"}, batches[0][2].Args)
}

func TestServerCommandsFlushedOnClose(t *testing.T) {
	reg, _ := newTestRegistry(t)
	received := make(chan string, 4)
	srv := New(Config{}, reg, nil, nil)
	srv.SetCommandSink(func(name string, args []string) { received <- name })
	addr := startServer(t, srv)

	conn := dial(t, addr)
	_, err := io.WriteString(conn, "COMMAND [1] DISABLE_NOTIFICATIONS\n\nCOMMAND [2] ENABLE_NOTIFICATIONS\n")
	require.NoError(t, err)
	conn.Close()

	for _, want := range []string{"DISABLE_NOTIFICATIONS", "ENABLE_NOTIFICATIONS"} {
		select {
		case got := <-received:
			assert.Equal(t, want, got)
		case <-time.After(5 * time.Second):
			t.Fatalf("command %s not dispatched", want)
		}
	}
}

func TestServerStopsWithOpenConnections(t *testing.T) {
	reg, _ := newTestRegistry(t)
	srv := New(Config{}, reg, nil, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeListener(ctx, ln) }()

	conn := dial(t, ln.Addr().String())
	_, err = io.WriteString(conn, "GET hosts\nColumns: name\nKeepAlive: on\n\n")
	require.NoError(t, err)
	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "a\n", line)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ServeListener did not return")
	}
}

func TestReadRequest(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
		err   bool
	}{
		{"blank line ends", "GET hosts\nColumns: name\n\nGET services\n", []string{"GET hosts", "Columns: name"}, false},
		{"eof ends", "GET hosts\nLimit: 1", []string{"GET hosts", "Limit: 1"}, false},
		{"leading blank lines", "\n\r\nGET status\r\n\r\n", []string{"GET status"}, false},
		{"empty", "", nil, true},
		{"only blank lines", "\n\n", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readRequest(bufio.NewReader(strings.NewReader(tt.input)))
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServerRecoversConnectionPanic(t *testing.T) {
	reg, _ := newTestRegistry(t)
	core, logs := observer.New(zapcore.ErrorLevel)
	srv := New(Config{}, reg, nil, logging.Wrap(zap.New(core), 0))
	srv.SetCommandSink(func(name string, args []string) { panic("sink exploded") })
	addr := startServer(t, srv)

	// The query flushes the pending command, which panics.
	conn := dial(t, addr)
	_, err := io.WriteString(conn, "COMMAND [1] DISABLE_NOTIFICATIONS\n\nGET hosts\nColumns: name\n\n")
	require.NoError(t, err)
	got, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Empty(t, string(got), "the panicking connection is closed")

	require.Eventually(t, func() bool { return logs.Len() == 1 }, 5*time.Second, 10*time.Millisecond)
	entry := logs.All()[0]
	assert.Equal(t, "livestatus connection panicked", entry.Message)
	assert.Equal(t, "sink exploded", entry.ContextMap()["panic"])
	assert.Contains(t, entry.ContextMap(), "stack")

	// The listener keeps serving.
	other := dial(t, addr)
	_, err = io.WriteString(other, "GET hosts\nColumns: name\nFilter: name = a\n\n")
	require.NoError(t, err)
	got, err = io.ReadAll(other)
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(got))
}
