//go:build !windows

package extcmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runPipe(t *testing.T, p *Pipe) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	return cancel, done
}

func writePipe(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestPipeAppliesCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "livestatusd.cmd")
	got := make(chan *Command, 8)
	cancel, done := runPipe(t, NewPipe(path, func(c *Command) { got <- c }, nil))

	require.Eventually(t, func() bool {
		info, err := os.Stat(path)
		return err == nil && info.Mode()&os.ModeNamedPipe != 0
	}, 5*time.Second, 10*time.Millisecond)

	// Two writers in a row; the reader keeps going across both.
	writePipe(t, path, "[100] DISABLE_NOTIFICATIONS\nnot a command\n\n")
	writePipe(t, path, "[200] ADD_HOST_COMMENT;web1;1;admin;a;b\n")

	for _, want := range []struct {
		ts   int64
		name string
		args []string
	}{
		{100, "DISABLE_NOTIFICATIONS", nil},
		{200, "ADD_HOST_COMMENT", []string{"web1", "1", "admin", "a;b"}},
	} {
		select {
		case c := <-got:
			assert.Equal(t, want.ts, c.Timestamp)
			assert.Equal(t, want.name, c.Name)
			assert.Equal(t, want.args, c.Args)
		case <-time.After(5 * time.Second):
			t.Fatalf("command %s not applied", want.name)
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPipeRejectsRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	err := NewPipe(path, func(*Command) {}, nil).Run(context.Background())
	assert.ErrorContains(t, err, "is not a named pipe")
}
