//go:build !windows

package extcmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/oceanplexian/livestatusd/internal/logging"
)

// Pipe reads external commands from a named pipe and applies them.
type Pipe struct {
	path   string
	apply  func(*Command)
	logger *logging.Logger
}

// NewPipe creates a reader for the FIFO at path that hands every parsed
// command to apply.
func NewPipe(path string, apply func(*Command), logger *logging.Logger) *Pipe {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Pipe{path: path, apply: apply, logger: logger}
}

// Run creates the FIFO if needed and reads it until ctx is done. The pipe is
// held open read-write, so writers may come and go without an EOF.
func (p *Pipe) Run(ctx context.Context) error {
	info, err := os.Stat(p.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := syscall.Mkfifo(p.path, 0o660); err != nil {
			return fmt.Errorf("failed to create command pipe %s: %w", p.path, err)
		}
	case err != nil:
		return fmt.Errorf("stat command pipe: %w", err)
	case info.Mode()&fs.ModeNamedPipe == 0:
		return fmt.Errorf("command pipe %s exists and is not a named pipe", p.path)
	}

	f, err := os.OpenFile(p.path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open command pipe: %w", err)
	}
	defer f.Close()
	stop := context.AfterFunc(ctx, func() { f.Close() })
	defer stop()

	p.logger.Info("reading external commands", zap.String("path", p.path))
	err = p.readAll(f)
	if ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("read command pipe: %w", err)
}

func (p *Pipe) readAll(f *os.File) error {
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, err := Parse(line)
		if err != nil {
			p.logger.Warn("error parsing external command", zap.String("line", line), zap.Error(err))
			continue
		}
		p.apply(cmd)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.ErrUnexpectedEOF
}
