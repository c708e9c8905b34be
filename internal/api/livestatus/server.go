package livestatus

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oceanplexian/livestatusd/internal/api"
	"github.com/oceanplexian/livestatusd/internal/logging"
	"github.com/oceanplexian/livestatusd/internal/metrics"
)

// Config holds the listener settings of the server.
type Config struct {
	SocketPath   string
	TCPAddr      string
	MetricsAddr  string
	QueryTimeout time.Duration // write deadline for one response
	IdleTimeout  time.Duration // read deadline while waiting for a request
}

// Server is the Livestatus query server. It listens on a Unix domain socket
// and/or a TCP address and handles LQL queries.
type Server struct {
	cfg          Config
	registry     *Registry
	metrics      *metrics.Collector
	logger       *logging.Logger
	cmdSink      api.CommandSink
	batchCmdSink api.BatchCommandSink

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// New creates a server answering from registry. collector may be nil.
func New(cfg Config, registry *Registry, collector *metrics.Collector, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		cfg:      cfg,
		registry: registry,
		metrics:  collector,
		logger:   logger,
		conns:    make(map[net.Conn]struct{}),
	}
}

// SetCommandSink sets where COMMAND requests go.
func (s *Server) SetCommandSink(sink api.CommandSink) {
	s.cmdSink = sink
}

// SetBatchCommandSink sets an optional batch command sink. When set, the
// commands a connection sends back to back are dispatched in one batch
// (single lock acquisition) instead of individually.
func (s *Server) SetBatchCommandSink(sink api.BatchCommandSink) {
	s.batchCmdSink = sink
}

// Serve listens on every configured address and serves until ctx is done or
// a listener fails.
func (s *Server) Serve(ctx context.Context) error {
	var listeners []net.Listener
	if s.cfg.SocketPath != "" {
		// Remove stale socket
		os.Remove(s.cfg.SocketPath)
		ln, err := net.Listen("unix", s.cfg.SocketPath)
		if err != nil {
			return fmt.Errorf("unix listen %s: %w", s.cfg.SocketPath, err)
		}
		os.Chmod(s.cfg.SocketPath, 0660)
		defer os.Remove(s.cfg.SocketPath)
		listeners = append(listeners, ln)
	}
	if s.cfg.TCPAddr != "" {
		ln, err := net.Listen("tcp", s.cfg.TCPAddr)
		if err != nil {
			closeAll(listeners)
			return fmt.Errorf("tcp listen %s: %w", s.cfg.TCPAddr, err)
		}
		listeners = append(listeners, ln)
	}

	group, ctx := errgroup.WithContext(ctx)
	for _, ln := range listeners {
		s.logger.Info("livestatus listening", zap.String("network", ln.Addr().Network()), zap.String("addr", ln.Addr().String()))
		group.Go(func() error { return s.ServeListener(ctx, ln) })
	}
	if s.cfg.MetricsAddr != "" && s.metrics != nil {
		group.Go(func() error { return s.serveMetrics(ctx) })
	}
	return group.Wait()
}

func closeAll(listeners []net.Listener) {
	for _, ln := range listeners {
		ln.Close()
	}
}

// ServeListener accepts connections on ln until ctx is done. Open
// connections are closed on return.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()
	var wg sync.WaitGroup
	defer func() {
		s.closeConns()
		wg.Wait()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.logger.Warn("livestatus accept failed", zap.Error(err))
			continue
		}
		s.track(conn, true)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.track(conn, false)
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) serveMetrics(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())
	srv := &http.Server{
		Addr:              s.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	})
	defer stop()
	s.logger.Info("metrics listening", zap.String("addr", s.cfg.MetricsAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics listen %s: %w", s.cfg.MetricsAddr, err)
	}
	return nil
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("livestatus connection panicked",
				zap.Any("panic", r),
				zap.String("remote", addrString(conn.RemoteAddr())),
				zap.Stack("stack"))
		}
	}()
	if s.metrics != nil {
		defer s.metrics.ConnectionOpened()()
	}

	// Commands sent back to back are collected and dispatched together
	// when the next query arrives or the connection ends.
	var pendingCmds []api.CommandEntry
	defer func() { s.flushCommands(pendingCmds, conn) }()

	reader := bufio.NewReader(conn)
	for {
		if s.cfg.IdleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		}
		lines, err := readRequest(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug("livestatus read error", zap.Error(err), zap.String("remote", addrString(conn.RemoteAddr())))
			}
			return
		}
		if strings.HasPrefix(lines[0], "COMMAND ") {
			s.logger.LogVerbose(logging.VerboseLivestatus, "livestatus command",
				zap.String("request", lines[0]), zap.String("remote", addrString(conn.RemoteAddr())))
			if s.metrics != nil {
				s.metrics.CommandReceived()
			}
			if entry := parseCommandEntry(lines[0]); entry != nil {
				pendingCmds = append(pendingCmds, *entry)
			}
			// Commands are fire-and-forget, no response.
			continue
		}

		cmds := pendingCmds
		pendingCmds = nil
		s.flushCommands(cmds, conn)

		if s.cfg.QueryTimeout > 0 {
			conn.SetWriteDeadline(time.Now().Add(s.cfg.QueryTimeout))
		}
		keepAlive, err := s.HandleRequest(lines, conn, conn.RemoteAddr())
		if err != nil {
			s.logger.Debug("livestatus write error", zap.Error(err), zap.String("remote", addrString(conn.RemoteAddr())))
			return
		}
		if !keepAlive {
			return
		}
		conn.SetWriteDeadline(time.Time{})
	}
}

// HandleRequest answers one non-COMMAND request and writes the response to w.
// It reports whether the client asked for KeepAlive.
func (s *Server) HandleRequest(lines []string, w io.Writer, remote net.Addr) (bool, error) {
	start := time.Now()
	out := &OutputBuffer{}
	var body []byte
	keepAlive := false
	table := ""

	if strings.HasPrefix(lines[0], "GET") {
		q := s.registry.ParseGet(lines, out)
		table = q.Table().Name()
		keepAlive = q.KeepAlive()
		s.logger.LogVerbose(logging.VerboseLivestatus, "livestatus query",
			zap.String("table", table),
			zap.Stringer("filter", q.Filter()),
			zap.String("remote", addrString(remote)))
		body = q.Process()
		if q.WaitTimedOut() && s.metrics != nil {
			s.metrics.WaitTimedOut()
		}
	} else {
		out.SetError(CodeInvalidRequest, "Invalid request method")
	}

	n, err := out.Flush(w, body)
	if s.metrics != nil {
		s.metrics.RequestServed(table, time.Since(start), n, int(out.Code()))
	}
	if out.HasError() {
		s.logger.LogVerbose(logging.VerboseLivestatus, "livestatus error",
			zap.Int("code", int(out.Code())), zap.String("message", out.Message()))
	}
	return keepAlive, err
}

// Query answers a single request without a connection, as used by the CLI.
func (s *Server) Query(request string) []byte {
	var buf bytes.Buffer
	lines, _ := readRequest(bufio.NewReader(strings.NewReader(request)))
	if len(lines) == 0 {
		return nil
	}
	if strings.HasPrefix(lines[0], "COMMAND ") {
		if entry := parseCommandEntry(lines[0]); entry != nil {
			s.flushCommands([]api.CommandEntry{*entry}, nil)
		}
		return nil
	}
	s.HandleRequest(lines, &buf, nil)
	return buf.Bytes()
}

// flushCommands dispatches accumulated commands. Uses batch dispatch when
// available (single lock), falls back to per-command dispatch otherwise.
func (s *Server) flushCommands(cmds []api.CommandEntry, conn net.Conn) {
	if len(cmds) == 0 {
		return
	}
	if s.batchCmdSink != nil {
		if len(cmds) > 1 && conn != nil {
			s.logger.LogVerbose(logging.VerboseLivestatus, "livestatus batch dispatch",
				zap.Int("commands", len(cmds)), zap.String("remote", addrString(conn.RemoteAddr())))
		}
		s.batchCmdSink(cmds)
		return
	}
	if s.cmdSink == nil {
		return
	}
	for _, c := range cmds {
		s.cmdSink(c.Name, c.Args)
	}
}

// readRequest reads header lines up to the next empty line. EOF after at
// least one line ends the request too. Blank lines before a request are
// skipped.
func readRequest(reader *bufio.Reader) ([]string, error) {
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			lines = append(lines, line)
		}
		if err != nil {
			if len(lines) > 0 && errors.Is(err, io.EOF) {
				return lines, nil
			}
			return nil, err
		}
		if line == "" && len(lines) > 0 {
			return lines, nil
		}
	}
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}
