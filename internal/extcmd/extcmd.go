// Package extcmd applies Nagios external commands to the core's state. It is
// fed by livestatus COMMAND requests and by the optional command pipe.
package extcmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oceanplexian/livestatusd/internal/api"
	"github.com/oceanplexian/livestatusd/internal/logging"
	"github.com/oceanplexian/livestatusd/internal/triggers"
)

// Command represents a parsed external command.
type Command struct {
	Timestamp int64
	Name      string
	Args      []string
	Raw       string
}

// Parse parses a single external command line.
// Format: [<timestamp>] <COMMAND_NAME>;<arg1>;<arg2>;...
func Parse(line string) (*Command, error) {
	line = strings.TrimSpace(line)
	if len(line) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	if line[0] != '[' {
		return nil, fmt.Errorf("missing timestamp bracket")
	}
	closeBracket := strings.IndexByte(line, ']')
	if closeBracket < 0 {
		return nil, fmt.Errorf("missing closing bracket")
	}
	ts, err := strconv.ParseInt(line[1:closeBracket], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp: %w", err)
	}

	cmd := &Command{Timestamp: ts, Raw: line}
	rest := strings.TrimSpace(line[closeBracket+1:])
	name, argStr, ok := strings.Cut(rest, ";")
	cmd.Name = name
	if ok {
		cmd.Args = splitArgs(name, argStr)
	}
	return cmd, nil
}

// splitArgs splits command arguments. The last argument of a known command
// keeps any further semicolons, since it is usually free-form text.
func splitArgs(cmdName, argStr string) []string {
	n := expectedArgCount(cmdName)
	if n <= 0 {
		if argStr == "" {
			return nil
		}
		return []string{argStr}
	}
	return strings.SplitN(argStr, ";", n)
}

func expectedArgCount(cmdName string) int {
	if h, ok := handlers[cmdName]; ok {
		return h.args
	}
	return 0
}

// Dispatcher applies commands to a StateProvider. Every command runs under
// the store's write lock and wakes the livestatus waiters of its trigger.
type Dispatcher struct {
	provider *api.StateProvider
	logger   *logging.Logger
	now      func() time.Time
}

// NewDispatcher creates a dispatcher for p.
func NewDispatcher(p *api.StateProvider, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Dispatcher{provider: p, logger: logger, now: time.Now}
}

// Dispatch applies one command. It matches api.CommandSink.
func (d *Dispatcher) Dispatch(name string, args []string) {
	d.DispatchBatch([]api.CommandEntry{{Name: name, Args: args}})
}

// DispatchBatch applies cmds in order under a single lock acquisition and
// notifies each affected trigger once afterwards. It matches
// api.BatchCommandSink.
func (d *Dispatcher) DispatchBatch(cmds []api.CommandEntry) {
	if len(cmds) == 0 {
		return
	}
	fired := make(map[triggers.Kind]bool)

	d.provider.Store.Mu.Lock()
	for _, c := range cmds {
		kind, err := d.apply(c.Name, c.Args)
		if err != nil {
			d.logger.Warn("external command failed", zap.String("command", c.Name), zap.Error(err))
			continue
		}
		fired[kind] = true
	}
	d.provider.Global.LastCommandCheck = d.now()
	d.provider.Store.Mu.Unlock()

	for kind := range fired {
		d.provider.Triggers().NotifyAll(kind)
	}
	d.provider.Triggers().NotifyAll(triggers.Command)
}

// Apply runs a parsed pipe command.
func (d *Dispatcher) Apply(cmd *Command) {
	d.DispatchBatch([]api.CommandEntry{{Name: cmd.Name, Args: cmd.Args}})
}

func (d *Dispatcher) apply(name string, args []string) (triggers.Kind, error) {
	h, ok := handlers[name]
	if !ok {
		return triggers.Command, fmt.Errorf("unknown command %s", name)
	}
	// Livestatus clients split on every semicolon; fold free text back.
	if len(args) > h.args && h.args > 0 {
		args = splitArgs(name, strings.Join(args, ";"))
	}
	if len(args) < h.args {
		return h.kind, fmt.Errorf("expected %d arguments, got %d", h.args, len(args))
	}
	if d.logger.Enabled(logging.VerboseCommands) {
		d.logger.LogExternalCommand(name, args)
	}
	d.history(d.provider.History.ExternalCommand(name, args))
	return h.kind, h.fn(d, args)
}

// history reports a failed write to the core log. The command itself
// still applies.
func (d *Dispatcher) history(err error) {
	if err != nil {
		d.logger.Warn("failed to write core log", zap.Error(err))
	}
}
