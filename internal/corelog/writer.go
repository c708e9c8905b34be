// Package corelog writes and reads the core's history log, the
// "[timestamp] TYPE: details" file served by the livestatus log table.
package corelog

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/oceanplexian/livestatusd/internal/objects"
)

// Writer appends lines to the history log. A nil Writer discards
// everything, so callers need not check whether logging is configured.
type Writer struct {
	mu     sync.Mutex
	file   *os.File
	now    func() time.Time
	notify func()
}

// Open opens path for appending, creating it if needed. notify runs after
// every line written; it may be nil.
func Open(path string, notify func()) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	if notify == nil {
		notify = func() {}
	}
	return &Writer{file: f, now: time.Now, notify: notify}, nil
}

func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// Log appends one timestamped line. Newlines in the message are escaped so
// that every entry stays on one line.
func (w *Writer) Log(format string, args ...any) error {
	if w == nil {
		return nil
	}
	msg := strings.ReplaceAll(fmt.Sprintf(format, args...), "\n", `\n`)
	line := fmt.Sprintf("[%d] %s\n", w.now().Unix(), msg)

	w.mu.Lock()
	_, err := w.file.WriteString(line)
	w.mu.Unlock()
	if err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	w.notify()
	return nil
}

func (w *Writer) HostAlert(h *objects.Host) error {
	return w.hostState("HOST ALERT", h)
}

func (w *Writer) ServiceAlert(s *objects.Service) error {
	return w.serviceState("SERVICE ALERT", s)
}

// InitialStates records the state of every object at startup.
func (w *Writer) InitialStates(hosts []*objects.Host, services []*objects.Service) error {
	if err := w.Log("LOG VERSION: 2.0"); err != nil {
		return err
	}
	for _, h := range hosts {
		if err := w.hostState("INITIAL HOST STATE", h); err != nil {
			return err
		}
	}
	for _, s := range services {
		if err := w.serviceState("INITIAL SERVICE STATE", s); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) ExternalCommand(name string, args []string) error {
	if len(args) > 0 {
		name += ";" + strings.Join(args, ";")
	}
	return w.Log("EXTERNAL COMMAND: %s", name)
}

// HostDowntime logs a downtime transition such as STARTED or CANCELLED.
func (w *Writer) HostDowntime(hostName, action, message string) error {
	return w.Log("HOST DOWNTIME ALERT: %s;%s; %s", hostName, action, message)
}

func (w *Writer) ServiceDowntime(hostName, svcDesc, action, message string) error {
	return w.Log("SERVICE DOWNTIME ALERT: %s;%s;%s; %s", hostName, svcDesc, action, message)
}

func (w *Writer) hostState(kind string, h *objects.Host) error {
	return w.Log("%s: %s;%s;%s;%d;%s", kind,
		h.Name,
		objects.HostStateName(h.CurrentState),
		objects.StateTypeName(h.StateType),
		h.CurrentAttempt,
		h.PluginOutput)
}

func (w *Writer) serviceState(kind string, s *objects.Service) error {
	return w.Log("%s: %s;%s;%s;%s;%d;%s", kind,
		s.Host.Name, s.Description,
		objects.ServiceStateName(s.CurrentState),
		objects.StateTypeName(s.StateType),
		s.CurrentAttempt,
		s.PluginOutput)
}
