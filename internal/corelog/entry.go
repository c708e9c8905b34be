package corelog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/oceanplexian/livestatusd/internal/objects"
)

// Class groups log entries the way livestatus clients filter them.
type Class int

const (
	ClassInfo Class = iota
	ClassAlert
	ClassProgram
	ClassNotification
	ClassPassiveCheck
	ClassCommand
	ClassState
	ClassText
)

// Entry is one parsed line of the history log.
type Entry struct {
	Time               time.Time
	Lineno             int
	Class              Class
	Type               string
	Message            string // the whole line
	Options            string // everything after "TYPE: "
	State              int
	StateType          string
	Attempt            int
	PluginOutput       string
	Comment            string
	HostName           string
	ServiceDescription string
	ContactName        string
	CommandName        string
}

type field func(e *Entry, v string)

var (
	hostName    field = func(e *Entry, v string) { e.HostName = v }
	serviceDesc field = func(e *Entry, v string) { e.ServiceDescription = v }
	contactName field = func(e *Entry, v string) { e.ContactName = v }
	commandName field = func(e *Entry, v string) { e.CommandName = v }
	stateType   field = func(e *Entry, v string) { e.StateType = v }
	attempt     field = func(e *Entry, v string) { e.Attempt, _ = strconv.Atoi(v) }
	output      field = func(e *Entry, v string) { e.PluginOutput = v }
	comment     field = func(e *Entry, v string) { e.Comment = strings.TrimSpace(v) }
	returnCode  field = func(e *Entry, v string) { e.State, _ = strconv.Atoi(v) }
	rest        field = func(*Entry, string) {}

	hostState    = stateField(objects.HostStateName, objects.HostUnreachable)
	serviceState = stateField(objects.ServiceStateName, objects.ServiceUnknown)

	// Notifications carry the state as "DOWN" or "ACKNOWLEDGEMENT (DOWN)".
	hostNotification    = notificationField(hostState)
	serviceNotification = notificationField(serviceState)
)

func stateField(name func(int) string, highest int) field {
	return func(e *Entry, v string) {
		for state := 0; state <= highest; state++ {
			if name(state) == v {
				e.State = state
				return
			}
		}
	}
}

func notificationField(state field) field {
	return func(e *Entry, v string) {
		e.StateType = v
		if _, inner, ok := strings.Cut(v, "("); ok {
			v = strings.TrimSuffix(inner, ")")
		}
		state(e, v)
	}
}

type layout struct {
	class  Class
	fields []field // the last field takes the remainder
}

var (
	hostStateLayout    = []field{hostName, hostState, stateType, attempt, output}
	serviceStateLayout = []field{hostName, serviceDesc, serviceState, stateType, attempt, output}
	hostEventLayout    = []field{hostName, stateType, comment}
	serviceEventLayout = []field{hostName, serviceDesc, stateType, comment}
)

var layouts = map[string]layout{
	"HOST ALERT":             {ClassAlert, hostStateLayout},
	"SERVICE ALERT":          {ClassAlert, serviceStateLayout},
	"HOST DOWNTIME ALERT":    {ClassAlert, hostEventLayout},
	"SERVICE DOWNTIME ALERT": {ClassAlert, serviceEventLayout},
	"HOST FLAPPING ALERT":    {ClassAlert, hostEventLayout},
	"SERVICE FLAPPING ALERT": {ClassAlert, serviceEventLayout},
	"INITIAL HOST STATE":     {ClassState, hostStateLayout},
	"INITIAL SERVICE STATE":  {ClassState, serviceStateLayout},
	"CURRENT HOST STATE":     {ClassState, hostStateLayout},
	"CURRENT SERVICE STATE":  {ClassState, serviceStateLayout},
	"TIMEPERIOD TRANSITION":  {ClassState, nil},
	"HOST NOTIFICATION":      {ClassNotification, []field{contactName, hostName, hostNotification, commandName, output}},
	"SERVICE NOTIFICATION":   {ClassNotification, []field{contactName, hostName, serviceDesc, serviceNotification, commandName, output}},
	"PASSIVE HOST CHECK":     {ClassPassiveCheck, []field{hostName, returnCode, output}},
	"PASSIVE SERVICE CHECK":  {ClassPassiveCheck, []field{hostName, serviceDesc, returnCode, output}},
	"EXTERNAL COMMAND":       {ClassCommand, []field{commandName, rest}},
	"LOG VERSION":            {ClassProgram, nil},
	"LOG ROTATION":           {ClassProgram, nil},
}

// ParseLine parses "[timestamp] TYPE: details". It reports false for lines
// without a leading timestamp.
func ParseLine(line string) (*Entry, bool) {
	if !strings.HasPrefix(line, "[") {
		return nil, false
	}
	ts, text, ok := strings.Cut(line[1:], "]")
	if !ok {
		return nil, false
	}
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, false
	}
	e := &Entry{Time: time.Unix(sec, 0), Message: line}
	text = strings.TrimPrefix(text, " ")

	typ, options, ok := strings.Cut(text, ": ")
	if !ok {
		if strings.Contains(text, "starting...") || strings.Contains(text, "shutting down...") {
			e.Class = ClassProgram
		}
		return e, true
	}
	e.Type, e.Options = typ, options
	l, known := layouts[typ]
	if !known {
		return e, true
	}
	e.Class = l.class
	if len(l.fields) > 0 {
		for i, v := range strings.SplitN(options, ";", len(l.fields)) {
			l.fields[i](e, v)
		}
	}
	return e, true
}

// Read returns the entries of r whose time lies in [since, until], in file
// order. The log is chronological, so reading stops at the first entry
// after until. Lines that do not parse are skipped.
func Read(r io.Reader, since, until time.Time) ([]*Entry, error) {
	var entries []*Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		e, ok := ParseLine(scanner.Text())
		if !ok || e.Time.Before(since) {
			continue
		}
		if e.Time.After(until) {
			break
		}
		e.Lineno = lineno
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("read log: %w", err)
	}
	return entries, nil
}

// ReadFile is Read on the file at path.
func ReadFile(path string, since, until time.Time) ([]*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, since, until)
}
