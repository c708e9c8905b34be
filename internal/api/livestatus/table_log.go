package livestatus

import (
	"errors"
	"io/fs"
	"iter"
	"slices"
	"time"

	"github.com/oceanplexian/livestatusd/internal/api"
	"github.com/oceanplexian/livestatusd/internal/corelog"
	"github.com/oceanplexian/livestatusd/internal/objects"
)

// newLogTable serves the core's history log, newest entry first. Filters on
// "time" bound the part of the file that is read.
func newLogTable(core api.Core) *Table {
	t := newTable(core, "log", "log_")
	t.lookupsLock = true
	o := Offsets{}
	str := func(name, desc string, get func(*corelog.Entry) string) {
		t.AddColumn(NewStringColumn(name, desc, o, get))
	}
	num := func(name, desc string, get func(*corelog.Entry) int64) {
		t.AddColumn(NewIntColumn(name, desc, o, get))
	}
	t.AddColumn(NewTimeColumn("time", "Time of the log event (UNIX timestamp)", o, func(e *corelog.Entry) time.Time { return e.Time }))
	num("lineno", "The number of the line in the log file", func(e *corelog.Entry) int64 { return int64(e.Lineno) })
	num("class", "The class of the message as integer (0:info, 1:alert, 2:program, 3:notification, 4:passive, 5:command, 6:state, 7:text)",
		func(e *corelog.Entry) int64 { return int64(e.Class) })
	str("message", "The complete message line including the timestamp", func(e *corelog.Entry) string { return e.Message })
	str("type", "The type of the message (text before the colon)", func(e *corelog.Entry) string { return e.Type })
	str("options", "The part of the message after the ':'", func(e *corelog.Entry) string { return e.Options })
	num("state", "The state of the host or service in question", func(e *corelog.Entry) int64 { return int64(e.State) })
	str("state_type", "The type of the state (varies on different log classes)", func(e *corelog.Entry) string { return e.StateType })
	num("attempt", "The number of the check attempt", func(e *corelog.Entry) int64 { return int64(e.Attempt) })
	str("plugin_output", "The output of the check, if any is associated with the message", func(e *corelog.Entry) string { return e.PluginOutput })
	str("comment", "A comment field used in various message types", func(e *corelog.Entry) string { return e.Comment })
	str("host_name", "The name of the host the log entry is about (might be empty)", func(e *corelog.Entry) string { return e.HostName })
	str("service_description", "The description of the service log entry is about (might be empty)",
		func(e *corelog.Entry) string { return e.ServiceDescription })
	str("contact_name", "The name of the contact the log entry is about (might be empty)", func(e *corelog.Entry) string { return e.ContactName })
	str("command_name", "The name of the command of the log entry (e.g. for notifications)", func(e *corelog.Entry) string { return e.CommandName })

	logHost := func(e *corelog.Entry) *objects.Host {
		if e.HostName == "" {
			return nil
		}
		return core.FindHost(e.HostName)
	}
	logService := func(e *corelog.Entry) *objects.Service {
		if e.ServiceDescription == "" {
			return nil
		}
		return core.FindService(e.HostName, e.ServiceDescription)
	}
	addHostColumns(t, core, "current_host_", o.Add(Shift(logHost)))
	addServiceColumns(t, core, "current_service_", o.Add(Shift(logService)), false)

	t.rows = func(q *Query) iter.Seq[Row] {
		path := core.LogFile()
		if path == "" {
			return sliceRows[corelog.Entry](nil)
		}
		since, until := logTimeframe(q)
		entries, err := corelog.ReadFile(path, since, until)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			q.output.SetError(CodeBadGateway, "cannot read log file: %v", err)
		}
		slices.Reverse(entries)
		return sliceRows(entries)
	}
	t.isAuthorized = func(row Row, user User) bool {
		e := rowData[corelog.Entry](row)
		if e == nil {
			return false
		}
		if _, unrestricted := user.(NoAuthUser); unrestricted || e.HostName == "" {
			return true
		}
		return isAuthorizedForObject(user, logHost(e), logService(e))
	}
	return t
}

// logTimeframe returns the closed time interval the filter allows. Without
// an upper bound it ends now.
func logTimeframe(q *Query) (since, until time.Time) {
	f, tz := q.Filter(), q.TimezoneOffset()
	since = time.Unix(0, 0)
	if lower, ok := f.GreatestLowerBoundFor("time", tz); ok {
		since = time.Unix(lower, 0)
	}
	until = q.now()
	if upper, ok := f.LeastUpperBoundFor("time", tz); ok {
		until = time.Unix(upper, 0)
	}
	return since, until
}
