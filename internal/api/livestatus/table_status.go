package livestatus

import (
	"iter"
	"time"

	"github.com/oceanplexian/livestatusd/internal/api"
	"github.com/oceanplexian/livestatusd/internal/objects"
)

// Version is reported in the status table and by the CLI.
const Version = "1.0.0"

// statusRow is the single row of the status table.
type statusRow struct {
	core api.Core
}

func statusGlobal(r *statusRow) *objects.GlobalState { return r.core.GlobalState() }

func newStatusTable(core api.Core) *Table {
	t := newTable(core, "status", "status_")
	t.lookupsLock = true
	row := &statusRow{core: core}
	o := Offsets{}
	g := o.Add(Shift(statusGlobal))

	flag := func(name, desc string, get func(*objects.GlobalState) bool) {
		t.AddColumn(NewBoolColumn(name, desc, g, get))
	}
	flag("enable_notifications", "Whether notifications are enabled in general (0/1)", func(s *objects.GlobalState) bool { return s.EnableNotifications })
	flag("execute_service_checks", "Whether active service checks are activated in general (0/1)", func(s *objects.GlobalState) bool { return s.ExecuteServiceChecks })
	flag("execute_host_checks", "Whether host checks are executed in general (0/1)", func(s *objects.GlobalState) bool { return s.ExecuteHostChecks })
	flag("accept_passive_service_checks", "Whether passive service checks are activated in general (0/1)", func(s *objects.GlobalState) bool {
		return s.AcceptPassiveServiceChecks
	})
	flag("accept_passive_host_checks", "Whether passive host checks are accepted in general (0/1)", func(s *objects.GlobalState) bool {
		return s.AcceptPassiveHostChecks
	})
	flag("enable_event_handlers", "Whether alert handlers are activated in general (0/1)", func(s *objects.GlobalState) bool { return s.EnableEventHandlers })
	flag("enable_flap_detection", "Whether flap detection is activated in general (0/1)", func(s *objects.GlobalState) bool { return s.EnableFlapDetection })
	flag("process_performance_data", "Whether processing of performance data is activated in general (0/1)", func(s *objects.GlobalState) bool {
		return s.ProcessPerformanceData
	})
	flag("check_service_freshness", "Whether service freshness checking is activated in general (0/1)", func(s *objects.GlobalState) bool {
		return s.CheckServiceFreshness
	})
	flag("check_host_freshness", "Whether host freshness checking is activated in general (0/1)", func(s *objects.GlobalState) bool {
		return s.CheckHostFreshness
	})
	t.AddColumn(NewIntColumn("nagios_pid", "The process ID of the monitoring core", g, func(s *objects.GlobalState) int64 { return int64(s.PID) }))
	t.AddColumn(NewIntColumn("interval_length", "The default interval length", g, func(s *objects.GlobalState) int64 { return int64(s.IntervalLength) }))
	t.AddColumn(NewStringColumn("program_version", "The version of the monitoring daemon", g, func(s *objects.GlobalState) string { return s.ProgramVersion }))
	t.AddColumn(NewTimeColumn("program_start", "The time of the last program start or configuration reload (UNIX timestamp)", g,
		func(s *objects.GlobalState) time.Time { return s.ProgramStart }))
	t.AddColumn(NewTimeColumn("last_command_check", "The time of the last check for a command as UNIX timestamp", g,
		func(s *objects.GlobalState) time.Time { return s.LastCommandCheck }))

	t.AddColumn(NewStringColumn("livestatus_version", "The version of the livestatus module", o, func(*statusRow) string { return Version }))
	t.AddColumn(NewIntColumn("num_hosts", "The total number of hosts", o, func(r *statusRow) int64 { return int64(len(r.core.Hosts())) }))
	t.AddColumn(NewIntColumn("num_services", "The total number of services", o, func(r *statusRow) int64 { return int64(len(r.core.Services())) }))
	t.AddColumn(NewIntColumn("connections", "The number of client connections to Livestatus since program start", o,
		func(r *statusRow) int64 { return int64(r.core.Counters().Connections) }))
	t.AddColumn(NewDoubleColumn("connections_rate", "The averaged number of client connections to Livestatus per second", o,
		func(r *statusRow) float64 { return r.core.Counters().ConnectionsRate }))
	t.AddColumn(NewIntColumn("requests", "The number of requests to Livestatus since program start", o,
		func(r *statusRow) int64 { return int64(r.core.Counters().Requests) }))
	t.AddColumn(NewDoubleColumn("requests_rate", "The averaged number of requests to Livestatus per second", o,
		func(r *statusRow) float64 { return r.core.Counters().RequestsRate }))
	t.AddColumn(NewIntColumn("external_commands", "The number of external commands since program start", o,
		func(r *statusRow) int64 { return int64(r.core.Counters().Commands) }))
	t.AddColumn(NewIntColumn("livestatus_active_connections", "The current number of active connections to MK Livestatus", o,
		func(r *statusRow) int64 { return int64(r.core.Counters().ActiveConnections) }))

	t.rows = func(*Query) iter.Seq[Row] { return sliceRows([]*statusRow{row}) }
	t.defaultRow = func() Row { return NewRow(row) }
	return t
}
