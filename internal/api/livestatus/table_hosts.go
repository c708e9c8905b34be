package livestatus

import (
	"fmt"
	"iter"
	"sort"
	"strconv"
	"time"

	"github.com/oceanplexian/livestatusd/internal/api"
	"github.com/oceanplexian/livestatusd/internal/objects"
)

func newHostsTable(core api.Core) *Table {
	t := newTable(core, "hosts", "host_")
	addHostColumns(t, core, "", Offsets{})
	t.rows = func(q *Query) iter.Seq[Row] {
		f := q.Filter()
		if name, ok := f.StringValueRestrictionFor("name"); ok {
			return sliceRows(single(core.FindHost(name)))
		}
		if group, ok := f.StringValueRestrictionFor("groups"); ok {
			if hg := core.FindHostGroup(group); hg != nil {
				return sliceRows(hg.Members)
			}
			return sliceRows[objects.Host](nil)
		}
		return sliceRows(core.Hosts())
	}
	t.isAuthorized = func(row Row, user User) bool {
		return user.IsAuthorizedForHost(rowData[objects.Host](row))
	}
	t.findObject = func(key string) (Row, bool) {
		h := core.FindHost(key)
		return NewRow(h), h != nil
	}
	return t
}

// addHostColumns registers the host columns under prefix, reaching the host
// through o. The services, comments and downtimes tables embed them as
// "host_" columns.
func addHostColumns(t *Table, core api.Core, prefix string, o Offsets) {
	str := func(name, desc string, get func(*objects.Host) string) {
		t.AddColumn(NewStringColumn(prefix+name, desc, o, get))
	}
	num := func(name, desc string, get func(*objects.Host) int64) {
		t.AddColumn(NewIntColumn(prefix+name, desc, o, get))
	}
	flag := func(name, desc string, get func(*objects.Host) bool) {
		t.AddColumn(NewBoolColumn(prefix+name, desc, o, get))
	}
	dbl := func(name, desc string, get func(*objects.Host) float64) {
		t.AddColumn(NewDoubleColumn(prefix+name, desc, o, get))
	}
	tm := func(name, desc string, get func(*objects.Host) time.Time) {
		t.AddColumn(NewTimeColumn(prefix+name, desc, o, get))
	}
	list := func(name, desc string, get func(*objects.Host, User) []string) {
		t.AddColumn(NewListColumn(prefix+name, desc, o, get))
	}

	str("name", "Host name", func(h *objects.Host) string { return h.Name })
	str("display_name", "Optional display name", func(h *objects.Host) string { return h.DisplayName })
	str("alias", "An alias name for the host", func(h *objects.Host) string { return h.Alias })
	str("address", "IP address", func(h *objects.Host) string { return h.Address })
	str("check_command", "Logical command name for active checks, including any arguments", func(h *objects.Host) string {
		return commandString(h.CheckCommand, h.CheckCommandArgs)
	})
	str("check_period", "Time period in which this host will be checked", func(h *objects.Host) string {
		return timeperiodName(h.CheckPeriod)
	})
	str("notification_period", "Time period in which problems of this host will be notified", func(h *objects.Host) string {
		return timeperiodName(h.NotificationPeriod)
	})
	str("plugin_output", "Output of the last check", func(h *objects.Host) string { return h.PluginOutput })
	str("long_plugin_output", "Long (extra) output of the last check", func(h *objects.Host) string { return h.LongPluginOutput })
	str("perf_data", "Optional performance data of the last check", func(h *objects.Host) string { return h.PerfData })
	str("notes", "Optional notes for this host", func(h *objects.Host) string { return h.Notes })
	str("notes_url", "An optional URL with further information about the host", func(h *objects.Host) string { return h.NotesURL })
	str("action_url", "An optional URL to custom actions or information about this host", func(h *objects.Host) string { return h.ActionURL })
	str("icon_image", "The name of an image file to be used in the web pages", func(h *objects.Host) string { return h.IconImage })

	num("state", "The current state of the host (0: up, 1: down, 2: unreachable)", func(h *objects.Host) int64 { return int64(h.CurrentState) })
	num("state_type", "Type of the current state (0: soft, 1: hard)", func(h *objects.Host) int64 { return int64(h.StateType) })
	num("last_state", "State before last state change", func(h *objects.Host) int64 { return int64(h.LastState) })
	num("last_hard_state", "Last hard state", func(h *objects.Host) int64 { return int64(h.LastHardState) })
	num("hard_state", "The effective hard state of the host", func(h *objects.Host) int64 {
		if h.StateType == objects.StateTypeHard {
			return int64(h.CurrentState)
		}
		return int64(h.LastHardState)
	})
	num("current_attempt", "Number of the current check attempts", func(h *objects.Host) int64 { return int64(h.CurrentAttempt) })
	num("max_check_attempts", "Max check attempts for active host checks", func(h *objects.Host) int64 { return int64(h.MaxCheckAttempts) })
	num("current_notification_number", "Number of the current notification", func(h *objects.Host) int64 { return int64(h.CurrentNotificationNumber) })
	num("acknowledgement_type", "Type of acknowledgement (0: none, 1: normal, 2: sticky)", func(h *objects.Host) int64 { return int64(h.AckType) })
	num("scheduled_downtime_depth", "The number of downtimes this host is currently in", func(h *objects.Host) int64 { return int64(h.ScheduledDowntimeDepth) })
	num("check_type", "Type of check (0: active, 1: passive)", func(h *objects.Host) int64 { return int64(h.CheckType) })
	num("modified_attributes", "A bitmask specifying which attributes have been modified", func(h *objects.Host) int64 { return int64(h.ModifiedAttributes) })

	flag("has_been_checked", "Whether the host has already been checked (0/1)", func(h *objects.Host) bool { return h.HasBeenChecked })
	flag("is_flapping", "Whether the host state is flapping (0/1)", func(h *objects.Host) bool { return h.IsFlapping })
	flag("acknowledged", "Whether the current host problem has been acknowledged (0/1)", func(h *objects.Host) bool { return h.ProblemAcknowledged })
	flag("active_checks_enabled", "Whether active checks are enabled for the host (0/1)", func(h *objects.Host) bool { return h.ActiveChecksEnabled })
	flag("checks_enabled", "Whether checks of the host are enabled (0/1)", func(h *objects.Host) bool { return h.ActiveChecksEnabled })
	flag("accept_passive_checks", "Whether passive host checks are accepted (0/1)", func(h *objects.Host) bool { return h.PassiveChecksEnabled })
	flag("event_handler_enabled", "Whether event handling is enabled (0/1)", func(h *objects.Host) bool { return h.EventHandlerEnabled })
	flag("flap_detection_enabled", "Whether flap detection is enabled (0/1)", func(h *objects.Host) bool { return h.FlapDetectionEnabled })
	flag("notifications_enabled", "Whether notifications of the host are enabled (0/1)", func(h *objects.Host) bool { return h.NotificationsEnabled })
	flag("in_check_period", "Whether this host is currently in its check period (0/1)", func(h *objects.Host) bool {
		return objects.InTimeperiod(h.CheckPeriod, time.Now())
	})
	flag("in_notification_period", "Whether this host is currently in its notification period (0/1)", func(h *objects.Host) bool {
		return objects.InTimeperiod(h.NotificationPeriod, time.Now())
	})

	dbl("check_interval", "Number of basic interval lengths between two scheduled checks", func(h *objects.Host) float64 { return h.CheckInterval })
	dbl("retry_interval", "Number of basic interval lengths between checks when retrying after a soft error", func(h *objects.Host) float64 { return h.RetryInterval })
	dbl("latency", "Time difference between scheduled check time and actual check time", func(h *objects.Host) float64 { return h.Latency })
	dbl("execution_time", "Time the host check needed for execution", func(h *objects.Host) float64 { return h.ExecutionTime })
	dbl("percent_state_change", "Percent state change", func(h *objects.Host) float64 { return h.PercentStateChange })
	dbl("staleness", "The staleness of this host", func(h *objects.Host) float64 {
		return staleness(h.LastCheck, h.CheckInterval)
	})

	tm("last_check", "Time of the last check (Unix timestamp)", func(h *objects.Host) time.Time { return h.LastCheck })
	tm("next_check", "Scheduled time for the next check (Unix timestamp)", func(h *objects.Host) time.Time { return h.NextCheck })
	tm("last_state_change", "Time of the last state change (Unix timestamp)", func(h *objects.Host) time.Time { return h.LastStateChange })
	tm("last_hard_state_change", "Time of the last hard state change (Unix timestamp)", func(h *objects.Host) time.Time { return h.LastHardStateChange })
	tm("last_notification", "Time of the last notification (Unix timestamp)", func(h *objects.Host) time.Time { return h.LastNotification })

	list("parents", "A list of all direct parents of the host", func(h *objects.Host, _ User) []string {
		return names(h.Parents, func(p *objects.Host) string { return p.Name })
	})
	list("childs", "A list of all direct children of the host", func(h *objects.Host, _ User) []string {
		return names(h.Children, func(c *objects.Host) string { return c.Name })
	})
	list("contacts", "A list of all contacts of this host", func(h *objects.Host, _ User) []string {
		return names(h.Contacts, func(c *objects.Contact) string { return c.Name })
	})
	list("contact_groups", "A list of all contact groups this host is in", func(h *objects.Host, _ User) []string {
		return names(h.ContactGroups, func(g *objects.ContactGroup) string { return g.Name })
	})
	list("groups", "A list of all host groups this host is in", func(h *objects.Host, user User) []string {
		var groups []string
		for _, g := range h.HostGroups {
			if user.IsAuthorizedForHostGroup(g) {
				groups = append(groups, g.Name)
			}
		}
		return groups
	})
	list("services", "A list of all services of the host", func(h *objects.Host, user User) []string {
		return names(visibleServices(h, user), func(s *objects.Service) string { return s.Description })
	})
	list("comments", "A list of the ids of all comments of this host", func(h *objects.Host, _ User) []string {
		var ids []string
		for _, c := range core.HostComments(h) {
			ids = append(ids, strconv.FormatUint(c.CommentID, 10))
		}
		return ids
	})
	list("comments_with_info", "A list of all comments of the host with id, author and comment", func(h *objects.Host, _ User) []string {
		var infos []string
		for _, c := range core.HostComments(h) {
			infos = append(infos, fmt.Sprintf("%d|%s|%s", c.CommentID, c.Author, c.Data))
		}
		return infos
	})
	list("downtimes", "A list of the ids of all scheduled downtimes of this host", func(h *objects.Host, _ User) []string {
		var ids []string
		for _, d := range core.HostDowntimes(h) {
			ids = append(ids, strconv.FormatUint(d.DowntimeID, 10))
		}
		return ids
	})
	list("downtimes_with_info", "A list of the scheduled downtimes of the host with id, author and comment", func(h *objects.Host, _ User) []string {
		var infos []string
		for _, d := range core.HostDowntimes(h) {
			infos = append(infos, fmt.Sprintf("%d|%s|%s", d.DowntimeID, d.Author, d.Comment))
		}
		return infos
	})
	list("modified_attributes_list", "A list of all modified attributes", func(h *objects.Host, _ User) []string {
		return modifiedAttributes(h.ModifiedAttributes)
	})
	list("custom_variable_names", "A list of the names of the custom variables", func(h *objects.Host, _ User) []string {
		return sortedKeys(h.CustomVars)
	})
	list("custom_variable_values", "A list of the values of the custom variables", func(h *objects.Host, _ User) []string {
		var values []string
		for _, k := range sortedKeys(h.CustomVars) {
			values = append(values, h.CustomVars[k])
		}
		return values
	})
	t.AddColumn(NewDictColumn(prefix+"custom_variables", "A dictionary of the custom variables", o,
		func(h *objects.Host) map[string]string { return h.CustomVars }))

	countServices := func(name, desc string, match func(*objects.Service) bool) {
		t.AddColumn(NewAuthIntColumn(prefix+name, desc, o, func(h *objects.Host, user User) int64 {
			var n int64
			for _, s := range visibleServices(h, user) {
				if match(s) {
					n++
				}
			}
			return n
		}))
	}
	countServices("num_services", "The total number of services of the host", func(*objects.Service) bool { return true })
	countServices("num_services_ok", "The number of the host's services with the soft state OK", serviceInState(objects.ServiceOK))
	countServices("num_services_warn", "The number of the host's services with the soft state WARN", serviceInState(objects.ServiceWarning))
	countServices("num_services_crit", "The number of the host's services with the soft state CRIT", serviceInState(objects.ServiceCritical))
	countServices("num_services_unknown", "The number of the host's services with the soft state UNKNOWN", serviceInState(objects.ServiceUnknown))
	countServices("num_services_pending", "The number of the host's services which have not been checked yet (pending)", func(s *objects.Service) bool {
		return !s.HasBeenChecked
	})
	t.AddColumn(NewAuthIntColumn(prefix+"worst_service_state", "The worst soft state of all of the host's services (OK <= WARN <= UNKNOWN <= CRIT)", o,
		func(h *objects.Host, user User) int64 {
			worst := objects.ServiceOK
			for _, s := range visibleServices(h, user) {
				if serviceSeverity(s.CurrentState) > serviceSeverity(worst) {
					worst = s.CurrentState
				}
			}
			return int64(worst)
		}))

	t.AddDynamicColumn(NewDynamicColumn(prefix+"mk_logwatch_file",
		"This dynamic column can be used to retrieve the content of a logwatch file", o,
		newLogwatchColumn(core.MkLogwatchPath(), o, func(h *objects.Host) string { return h.Name })))
}

func single[T any](p *T) []*T {
	if p == nil {
		return nil
	}
	return []*T{p}
}

func names[T any](objs []*T, name func(*T) string) []string {
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, name(o))
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func commandString(cmd *objects.Command, args string) string {
	if cmd == nil {
		return ""
	}
	if args != "" {
		return cmd.Name + "!" + args
	}
	return cmd.Name
}

func timeperiodName(tp *objects.Timeperiod) string {
	if tp == nil {
		return ""
	}
	return tp.Name
}

// staleness is the age of the last check in units of the check interval,
// which is given in minutes.
func staleness(lastCheck time.Time, interval float64) float64 {
	if interval <= 0 || lastCheck.IsZero() {
		return 0
	}
	return time.Since(lastCheck).Seconds() / (interval * 60)
}

func modifiedAttributes(mask uint64) []string {
	var out []string
	for _, attr := range objects.ModifiedAttributeNames {
		if mask&attr.Bit != 0 {
			out = append(out, attr.Name)
		}
	}
	return out
}

func visibleServices(h *objects.Host, user User) []*objects.Service {
	out := make([]*objects.Service, 0, len(h.Services))
	for _, s := range h.Services {
		if user.IsAuthorizedForService(s) {
			out = append(out, s)
		}
	}
	return out
}

func serviceInState(state int) func(*objects.Service) bool {
	return func(s *objects.Service) bool { return s.HasBeenChecked && s.CurrentState == state }
}

// serviceSeverity orders service states as OK < WARN < UNKNOWN < CRIT.
func serviceSeverity(state int) int {
	switch state {
	case objects.ServiceOK:
		return 0
	case objects.ServiceWarning:
		return 1
	case objects.ServiceUnknown:
		return 2
	}
	return 3
}
