package livestatus

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/oceanplexian/livestatusd/internal/api"
	"github.com/oceanplexian/livestatusd/internal/objects"
)

func newServicesTable(core api.Core) *Table {
	t := newTable(core, "services", "service_")
	addServiceColumns(t, core, "", Offsets{}, true)
	t.rows = func(q *Query) iter.Seq[Row] {
		return serviceRows(core, q.Filter(), q.TimezoneOffset())
	}
	t.isAuthorized = func(row Row, user User) bool {
		return user.IsAuthorizedForService(rowData[objects.Service](row))
	}
	t.findObject = func(key string) (Row, bool) {
		host, desc, ok := splitServiceKey(key)
		if !ok {
			return Row{}, false
		}
		s := core.FindService(host, desc)
		return NewRow(s), s != nil
	}
	return t
}

// serviceRows picks the cheapest row source the filter allows: one host's
// services, the members of a service group, the services of a host group's
// members, or all services.
func serviceRows(core api.Core, f Filter, tz time.Duration) iter.Seq[Row] {
	if states, ok := f.ValueSetLeastUpperBoundFor("state", tz); ok && states&0xf == 0 {
		return sliceRows[objects.Service](nil)
	}
	if name, ok := f.StringValueRestrictionFor("host_name"); ok {
		h := core.FindHost(name)
		if h == nil {
			return sliceRows[objects.Service](nil)
		}
		return sliceRows(h.Services)
	}
	if group, ok := f.StringValueRestrictionFor("groups"); ok {
		if sg := core.FindServiceGroup(group); sg != nil {
			return sliceRows(sg.Members)
		}
		return sliceRows[objects.Service](nil)
	}
	if group, ok := f.StringValueRestrictionFor("host_groups"); ok {
		hg := core.FindHostGroup(group)
		if hg == nil {
			return sliceRows[objects.Service](nil)
		}
		return func(yield func(Row) bool) {
			for _, h := range hg.Members {
				for _, s := range h.Services {
					if !yield(NewRow(s)) {
						return
					}
				}
			}
		}
	}
	return sliceRows(core.Services())
}

// splitServiceKey splits "host;description". The description may contain
// further semicolons.
func splitServiceKey(key string) (host, desc string, ok bool) {
	return strings.Cut(key, ";")
}

func serviceHost(s *objects.Service) *objects.Host { return s.Host }

// addServiceColumns registers the service columns under prefix, reaching the
// service through o. withHost adds the columns of its host as "host_".
func addServiceColumns(t *Table, core api.Core, prefix string, o Offsets, withHost bool) {
	str := func(name, desc string, get func(*objects.Service) string) {
		t.AddColumn(NewStringColumn(prefix+name, desc, o, get))
	}
	num := func(name, desc string, get func(*objects.Service) int64) {
		t.AddColumn(NewIntColumn(prefix+name, desc, o, get))
	}
	flag := func(name, desc string, get func(*objects.Service) bool) {
		t.AddColumn(NewBoolColumn(prefix+name, desc, o, get))
	}
	dbl := func(name, desc string, get func(*objects.Service) float64) {
		t.AddColumn(NewDoubleColumn(prefix+name, desc, o, get))
	}
	tm := func(name, desc string, get func(*objects.Service) time.Time) {
		t.AddColumn(NewTimeColumn(prefix+name, desc, o, get))
	}
	list := func(name, desc string, get func(*objects.Service, User) []string) {
		t.AddColumn(NewListColumn(prefix+name, desc, o, get))
	}

	str("description", "Description of the service (also used as key)", func(s *objects.Service) string { return s.Description })
	str("display_name", "An optional display name", func(s *objects.Service) string { return s.DisplayName })
	str("check_command", "Logical command name for active checks, including any arguments", func(s *objects.Service) string {
		return commandString(s.CheckCommand, s.CheckCommandArgs)
	})
	str("check_period", "The name of the check period of the service", func(s *objects.Service) string {
		return timeperiodName(s.CheckPeriod)
	})
	str("notification_period", "The name of the notification period of the service", func(s *objects.Service) string {
		return timeperiodName(s.NotificationPeriod)
	})
	str("plugin_output", "Output of the last check", func(s *objects.Service) string { return s.PluginOutput })
	str("long_plugin_output", "Long (extra) output of the last check", func(s *objects.Service) string { return s.LongPluginOutput })
	str("perf_data", "Optional performance data of the last check", func(s *objects.Service) string { return s.PerfData })
	str("notes", "Optional notes about the service", func(s *objects.Service) string { return s.Notes })
	str("notes_url", "An optional URL for additional notes about the service", func(s *objects.Service) string { return s.NotesURL })
	str("action_url", "An optional URL for actions or custom information about the service", func(s *objects.Service) string { return s.ActionURL })
	str("icon_image", "The name of an image to be used as icon in the web interface", func(s *objects.Service) string { return s.IconImage })

	num("state", "The current state of the service (0: OK, 1: WARN, 2: CRITICAL, 3: UNKNOWN)", func(s *objects.Service) int64 { return int64(s.CurrentState) })
	num("state_type", "The type of the current state (0: soft, 1: hard)", func(s *objects.Service) int64 { return int64(s.StateType) })
	num("last_state", "The last state of the service", func(s *objects.Service) int64 { return int64(s.LastState) })
	num("last_hard_state", "The last hard state of the service", func(s *objects.Service) int64 { return int64(s.LastHardState) })
	num("hard_state", "The effective hard state of the service", func(s *objects.Service) int64 {
		if s.StateType == objects.StateTypeHard {
			return int64(s.CurrentState)
		}
		return int64(s.LastHardState)
	})
	num("current_attempt", "The number of the current check attempt", func(s *objects.Service) int64 { return int64(s.CurrentAttempt) })
	num("max_check_attempts", "The maximum number of check attempts", func(s *objects.Service) int64 { return int64(s.MaxCheckAttempts) })
	num("current_notification_number", "The number of the current notification", func(s *objects.Service) int64 { return int64(s.CurrentNotificationNumber) })
	num("acknowledgement_type", "The type of the acknowledgement (0: none, 1: normal, 2: sticky)", func(s *objects.Service) int64 { return int64(s.AckType) })
	num("scheduled_downtime_depth", "The number of scheduled downtimes the service is currently in", func(s *objects.Service) int64 { return int64(s.ScheduledDowntimeDepth) })
	num("check_type", "The type of the last check (0: active, 1: passive)", func(s *objects.Service) int64 { return int64(s.CheckType) })
	num("modified_attributes", "A bitmask specifying which attributes have been modified", func(s *objects.Service) int64 { return int64(s.ModifiedAttributes) })

	flag("has_been_checked", "Whether the service already has been checked (0/1)", func(s *objects.Service) bool { return s.HasBeenChecked })
	flag("is_flapping", "Whether the service is flapping (0/1)", func(s *objects.Service) bool { return s.IsFlapping })
	flag("acknowledged", "Whether the current service problem has been acknowledged (0/1)", func(s *objects.Service) bool { return s.ProblemAcknowledged })
	flag("active_checks_enabled", "Whether active checks are enabled for the service (0/1)", func(s *objects.Service) bool { return s.ActiveChecksEnabled })
	flag("checks_enabled", "Whether checks of the service are enabled (0/1)", func(s *objects.Service) bool { return s.ActiveChecksEnabled })
	flag("accept_passive_checks", "Whether the service accepts passive checks (0/1)", func(s *objects.Service) bool { return s.PassiveChecksEnabled })
	flag("event_handler_enabled", "Whether and event handler is activated for the service (0/1)", func(s *objects.Service) bool { return s.EventHandlerEnabled })
	flag("flap_detection_enabled", "Whether flap detection is enabled for the service (0/1)", func(s *objects.Service) bool { return s.FlapDetectionEnabled })
	flag("notifications_enabled", "Whether notifications are enabled for the service (0/1)", func(s *objects.Service) bool { return s.NotificationsEnabled })
	flag("in_check_period", "Whether the service is currently in its check period (0/1)", func(s *objects.Service) bool {
		return objects.InTimeperiod(s.CheckPeriod, time.Now())
	})
	flag("in_notification_period", "Whether the service is currently in its notification period (0/1)", func(s *objects.Service) bool {
		return objects.InTimeperiod(s.NotificationPeriod, time.Now())
	})

	dbl("check_interval", "Number of basic interval lengths between two scheduled checks of the service", func(s *objects.Service) float64 { return s.CheckInterval })
	dbl("retry_interval", "Number of basic interval lengths between checks when retrying after a soft error", func(s *objects.Service) float64 { return s.RetryInterval })
	dbl("latency", "Time difference between scheduled check time and actual check time", func(s *objects.Service) float64 { return s.Latency })
	dbl("execution_time", "Time the service check needed for execution", func(s *objects.Service) float64 { return s.ExecutionTime })
	dbl("percent_state_change", "Percent state change", func(s *objects.Service) float64 { return s.PercentStateChange })
	dbl("staleness", "The staleness of this service", func(s *objects.Service) float64 {
		return staleness(s.LastCheck, s.CheckInterval)
	})

	tm("last_check", "The time of the last check (Unix timestamp)", func(s *objects.Service) time.Time { return s.LastCheck })
	tm("next_check", "The scheduled time of the next check (Unix timestamp)", func(s *objects.Service) time.Time { return s.NextCheck })
	tm("last_state_change", "The time of the last state change (Unix timestamp)", func(s *objects.Service) time.Time { return s.LastStateChange })
	tm("last_hard_state_change", "The time of the last hard state change (Unix timestamp)", func(s *objects.Service) time.Time { return s.LastHardStateChange })
	tm("last_notification", "The time of the last notification (Unix timestamp)", func(s *objects.Service) time.Time { return s.LastNotification })

	list("contacts", "A list of all contacts of the service", func(s *objects.Service, _ User) []string {
		return names(s.Contacts, func(c *objects.Contact) string { return c.Name })
	})
	list("contact_groups", "A list of all contact groups this service is in", func(s *objects.Service, _ User) []string {
		return names(s.ContactGroups, func(g *objects.ContactGroup) string { return g.Name })
	})
	list("groups", "A list of all service groups the service is in", func(s *objects.Service, user User) []string {
		var groups []string
		for _, g := range s.ServiceGroups {
			if user.IsAuthorizedForServiceGroup(g) {
				groups = append(groups, g.Name)
			}
		}
		return groups
	})
	list("comments", "A list of all comment ids of the service", func(s *objects.Service, _ User) []string {
		var ids []string
		for _, c := range core.ServiceComments(s) {
			ids = append(ids, strconv.FormatUint(c.CommentID, 10))
		}
		return ids
	})
	list("comments_with_info", "A list of all comments of the service with id, author and comment", func(s *objects.Service, _ User) []string {
		var infos []string
		for _, c := range core.ServiceComments(s) {
			infos = append(infos, fmt.Sprintf("%d|%s|%s", c.CommentID, c.Author, c.Data))
		}
		return infos
	})
	list("downtimes", "A list of all downtime ids of the service", func(s *objects.Service, _ User) []string {
		var ids []string
		for _, d := range core.ServiceDowntimes(s) {
			ids = append(ids, strconv.FormatUint(d.DowntimeID, 10))
		}
		return ids
	})
	list("downtimes_with_info", "A list of all downtimes of the service with id, author and comment", func(s *objects.Service, _ User) []string {
		var infos []string
		for _, d := range core.ServiceDowntimes(s) {
			infos = append(infos, fmt.Sprintf("%d|%s|%s", d.DowntimeID, d.Author, d.Comment))
		}
		return infos
	})
	list("modified_attributes_list", "A list of all modified attributes", func(s *objects.Service, _ User) []string {
		return modifiedAttributes(s.ModifiedAttributes)
	})
	list("custom_variable_names", "A list of the names of the custom variables of the service", func(s *objects.Service, _ User) []string {
		return sortedKeys(s.CustomVars)
	})
	list("custom_variable_values", "A list of the values of all custom variables of the service", func(s *objects.Service, _ User) []string {
		var values []string
		for _, k := range sortedKeys(s.CustomVars) {
			values = append(values, s.CustomVars[k])
		}
		return values
	})
	t.AddColumn(NewDictColumn(prefix+"custom_variables", "A dictionary of the custom variables", o,
		func(s *objects.Service) map[string]string { return s.CustomVars }))

	if withHost {
		addHostColumns(t, core, prefix+"host_", o.Add(Shift(serviceHost)))
	}
}
