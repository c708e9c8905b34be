package livestatus

import (
	"iter"
	"time"

	"github.com/oceanplexian/livestatusd/internal/api"
	"github.com/oceanplexian/livestatusd/internal/objects"
)

func newContactsTable(core api.Core) *Table {
	t := newTable(core, "contacts", "contact_")
	o := Offsets{}
	str := func(name, desc string, get func(*objects.Contact) string) {
		t.AddColumn(NewStringColumn(name, desc, o, get))
	}
	flag := func(name, desc string, get func(*objects.Contact) bool) {
		t.AddColumn(NewBoolColumn(name, desc, o, get))
	}
	str("name", "The login name of the contact person", func(c *objects.Contact) string { return c.Name })
	str("alias", "The full name of the contact", func(c *objects.Contact) string { return c.Alias })
	str("email", "The email address of the contact", func(c *objects.Contact) string { return c.Email })
	str("pager", "The pager address of the contact", func(c *objects.Contact) string { return c.Pager })
	str("host_notification_period", "The time period in which the contact will be notified about host problems", func(c *objects.Contact) string {
		return timeperiodName(c.HostNotificationPeriod)
	})
	str("service_notification_period", "The time period in which the contact will be notified about service problems", func(c *objects.Contact) string {
		return timeperiodName(c.ServiceNotificationPeriod)
	})
	flag("host_notifications_enabled", "Whether the contact will be notified about host problems in general (0/1)", func(c *objects.Contact) bool {
		return c.HostNotificationsEnabled
	})
	flag("service_notifications_enabled", "Whether the contact will be notified about service problems in general (0/1)", func(c *objects.Contact) bool {
		return c.ServiceNotificationsEnabled
	})
	flag("can_submit_commands", "Whether the contact is allowed to submit commands (0/1)", func(c *objects.Contact) bool { return c.CanSubmitCommands })
	flag("in_host_notification_period", "Whether the contact is currently in his/her host notification period (0/1)", func(c *objects.Contact) bool {
		return objects.InTimeperiod(c.HostNotificationPeriod, time.Now())
	})
	flag("in_service_notification_period", "Whether the contact is currently in his/her service notification period (0/1)", func(c *objects.Contact) bool {
		return objects.InTimeperiod(c.ServiceNotificationPeriod, time.Now())
	})
	t.AddColumn(NewIntColumn("modified_attributes", "A bitmask specifying which attributes have been modified", o, func(c *objects.Contact) int64 {
		return int64(c.ModifiedAttributes)
	}))
	t.AddColumn(NewListColumn("groups", "A list of all contact groups this contact is in", o, func(c *objects.Contact, _ User) []string {
		return names(c.ContactGroups, func(g *objects.ContactGroup) string { return g.Name })
	}))
	t.AddColumn(NewListColumn("custom_variable_names", "A list of all custom variables of the contact", o, func(c *objects.Contact, _ User) []string {
		return sortedKeys(c.CustomVars)
	}))
	t.AddColumn(NewDictColumn("custom_variables", "A dictionary of the custom variables", o, func(c *objects.Contact) map[string]string {
		return c.CustomVars
	}))

	t.rows = func(*Query) iter.Seq[Row] { return sliceRows(core.Contacts()) }
	t.findObject = func(key string) (Row, bool) {
		c := core.FindContact(key)
		return NewRow(c), c != nil
	}
	return t
}

func newContactGroupsTable(core api.Core) *Table {
	t := newTable(core, "contactgroups", "contactgroup_")
	o := Offsets{}
	t.AddColumn(NewStringColumn("name", "The name of the contactgroup", o, func(g *objects.ContactGroup) string { return g.Name }))
	t.AddColumn(NewStringColumn("alias", "The alias of the contactgroup", o, func(g *objects.ContactGroup) string { return g.Alias }))
	t.AddColumn(NewListColumn("members", "A list of all members of this contactgroup", o, func(g *objects.ContactGroup, _ User) []string {
		return names(g.Members, func(c *objects.Contact) string { return c.Name })
	}))
	t.rows = func(*Query) iter.Seq[Row] { return sliceRows(core.ContactGroups()) }
	t.findObject = func(key string) (Row, bool) {
		g := core.FindContactGroup(key)
		return NewRow(g), g != nil
	}
	return t
}

func newCommandsTable(core api.Core) *Table {
	t := newTable(core, "commands", "command_")
	o := Offsets{}
	t.AddColumn(NewStringColumn("name", "The name of the command", o, func(c *objects.Command) string { return c.Name }))
	t.AddColumn(NewStringColumn("line", "The shell command line", o, func(c *objects.Command) string { return c.CommandLine }))
	t.rows = func(*Query) iter.Seq[Row] { return sliceRows(core.Commands()) }
	return t
}

func newTimeperiodsTable(core api.Core) *Table {
	t := newTable(core, "timeperiods", "timeperiod_")
	o := Offsets{}
	t.AddColumn(NewStringColumn("name", "The name of the timeperiod", o, func(tp *objects.Timeperiod) string { return tp.Name }))
	t.AddColumn(NewStringColumn("alias", "The alias of the timeperiod", o, func(tp *objects.Timeperiod) string { return tp.Alias }))
	t.AddColumn(NewBoolColumn("in", "Whether we are currently in this period (0/1)", o, func(tp *objects.Timeperiod) bool {
		return objects.InTimeperiod(tp, time.Now())
	}))
	t.rows = func(*Query) iter.Seq[Row] { return sliceRows(core.Timeperiods()) }
	return t
}
