package livestatus

import (
	"iter"

	"github.com/oceanplexian/livestatusd/internal/api"
	"github.com/oceanplexian/livestatusd/internal/objects"
)

func newHostGroupsTable(core api.Core) *Table {
	t := newTable(core, "hostgroups", "hostgroup_")
	addHostGroupColumns(t, "", Offsets{})
	t.rows = func(*Query) iter.Seq[Row] { return sliceRows(core.HostGroups()) }
	t.isAuthorized = func(row Row, user User) bool {
		return user.IsAuthorizedForHostGroup(rowData[objects.HostGroup](row))
	}
	t.findObject = func(key string) (Row, bool) {
		g := core.FindHostGroup(key)
		return NewRow(g), g != nil
	}
	return t
}

func addHostGroupColumns(t *Table, prefix string, o Offsets) {
	str := func(name, desc string, get func(*objects.HostGroup) string) {
		t.AddColumn(NewStringColumn(prefix+name, desc, o, get))
	}
	str("name", "Name of the hostgroup", func(g *objects.HostGroup) string { return g.Name })
	str("alias", "An alias of the hostgroup", func(g *objects.HostGroup) string { return g.Alias })
	str("notes", "Optional notes to the hostgroup", func(g *objects.HostGroup) string { return g.Notes })
	str("notes_url", "An optional URL with further information about the hostgroup", func(g *objects.HostGroup) string { return g.NotesURL })
	str("action_url", "An optional URL to custom actions or information about the hostgroup", func(g *objects.HostGroup) string { return g.ActionURL })

	t.AddColumn(NewListColumn(prefix+"members", "A list of all host names that are members of the hostgroup", o,
		func(g *objects.HostGroup, user User) []string {
			return names(visibleHosts(g.Members, user), func(h *objects.Host) string { return h.Name })
		}))

	countHosts := func(name, desc string, match func(*objects.Host) bool) {
		t.AddColumn(NewAuthIntColumn(prefix+name, desc, o, func(g *objects.HostGroup, user User) int64 {
			var n int64
			for _, h := range visibleHosts(g.Members, user) {
				if match(h) {
					n++
				}
			}
			return n
		}))
	}
	countHosts("num_hosts", "The total number of hosts in the group", func(*objects.Host) bool { return true })
	countHosts("num_hosts_pending", "The number of hosts in the group that are pending", func(h *objects.Host) bool { return !h.HasBeenChecked })
	countHosts("num_hosts_up", "The number of hosts in the group that are up", hostInState(objects.HostUp))
	countHosts("num_hosts_down", "The number of hosts in the group that are down", hostInState(objects.HostDown))
	countHosts("num_hosts_unreach", "The number of hosts in the group that are unreachable", hostInState(objects.HostUnreachable))

	t.AddColumn(NewAuthIntColumn(prefix+"worst_host_state", "The worst state of all of the groups' hosts (UP <= UNREACHABLE <= DOWN)", o,
		func(g *objects.HostGroup, user User) int64 {
			worst := objects.HostUp
			for _, h := range visibleHosts(g.Members, user) {
				if hostSeverity(h.CurrentState) > hostSeverity(worst) {
					worst = h.CurrentState
				}
			}
			return int64(worst)
		}))

	groupServices := func(g *objects.HostGroup, user User) []*objects.Service {
		var out []*objects.Service
		for _, h := range visibleHosts(g.Members, user) {
			out = append(out, visibleServices(h, user)...)
		}
		return out
	}
	addServiceCounts(t, prefix, o, groupServices)
}

func newServiceGroupsTable(core api.Core) *Table {
	t := newTable(core, "servicegroups", "servicegroup_")
	addServiceGroupColumns(t, "", Offsets{})
	t.rows = func(*Query) iter.Seq[Row] { return sliceRows(core.ServiceGroups()) }
	t.isAuthorized = func(row Row, user User) bool {
		return user.IsAuthorizedForServiceGroup(rowData[objects.ServiceGroup](row))
	}
	t.findObject = func(key string) (Row, bool) {
		g := core.FindServiceGroup(key)
		return NewRow(g), g != nil
	}
	return t
}

func addServiceGroupColumns(t *Table, prefix string, o Offsets) {
	str := func(name, desc string, get func(*objects.ServiceGroup) string) {
		t.AddColumn(NewStringColumn(prefix+name, desc, o, get))
	}
	str("name", "Name of the servicegroup", func(g *objects.ServiceGroup) string { return g.Name })
	str("alias", "An alias of the servicegroup", func(g *objects.ServiceGroup) string { return g.Alias })
	str("notes", "Optional additional notes about the service group", func(g *objects.ServiceGroup) string { return g.Notes })
	str("notes_url", "An optional URL to further notes on the service group", func(g *objects.ServiceGroup) string { return g.NotesURL })
	str("action_url", "An optional URL to custom notes or actions on the service group", func(g *objects.ServiceGroup) string { return g.ActionURL })

	members := func(g *objects.ServiceGroup, user User) []*objects.Service {
		out := make([]*objects.Service, 0, len(g.Members))
		for _, s := range g.Members {
			if user.IsAuthorizedForService(s) {
				out = append(out, s)
			}
		}
		return out
	}
	t.AddColumn(NewPairListColumn(prefix+"members", "A list of all members of the service group as host/service pairs", o,
		func(g *objects.ServiceGroup, user User) []string {
			return names(members(g, user), func(s *objects.Service) string { return s.Host.Name + "|" + s.Description })
		}))
	addServiceCounts(t, prefix, o, members)
}

// addServiceCounts adds the num_services* and worst_service_state columns
// of a group whose visible services services returns.
func addServiceCounts[T any](t *Table, prefix string, o Offsets, services func(*T, User) []*objects.Service) {
	count := func(name, desc string, match func(*objects.Service) bool) {
		t.AddColumn(NewAuthIntColumn(prefix+name, desc, o, func(g *T, user User) int64 {
			var n int64
			for _, s := range services(g, user) {
				if match(s) {
					n++
				}
			}
			return n
		}))
	}
	count("num_services", "The total number of services in the group", func(*objects.Service) bool { return true })
	count("num_services_pending", "The number of services in the group that are pending", func(s *objects.Service) bool { return !s.HasBeenChecked })
	count("num_services_ok", "The number of services in the group that are OK", serviceInState(objects.ServiceOK))
	count("num_services_warn", "The number of services in the group that are WARN", serviceInState(objects.ServiceWarning))
	count("num_services_crit", "The number of services in the group that are CRIT", serviceInState(objects.ServiceCritical))
	count("num_services_unknown", "The number of services in the group that are UNKNOWN", serviceInState(objects.ServiceUnknown))

	t.AddColumn(NewAuthIntColumn(prefix+"worst_service_state", "The worst soft state of all of the group's services (OK <= WARN <= UNKNOWN <= CRIT)", o,
		func(g *T, user User) int64 {
			worst := objects.ServiceOK
			for _, s := range services(g, user) {
				if serviceSeverity(s.CurrentState) > serviceSeverity(worst) {
					worst = s.CurrentState
				}
			}
			return int64(worst)
		}))
}

func visibleHosts(hosts []*objects.Host, user User) []*objects.Host {
	out := make([]*objects.Host, 0, len(hosts))
	for _, h := range hosts {
		if user.IsAuthorizedForHost(h) {
			out = append(out, h)
		}
	}
	return out
}

func hostInState(state int) func(*objects.Host) bool {
	return func(h *objects.Host) bool { return h.HasBeenChecked && h.CurrentState == state }
}

// hostSeverity orders host states as UP < UNREACHABLE < DOWN.
func hostSeverity(state int) int {
	switch state {
	case objects.HostUp:
		return 0
	case objects.HostUnreachable:
		return 1
	}
	return 2
}
