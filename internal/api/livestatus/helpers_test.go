package livestatus

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oceanplexian/livestatusd/internal/api"
	"github.com/oceanplexian/livestatusd/internal/objects"
)

// newTestProvider builds a small core:
//
//	hosts a (UP), b (DOWN), c (DOWN)
//	services a/HTTP (OK), a/SSH (CRITICAL), b/HTTP (WARNING), c/PING (OK)
//	hostgroup web = a, b; servicegroup http = a/HTTP, b/HTTP
//	alice is a direct contact of a and a/HTTP; bob is in admins, which is
//	the contact group of b and b/HTTP.
func newTestProvider(t testing.TB) *api.StateProvider {
	t.Helper()
	store := objects.NewObjectStore()

	always := &objects.Timeperiod{Name: "24x7", Alias: "Always"}
	for i := range always.Ranges {
		always.Ranges[i] = "00:00-24:00"
	}
	require.NoError(t, store.AddTimeperiod(always))
	ping := &objects.Command{Name: "check_ping", CommandLine: "$USER1$/check_ping -H $HOSTADDRESS$"}
	require.NoError(t, store.AddCommand(ping))

	alice := &objects.Contact{Name: "alice", Alias: "Alice", Email: "alice@example.com"}
	bob := &objects.Contact{Name: "bob", Alias: "Bob"}
	require.NoError(t, store.AddContact(alice))
	require.NoError(t, store.AddContact(bob))
	admins := &objects.ContactGroup{Name: "admins", Alias: "Admins", Members: []*objects.Contact{bob}}
	require.NoError(t, store.AddContactGroup(admins))

	newHost := func(name string, state int) *objects.Host {
		h := &objects.Host{
			Name:             name,
			Alias:            "host " + name,
			Address:          name + ".example.com",
			CheckCommand:     ping,
			CheckPeriod:      always,
			MaxCheckAttempts: 3,
			CurrentState:     state,
			HasBeenChecked:   true,
			PluginOutput:     "output of " + name,
		}
		require.NoError(t, store.AddHost(h))
		return h
	}
	a := newHost("a", objects.HostUp)
	b := newHost("b", objects.HostDown)
	c := newHost("c", objects.HostDown)
	a.Contacts = []*objects.Contact{alice}
	a.CustomVars = map[string]string{"SITE": "berlin", "OWNER": "ops"}
	a.Latency = 0.5
	b.ContactGroups = []*objects.ContactGroup{admins}
	b.Latency = 1.5
	c.Latency = 4
	store.LinkParent(b, a)

	newService := func(h *objects.Host, desc string, state int) *objects.Service {
		s := &objects.Service{
			Host:             h,
			Description:      desc,
			CheckPeriod:      always,
			MaxCheckAttempts: 1,
			CurrentState:     state,
			HasBeenChecked:   true,
		}
		require.NoError(t, store.AddService(s))
		return s
	}
	aHTTP := newService(a, "HTTP", objects.ServiceOK)
	newService(a, "SSH", objects.ServiceCritical)
	bHTTP := newService(b, "HTTP", objects.ServiceWarning)
	newService(c, "PING", objects.ServiceOK)
	aHTTP.Contacts = []*objects.Contact{alice}
	bHTTP.ContactGroups = []*objects.ContactGroup{admins}

	require.NoError(t, store.AddHostGroup(&objects.HostGroup{Name: "web", Alias: "Web servers", Members: []*objects.Host{a, b}}))
	require.NoError(t, store.AddServiceGroup(&objects.ServiceGroup{Name: "http", Alias: "HTTP", Members: []*objects.Service{aHTTP, bHTTP}}))

	return api.NewStateProvider(store, api.Options{
		ServiceAuthorization: api.AuthLoose,
		GroupAuthorization:   api.AuthStrict,
	})
}

func newTestRegistry(t testing.TB) (*Registry, *api.StateProvider) {
	t.Helper()
	p := newTestProvider(t)
	return NewRegistry(p), p
}

// runQuery parses and runs request, which holds header lines separated by
// newlines, and returns the body and the output buffer.
func runQuery(t testing.TB, reg *Registry, request string) (string, *OutputBuffer) {
	t.Helper()
	out := &OutputBuffer{}
	q := reg.ParseGet(strings.Split(strings.TrimSpace(request), "\n"), out)
	return string(q.Process()), out
}

// mustQuery is runQuery for requests that must succeed.
func mustQuery(t testing.TB, reg *Registry, request string) string {
	t.Helper()
	body, out := runQuery(t, reg, request)
	require.False(t, out.HasError(), "unexpected error %d: %s", out.Code(), out.Message())
	return body
}

// hostRow returns the row of the named host.
func hostRow(t testing.TB, p *api.StateProvider, name string) Row {
	t.Helper()
	h := p.FindHost(name)
	require.NotNil(t, h, "host %s", name)
	return NewRow(h)
}

// filterOn builds a row filter on a column of table.
func filterOn(t testing.TB, reg *Registry, table, column string, op RelOp, value string) Filter {
	t.Helper()
	tbl, ok := reg.Table(table)
	require.True(t, ok, "table %s", table)
	c, err := tbl.Column(column)
	require.NoError(t, err)
	f, err := c.CreateFilter(FilterRow, op, value)
	require.NoError(t, err)
	return f
}
