package livestatus

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanplexian/livestatusd/internal/downtime"
	"github.com/oceanplexian/livestatusd/internal/objects"
)

func TestRegistryTables(t *testing.T) {
	reg, _ := newTestRegistry(t)
	var names []string
	for _, tbl := range reg.Tables() {
		names = append(names, tbl.Name())
	}
	assert.Equal(t, []string{
		"columns", "commands", "comments", "contactgroups", "contacts", "downtimes",
		"hostgroups", "hosts", "log", "servicegroups", "services", "status", "timeperiods",
	}, names)
}

func TestTableColumnResolution(t *testing.T) {
	reg, _ := newTestRegistry(t)
	hosts, _ := reg.Table("hosts")
	services, _ := reg.Table("services")

	tests := []struct {
		table *Table
		in    string
		want  string
	}{
		{hosts, "name", "name"},
		{hosts, "host_name", "name"},
		{hosts, "host_host_state", "state"},
		{services, "service_description", "description"},
		{services, "host_name", "host_name"},
		{services, "service_host_name", "host_name"},
	}
	for _, tt := range tests {
		c, err := tt.table.Column(tt.in)
		if !assert.NoError(t, err, "%s.%s", tt.table.Name(), tt.in) {
			continue
		}
		if c.Name() != tt.want {
			t.Errorf("%s.Column(%q) = %q, want %q", tt.table.Name(), tt.in, c.Name(), tt.want)
		}
	}

	_, err := hosts.Column("nosuch")
	assert.EqualError(t, err, "table 'hosts' has no column 'nosuch'")
}

func TestTableDuplicateColumnPanics(t *testing.T) {
	tbl := newTable(nil, "test", "")
	tbl.AddColumn(NewNullColumn("x", ""))
	assert.Panics(t, func() { tbl.AddColumn(NewNullColumn("x", "")) })
}

func TestDynamicColumnErrors(t *testing.T) {
	reg, _ := newTestRegistry(t)
	hosts, _ := reg.Table("hosts")
	tests := []struct {
		in   string
		want string
	}{
		{"rrddata:x:y", "table 'hosts' has no dynamic column 'rrddata'"},
		{"mk_logwatch_file:", "missing separator in dynamic column 'mk_logwatch_file'"},
		{"mk_logwatch_file::messages", "empty column name for dynamic column 'mk_logwatch_file'"},
		{"mk_logwatch_file:log:", "invalid arguments for column 'log': missing file name"},
		{"mk_logwatch_file:log:../secret", "contains invalid characters"},
		{"mk_logwatch_file:log:dir/file", "contains invalid characters"},
	}
	for _, tt := range tests {
		_, err := hosts.Column(tt.in)
		if assert.Error(t, err, tt.in) {
			assert.Contains(t, err.Error(), tt.want, tt.in)
		}
	}
}

func TestLogwatchColumn(t *testing.T) {
	p := newTestProvider(t)
	dir := t.TempDir()
	p.Options.MkLogwatchPath = dir
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "messages"), []byte("boot ok"), 0o644))
	reg := NewRegistry(p)

	body := mustQuery(t, reg, "GET hosts\nColumns: name mk_logwatch_file:log:messages\nFilter: name ~ ^[ab]$\nOutputFormat: json")
	assert.Equal(t, "[[\"a\",\"boot ok\"],\n[\"b\",null]]\n", body)

	body = mustQuery(t, reg, "GET services\nColumns: host_mk_logwatch_file:log:messages\nFilter: host_name = a\nFilter: description = HTTP")
	assert.Equal(t, "boot ok\n", body)
}

func TestColumnsTable(t *testing.T) {
	reg, _ := newTestRegistry(t)
	tests := []struct {
		request string
		want    string
	}{
		{"GET columns\nColumns: table name type\nFilter: table = commands", "commands;line;string\ncommands;name;string\n"},
		{"GET columns\nColumns: name\nFilter: table = columns", "description\nname\ntable\ntype\n"},
		{"GET columns\nColumns: type\nFilter: table = hosts\nFilter: name = custom_variables", "dict\n"},
		{"GET columns\nColumns: type\nFilter: table = status\nFilter: name = program_start", "time\n"},
	}
	for _, tt := range tests {
		if got := mustQuery(t, reg, tt.request); got != tt.want {
			t.Errorf("query %q = %q, want %q", tt.request, got, tt.want)
		}
	}

	body := mustQuery(t, reg, "GET columns\nColumns: table\nFilter: table = hosts\nFilter: description =")
	assert.Empty(t, body, "every column is documented")
}

func TestStatusTable(t *testing.T) {
	reg, p := newTestRegistry(t)
	closeConn := p.Metrics.ConnectionOpened()
	p.Metrics.CommandReceived()
	p.Global.EnableFlapDetection = false

	body := mustQuery(t, reg, "GET status\nColumns: num_hosts num_services livestatus_version program_version "+
		"enable_flap_detection connections livestatus_active_connections external_commands")
	assert.Equal(t, "3;4;"+Version+";livestatusd;0;1;1;1\n", body)

	closeConn()
	body = mustQuery(t, reg, "GET status\nColumns: status_livestatus_active_connections")
	assert.Equal(t, "0\n", body)
}

func TestCommentsTable(t *testing.T) {
	reg, p := newTestRegistry(t)
	hostID := p.Comments.Add(&downtime.Comment{
		CommentType: objects.HostCommentType,
		EntryType:   objects.UserCommentEntry,
		HostName:    "a",
		Author:      "alice",
		Data:        "first",
	})
	svcID := p.Comments.Add(&downtime.Comment{
		CommentType:        objects.ServiceCommentType,
		EntryType:          objects.UserCommentEntry,
		HostName:           "b",
		ServiceDescription: "HTTP",
		Author:             "bob",
		Data:               "second",
	})

	body := mustQuery(t, reg, fmt.Sprintf("GET comments\nColumns: id comment host_name service_description is_service\nFilter: id = %d", svcID))
	assert.Equal(t, fmt.Sprintf("%d;second;b;HTTP;1\n", svcID), body)

	body = mustQuery(t, reg, "GET comments\nColumns: comment\nAuthUser: alice")
	assert.Equal(t, "first\n", body)

	body = mustQuery(t, reg, "GET hosts\nColumns: comments\nFilter: name = a")
	assert.Equal(t, fmt.Sprintf("%d\n", hostID), body)

	body = mustQuery(t, reg, fmt.Sprintf("GET comments\nColumns: author\nWaitObject: %d\nWaitCondition: author = alice\nWaitTimeout: 1000", hostID))
	assert.Equal(t, "alice\nbob\n", body)
}

func TestDowntimesTable(t *testing.T) {
	reg, p := newTestRegistry(t)
	now := time.Now()
	id := p.Downtimes.Schedule(&downtime.Downtime{
		Type:      objects.HostDowntimeType,
		HostName:  "c",
		StartTime: now.Add(-time.Minute),
		EndTime:   now.Add(time.Hour),
		Fixed:     true,
		Duration:  time.Hour,
		Author:    "admin",
		Comment:   "patching",
	})

	body := mustQuery(t, reg, fmt.Sprintf("GET downtimes\nColumns: id host_name author comment fixed is_pending duration\nFilter: id = %d", id))
	assert.Equal(t, fmt.Sprintf("%d;c;admin;patching;1;0;3600\n", id), body)

	body = mustQuery(t, reg, "GET hosts\nColumns: name scheduled_downtime_depth downtimes\nFilter: scheduled_downtime_depth > 0")
	assert.Equal(t, fmt.Sprintf("c;1;%d\n", id), body)

	body = mustQuery(t, reg, "GET comments\nColumns: host_name entry_type")
	assert.Equal(t, fmt.Sprintf("c;%d\n", objects.DowntimeCommentEntry), body)

	assert.Empty(t, mustQuery(t, reg, "GET downtimes\nColumns: id\nFilter: id = 999"))
}

func TestGroupTables(t *testing.T) {
	reg, _ := newTestRegistry(t)
	tests := []struct {
		request string
		want    string
	}{
		{"GET hostgroups\nColumns: name alias members num_hosts num_hosts_down", "web;Web servers;a,b;2;1\n"},
		{"GET servicegroups\nColumns: name members", "http;a|HTTP,b|HTTP\n"},
		{"GET servicegroups\nColumns: members\nOutputFormat: json", "[[[[\"a\",\"HTTP\"],[\"b\",\"HTTP\"]]]]\n"},
		{"GET hosts\nColumns: name groups\nFilter: groups >= web", "a;web\nb;web\n"},
		{"GET hosts\nColumns: parents childs\nFilter: name = b", "a;\n"},
	}
	for _, tt := range tests {
		if got := mustQuery(t, reg, tt.request); got != tt.want {
			t.Errorf("query %q = %q, want %q", tt.request, got, tt.want)
		}
	}
}

func TestServicesHostColumns(t *testing.T) {
	reg, _ := newTestRegistry(t)
	body := mustQuery(t, reg, "GET services\nColumns: host_name host_state host_address description\nFilter: host_name = b")
	assert.Equal(t, "b;1;b.example.com;HTTP\n", body)
}
