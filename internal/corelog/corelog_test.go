package corelog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanplexian/livestatusd/internal/objects"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Entry
	}{
		{
			"host alert",
			"[1700000000] HOST ALERT: web-01;DOWN;SOFT;2;PING CRITICAL - Packet loss = 100%",
			Entry{Class: ClassAlert, Type: "HOST ALERT", HostName: "web-01", State: 1, StateType: "SOFT", Attempt: 2,
				PluginOutput: "PING CRITICAL - Packet loss = 100%"},
		},
		{
			"service alert keeps semicolons in output",
			"[1700000000] SERVICE ALERT: web-01;HTTP;CRITICAL;HARD;3;HTTP CRITICAL; 503",
			Entry{Class: ClassAlert, Type: "SERVICE ALERT", HostName: "web-01", ServiceDescription: "HTTP", State: 2,
				StateType: "HARD", Attempt: 3, PluginOutput: "HTTP CRITICAL; 503"},
		},
		{
			"initial state",
			"[1700000000] INITIAL SERVICE STATE: db;MySQL;UNKNOWN;HARD;1;no socket",
			Entry{Class: ClassState, Type: "INITIAL SERVICE STATE", HostName: "db", ServiceDescription: "MySQL", State: 3,
				StateType: "HARD", Attempt: 1, PluginOutput: "no socket"},
		},
		{
			"service notification",
			"[1700000000] SERVICE NOTIFICATION: admin;web-01;HTTP;ACKNOWLEDGEMENT (WARNING);notify-by-email;slow",
			Entry{Class: ClassNotification, Type: "SERVICE NOTIFICATION", ContactName: "admin", HostName: "web-01",
				ServiceDescription: "HTTP", State: 1, StateType: "ACKNOWLEDGEMENT (WARNING)", CommandName: "notify-by-email",
				PluginOutput: "slow"},
		},
		{
			"host notification",
			"[1700000000] HOST NOTIFICATION: admin;web-01;UNREACHABLE;notify-by-sms;timeout",
			Entry{Class: ClassNotification, Type: "HOST NOTIFICATION", ContactName: "admin", HostName: "web-01", State: 2,
				StateType: "UNREACHABLE", CommandName: "notify-by-sms", PluginOutput: "timeout"},
		},
		{
			"downtime",
			"[1700000000] HOST DOWNTIME ALERT: web-01;STARTED; Host has entered a period of scheduled downtime",
			Entry{Class: ClassAlert, Type: "HOST DOWNTIME ALERT", HostName: "web-01", StateType: "STARTED",
				Comment: "Host has entered a period of scheduled downtime"},
		},
		{
			"passive check",
			"[1700000000] PASSIVE SERVICE CHECK: web-01;Disk;1;DISK WARNING",
			Entry{Class: ClassPassiveCheck, Type: "PASSIVE SERVICE CHECK", HostName: "web-01", ServiceDescription: "Disk",
				State: 1, PluginOutput: "DISK WARNING"},
		},
		{
			"external command",
			"[1700000000] EXTERNAL COMMAND: ACKNOWLEDGE_HOST_PROBLEM;web-01;2;1;0;admin;on it",
			Entry{Class: ClassCommand, Type: "EXTERNAL COMMAND", CommandName: "ACKNOWLEDGE_HOST_PROBLEM"},
		},
		{"log version", "[1700000000] LOG VERSION: 2.0", Entry{Class: ClassProgram, Type: "LOG VERSION"}},
		{"program start", "[1700000000] Nagios 4.4.6 starting... (PID=42)", Entry{Class: ClassProgram}},
		{"free text", "[1700000000] Warning: check result queue full", Entry{Class: ClassInfo, Type: "Warning"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			require.True(t, ok)
			want := tt.want
			want.Time = time.Unix(1700000000, 0)
			want.Message = tt.line
			if _, options, ok := strings.Cut(tt.line, ": "); ok {
				want.Options = options
			}
			assert.Equal(t, &want, got)
		})
	}
}

func TestParseLineRejects(t *testing.T) {
	for _, line := range []string{"", "HOST ALERT: a;UP;HARD;1;ok", "[abc] LOG VERSION: 2.0", "[123 LOG VERSION: 2.0"} {
		if _, ok := ParseLine(line); ok {
			t.Errorf("ParseLine(%q) = ok, want rejected", line)
		}
	}
}

func TestReadBounds(t *testing.T) {
	log := strings.Join([]string{
		"[100] LOG VERSION: 2.0",
		"garbage",
		"[200] HOST ALERT: a;DOWN;SOFT;1;down",
		"[300] HOST ALERT: a;DOWN;HARD;3;down",
		"[400] HOST ALERT: a;UP;HARD;1;up",
	}, "\n")

	tests := []struct {
		name         string
		since, until int64
		wantLines    []int
	}{
		{"everything", 0, 1000, []int{1, 3, 4, 5}},
		{"inclusive", 200, 300, []int{3, 4}},
		{"after the end", 500, 1000, nil},
		{"before the start", 0, 50, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Read(strings.NewReader(log), time.Unix(tt.since, 0), time.Unix(tt.until, 0))
			require.NoError(t, err)
			var lines []int
			for _, e := range entries {
				lines = append(lines, e.Lineno)
			}
			assert.Equal(t, tt.wantLines, lines)
		})
	}
}

func TestWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.log")
	notified := 0
	w, err := Open(path, func() { notified++ })
	require.NoError(t, err)
	w.now = func() time.Time { return time.Unix(1700000000, 0) }

	h := &objects.Host{Name: "web-01", CurrentState: objects.HostDown, StateType: objects.StateTypeHard, CurrentAttempt: 3,
		PluginOutput: "line one\nline two"}
	s := &objects.Service{Host: h, Description: "HTTP", CurrentState: objects.ServiceWarning, CurrentAttempt: 1, PluginOutput: "slow"}
	require.NoError(t, w.InitialStates([]*objects.Host{h}, []*objects.Service{s}))
	require.NoError(t, w.HostAlert(h))
	require.NoError(t, w.ServiceAlert(s))
	require.NoError(t, w.ExternalCommand("DISABLE_NOTIFICATIONS", nil))
	require.NoError(t, w.ServiceDowntime("web-01", "HTTP", "CANCELLED", "Scheduled downtime for service has been cancelled."))
	require.NoError(t, w.Close())
	assert.Equal(t, 7, notified)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"[1700000000] LOG VERSION: 2.0",
		`[1700000000] INITIAL HOST STATE: web-01;DOWN;HARD;3;line one\nline two`,
		"[1700000000] INITIAL SERVICE STATE: web-01;HTTP;WARNING;SOFT;1;slow",
		`[1700000000] HOST ALERT: web-01;DOWN;HARD;3;line one\nline two`,
		"[1700000000] SERVICE ALERT: web-01;HTTP;WARNING;SOFT;1;slow",
		"[1700000000] EXTERNAL COMMAND: DISABLE_NOTIFICATIONS",
		"[1700000000] SERVICE DOWNTIME ALERT: web-01;HTTP;CANCELLED; Scheduled downtime for service has been cancelled.",
	}, strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"))

	entries, err := ReadFile(path, time.Unix(0, 0), time.Unix(1800000000, 0))
	require.NoError(t, err)
	require.Len(t, entries, 7)
	assert.Equal(t, ClassState, entries[2].Class)
	assert.Equal(t, "slow", entries[4].PluginOutput)
	assert.Equal(t, "CANCELLED", entries[6].StateType)
}

func TestNilWriterDiscards(t *testing.T) {
	var w *Writer
	assert.NoError(t, w.HostAlert(&objects.Host{Name: "a"}))
	assert.NoError(t, w.Close())
}
