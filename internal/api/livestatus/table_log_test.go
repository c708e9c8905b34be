package livestatus

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

// The last line was written late; bounded scans stop before reaching it.
var testHistory = strings.Join([]string{
	"[1000] LOG VERSION: 2.0",
	"[1100] INITIAL HOST STATE: a;UP;HARD;1;output of a",
	"[1200] HOST ALERT: b;DOWN;HARD;3;down",
	"[1300] SERVICE ALERT: a;SSH;CRITICAL;HARD;1;refused",
	"[1400] SERVICE NOTIFICATION: alice;a;HTTP;CRITICAL;notify-by-email;boom",
	"[1500] HOST ALERT: gone;DOWN;HARD;1;deleted host",
	"[1250] HOST ALERT: c;DOWN;SOFT;1;late write",
}, "\n") + "\n"

func TestLogTable(t *testing.T) {
	reg, p := newTestRegistry(t)
	p.Options.LogFile = filepath.Join(t.TempDir(), "history.log")
	require.NoError(t, os.WriteFile(p.Options.LogFile, []byte(testHistory), 0o644))

	tests := []struct {
		name    string
		request string
		want    string
	}{
		{"newest first", "GET log\nColumns: lineno time\nLimit: 3", "7;1250\n6;1500\n5;1400\n"},
		{"time bounds", "GET log\nColumns: time type host_name\nFilter: time >= 1200\nFilter: time <= 1300", "1300;SERVICE ALERT;a\n1200;HOST ALERT;b\n"},
		{"exclusive bounds", "GET log\nColumns: lineno\nFilter: time > 1100\nFilter: time < 1300", "3\n"},
		{"class", "GET log\nColumns: lineno\nFilter: class = 3", "5\n"},
		{"parsed fields", "GET log\nColumns: contact_name service_description state state_type command_name plugin_output\nFilter: time = 1400",
			"alice;HTTP;2;CRITICAL;notify-by-email;boom\n"},
		{"current objects", "GET log\nColumns: host_name current_host_alias current_service_state\nFilter: time = 1300", "a;host a;2\n"},
		{"unknown host", "GET log\nColumns: current_host_alias current_service_description\nFilter: host_name = gone", ";\n"},
		{"auth user", "GET log\nColumns: lineno\nAuthUser: alice", "5\n4\n2\n1\n"},
		{"stats", "GET log\nStats: class = 1\nStats: max state", "4;2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustQuery(t, reg, tt.request); got != tt.want {
				t.Errorf("query = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogTableWithoutFile(t *testing.T) {
	reg, p := newTestRegistry(t)
	assert.Empty(t, mustQuery(t, reg, "GET log\nColumns: message"))

	p.Options.LogFile = filepath.Join(t.TempDir(), "missing.log")
	assert.Empty(t, mustQuery(t, reg, "GET log\nColumns: message"), "a log that was never written is empty")
}

func TestLogTriggerWakesWaiters(t *testing.T) {
	reg, p := newTestRegistry(t)
	p.Options.LogFile = filepath.Join(t.TempDir(), "history.log")
	require.NoError(t, p.OpenHistory())
	t.Cleanup(func() { p.History.Close() })
	c := p.FindHost("c")

	go func() {
		time.Sleep(20 * time.Millisecond)
		p.Store.Mu.Lock()
		c.CurrentState = objects.HostUp
		p.Store.Mu.Unlock()
		p.History.HostAlert(c)
	}()

	out := &OutputBuffer{}
	q := reg.ParseGet(strings.Split("GET hosts\nColumns: name state\nFilter: name = c\n"+
		"WaitObject: c\nWaitCondition: state = 0\nWaitTrigger: log\nWaitTimeout: 5000", "\n"), out)
	start := time.Now()
	body := string(q.Process())

	require.False(t, out.HasError(), out.Message())
	assert.False(t, q.WaitTimedOut())
	assert.Equal(t, "c;0\n", body)
	assert.Less(t, time.Since(start), 5*time.Second)

	logged := mustQuery(t, reg, "GET log\nColumns: type host_name state")
	assert.Equal(t, "HOST ALERT;c;0\n", logged)
}
