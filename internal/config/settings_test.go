package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/var/run/livestatusd/live", s.Socket)
	assert.Equal(t, int64(100*1024*1024), s.MaxResponseSize)
	assert.Equal(t, 10*time.Second, s.QueryTimeout)
	assert.Equal(t, 300*time.Second, s.IdleTimeout)
	assert.Equal(t, AuthLoose, s.ServiceAuthorization)
	assert.Equal(t, AuthStrict, s.GroupAuthorization)
	assert.Equal(t, "info", s.Log.Level)
	assert.Empty(t, s.CommandPipe)
	assert.Empty(t, s.LogFile)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "livestatusd.yaml")
	doc := `
socket: /tmp/live
tcp: 127.0.0.1:6557
max_response_size: 2048
query_timeout: 3s
service_authorization: strict
mk_logwatch_path: /srv/logwatch
command_pipe: /tmp/livestatusd.cmd
log_file: /var/log/livestatusd/history.log
log:
  level: debug
  encoding: json
  verbosity: 2
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/live", s.Socket)
	assert.Equal(t, "127.0.0.1:6557", s.TCP)
	assert.Equal(t, int64(2048), s.MaxResponseSize)
	assert.Equal(t, 3*time.Second, s.QueryTimeout)
	assert.Equal(t, AuthStrict, s.ServiceAuthorization)
	assert.Equal(t, "/srv/logwatch", s.MkLogwatchPath)
	assert.Equal(t, "/tmp/livestatusd.cmd", s.CommandPipe)
	assert.Equal(t, "/var/log/livestatusd/history.log", s.LogFile)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, "json", s.Log.Encoding)
	assert.Equal(t, 2, s.Log.Verbosity)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LIVESTATUSD_TCP", ":9999")
	t.Setenv("LIVESTATUSD_LOG_LEVEL", "warn")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9999", s.TCP)
	assert.Equal(t, "warn", s.Log.Level)
}

func TestValidate(t *testing.T) {
	base := func() Settings {
		return Settings{
			Socket:               "/tmp/live",
			MaxResponseSize:      1,
			ServiceAuthorization: AuthLoose,
			GroupAuthorization:   AuthStrict,
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"ok", func(*Settings) {}, false},
		{"bad service auth", func(s *Settings) { s.ServiceAuthorization = "lenient" }, true},
		{"bad group auth", func(s *Settings) { s.GroupAuthorization = "" }, true},
		{"zero size", func(s *Settings) { s.MaxResponseSize = 0 }, true},
		{"negative timeout", func(s *Settings) { s.QueryTimeout = -time.Second }, true},
		{"no listener", func(s *Settings) { s.Socket = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("socket: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
