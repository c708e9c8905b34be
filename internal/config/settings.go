// Package config loads the daemon settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LIVESTATUSD_TCP.
const EnvPrefix = "LIVESTATUSD"

// Authorization modes for service_authorization and group_authorization.
const (
	AuthLoose  = "loose"
	AuthStrict = "strict"
)

// Settings holds everything the daemon reads at startup.
type Settings struct {
	Socket      string `mapstructure:"socket"`
	TCP         string `mapstructure:"tcp"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	Snapshot    string `mapstructure:"snapshot"`
	CommandPipe string `mapstructure:"command_pipe"` // external command FIFO, empty disables

	MaxResponseSize int64         `mapstructure:"max_response_size"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`

	ServiceAuthorization string `mapstructure:"service_authorization"`
	GroupAuthorization   string `mapstructure:"group_authorization"`

	MkLogwatchPath string `mapstructure:"mk_logwatch_path"`
	LogFile        string `mapstructure:"log_file"` // history log behind the log table, empty disables

	Log LogSettings `mapstructure:"log"`
}

type LogSettings struct {
	Level     string `mapstructure:"level"`
	Encoding  string `mapstructure:"encoding"`
	Verbosity int    `mapstructure:"verbosity"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("socket", "/var/run/livestatusd/live")
	v.SetDefault("tcp", "")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("snapshot", "")
	v.SetDefault("command_pipe", "")
	v.SetDefault("max_response_size", int64(100*1024*1024))
	v.SetDefault("query_timeout", 10*time.Second)
	v.SetDefault("idle_timeout", 300*time.Second)
	v.SetDefault("service_authorization", AuthLoose)
	v.SetDefault("group_authorization", AuthStrict)
	v.SetDefault("mk_logwatch_path", "/var/lib/check_mk/logwatch")
	v.SetDefault("log_file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.verbosity", 0)
}

// Load reads settings from path (optional, YAML), then applies environment
// overrides and defaults.
func Load(path string) (*Settings, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Settings, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks value ranges and enumerations.
func (s *Settings) Validate() error {
	for key, mode := range map[string]string{
		"service_authorization": s.ServiceAuthorization,
		"group_authorization":   s.GroupAuthorization,
	} {
		if mode != AuthLoose && mode != AuthStrict {
			return fmt.Errorf("%s must be %q or %q, got %q", key, AuthLoose, AuthStrict, mode)
		}
	}
	if s.MaxResponseSize <= 0 {
		return fmt.Errorf("max_response_size must be positive, got %d", s.MaxResponseSize)
	}
	if s.QueryTimeout < 0 || s.IdleTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if s.Socket == "" && s.TCP == "" {
		return fmt.Errorf("at least one of socket or tcp must be set")
	}
	return nil
}
