package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"json debug", Config{Level: "debug", Encoding: "json"}, false},
		{"bad level", Config{Level: "loud"}, true},
		{"bad encoding", Config{Encoding: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%+v) error = %v, wantErr %v", tt.cfg, err, tt.wantErr)
			}
			if l != nil {
				l.Sync()
			}
		})
	}
}

func TestNewWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	l, err := New(Config{Level: "info", Encoding: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("hello", zap.Int("answer", 42))
	l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	for _, want := range []string{`"message":"hello"`, `"answer":42`, `"level":"info"`} {
		if !strings.Contains(content, want) {
			t.Errorf("log output %q missing %s", content, want)
		}
	}
}

func TestLogVerbose(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := Wrap(zap.New(core), VerboseLivestatus)

	l.LogVerbose(VerboseLivestatus, "query", zap.String("table", "hosts"))
	l.LogVerbose(VerboseCommands, "command")

	if logs.Len() != 1 {
		t.Fatalf("logged %d entries, want 1", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Message != "query" {
		t.Errorf("Message = %q, want %q", entry.Message, "query")
	}
	if entry.ContextMap()["table"] != "hosts" {
		t.Errorf("table field = %v, want hosts", entry.ContextMap()["table"])
	}
}

func TestLogExternalCommand(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := Wrap(zap.New(core), 0)

	l.LogExternalCommand("ACKNOWLEDGE_HOST_PROBLEM", []string{"web", "1", "0", "1", "alice", "on it"})
	l.LogExternalCommand("SHUTDOWN_PROGRAM", nil)

	got := logs.All()
	if len(got) != 2 {
		t.Fatalf("logged %d entries, want 2", len(got))
	}
	if want := "EXTERNAL COMMAND: ACKNOWLEDGE_HOST_PROBLEM;web;1;0;1;alice;on it"; got[0].Message != want {
		t.Errorf("Message = %q, want %q", got[0].Message, want)
	}
	if want := "EXTERNAL COMMAND: SHUTDOWN_PROGRAM"; got[1].Message != want {
		t.Errorf("Message = %q, want %q", got[1].Message, want)
	}
}

func TestNilLoggerVerboseDisabled(t *testing.T) {
	var l *Logger
	if l.Enabled(VerboseLivestatus) {
		t.Error("nil logger reports verbose enabled")
	}
	Nop().LogVerbose(VerboseLivestatus, "discarded")
}
