// Package logging builds the daemon's structured logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity bitmask flags for selective verbose logging.
const (
	VerboseCommands   = 1 << 0 // Log every external command
	VerboseLivestatus = 1 << 1 // Log every livestatus query
)

// Config controls logger construction.
type Config struct {
	Level       string
	Encoding    string // json or console
	OutputPaths []string
	Verbosity   int
}

// Logger wraps a zap logger with the verbosity bitmask.
type Logger struct {
	*zap.Logger
	Verbosity int
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		var err error
		if level, err = zapcore.ParseLevel(cfg.Level); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}
	encoding := strings.ToLower(cfg.Encoding)
	if encoding == "" {
		encoding = "console"
	}
	if encoding != "json" && encoding != "console" {
		return nil, fmt.Errorf("invalid log encoding %q", cfg.Encoding)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stderr"}
	}

	zl, err := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &Logger{Logger: zl, Verbosity: cfg.Verbosity}, nil
}

// Wrap adapts an existing zap logger. A nil logger yields a no-op Logger.
func Wrap(zl *zap.Logger, verbosity int) *Logger {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &Logger{Logger: zl, Verbosity: verbosity}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return Wrap(nil, 0)
}

// Enabled reports whether the verbose flag is set.
func (l *Logger) Enabled(flag int) bool {
	return l != nil && l.Verbosity&flag != 0
}

// LogVerbose logs msg at info level only if the given verbosity flag is set.
func (l *Logger) LogVerbose(flag int, msg string, fields ...zap.Field) {
	if !l.Enabled(flag) {
		return
	}
	l.Info(msg, fields...)
}

// LogExternalCommand records an external command the way the core's log
// shows it: "EXTERNAL COMMAND: NAME;arg1;arg2".
func (l *Logger) LogExternalCommand(name string, args []string) {
	line := name
	if len(args) > 0 {
		line += ";" + strings.Join(args, ";")
	}
	l.Info("EXTERNAL COMMAND: "+line, zap.String("command", name))
}
