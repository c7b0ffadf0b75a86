// Package logger builds the zap logger shared by the CLI and the TUI.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Stderr selects console logging to standard error instead of a file.
const Stderr = "-"

var global = zap.NewNop()

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(name string) zapcore.Level {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// New builds a logger. An empty file disables logging, since the TUI owns
// the terminal; Stderr logs to the console; anything else is a JSON log file.
func New(level, file string) (*zap.Logger, error) {
	lvl := ParseLevel(level)
	switch file {
	case "":
		return zap.NewNop(), nil
	case Stderr:
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.Lock(os.Stderr), lvl)
		return zap.New(core, zap.AddCaller()), nil
	}
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         "json",
		EncoderConfig:    encoderConfig(),
		OutputPaths:      []string{file},
		ErrorOutputPaths: []string{file},
	}
	return cfg.Build()
}

// Init builds the global logger.
func Init(level, file string) error {
	l, err := New(level, file)
	if err != nil {
		return err
	}
	global = l
	return nil
}

// L returns the global logger. It is a no-op logger until Init succeeds.
func L() *zap.Logger { return global }

// Sync flushes any buffered log entries.
func Sync() error {
	return global.Sync()
}
