// Package logging configures the process-wide structured logger. It is
// a no-op until Init runs, so library code can log unconditionally.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar = zap.NewNop().Sugar()

// Init builds the global logger. Level is a zap level name ("debug",
// "info", ...), format is "json" or "console", and path is an optional
// log file written in addition to stderr.
func Init(level, format, path string) error {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("parsing log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	if path != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, path)
	}

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	sugar = logger.Sugar()
	return nil
}

// Debugw logs a debug message with key/value pairs.
func Debugw(msg string, keysAndValues ...any) {
	sugar.Debugw(msg, keysAndValues...)
}

// Infow logs an info message with key/value pairs.
func Infow(msg string, keysAndValues ...any) {
	sugar.Infow(msg, keysAndValues...)
}

// Warnw logs a warning with key/value pairs.
func Warnw(msg string, keysAndValues ...any) {
	sugar.Warnw(msg, keysAndValues...)
}

// Errorw logs an error with key/value pairs.
func Errorw(msg string, keysAndValues ...any) {
	sugar.Errorw(msg, keysAndValues...)
}

// Fatalw logs an error with key/value pairs and exits.
func Fatalw(msg string, keysAndValues ...any) {
	sugar.Fatalw(msg, keysAndValues...)
}

// Sync flushes buffered log entries. Call before exiting.
func Sync() {
	_ = sugar.Sync()
}
