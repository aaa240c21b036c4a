// Package logger provides verbose logging for the cpanel CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to follow dispatches, reloads and host round trips.
package logger

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	sugar             = build(os.Stderr)
)

func bracketLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

func build(w io.Writer) *zap.SugaredLogger {
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeLevel:      bracketLevel,
		ConsoleSeparator: " ",
		LineEnding:       zapcore.DefaultLineEnding,
	})
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zapcore.DebugLevel)
	return zap.New(core).Sugar()
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	sugar = build(w)
}

// Output returns the current writer.
func Output() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return output
}

func enabled() (*zap.SugaredLogger, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return sugar, verbose
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	if l, ok := enabled(); ok {
		l.Debugf(format, args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	if l, ok := enabled(); ok {
		l.Infof("=== %s ===", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	if l, ok := enabled(); ok {
		l.Infof(format, args...)
	}
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	if l, ok := enabled(); ok {
		l.Warnf(format, args...)
	}
}

// Error prints an error message if verbose mode is enabled.
func Error(format string, args ...any) {
	if l, ok := enabled(); ok {
		l.Errorf(format, args...)
	}
}

// Sync flushes buffered log entries.
func Sync() {
	l, _ := enabled()
	_ = l.Sync()
}
