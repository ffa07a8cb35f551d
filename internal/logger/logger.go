// Package logger is lectern's process-wide log sink. Messages go through a
// zap console core to stderr. Warnings always print; debug and info lines
// appear only after SetVerbose(true), which the --verbose flag sets.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level = zap.NewAtomicLevelAt(zapcore.WarnLevel)

	mu     sync.RWMutex
	output io.Writer = os.Stderr
	sugar            = build(os.Stderr)
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
	return zap.New(zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), level)).Sugar()
}

// SetVerbose lowers the threshold to debug, or restores it to warn.
func SetVerbose(v bool) {
	if v {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.WarnLevel)
	}
}

// IsVerbose reports whether debug output is enabled.
func IsVerbose() bool {
	return level.Enabled(zapcore.DebugLevel)
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	sugar = build(w)
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Sync flushes buffered entries.
func Sync() {
	_ = current().Sync()
}

func Debug(format string, args ...any) { current().Debugf(format, args...) }

func Debugw(msg string, keysAndValues ...any) { current().Debugw(msg, keysAndValues...) }

func Info(format string, args ...any) { current().Infof(format, args...) }

func Warn(format string, args ...any) { current().Warnf(format, args...) }

func Warnw(msg string, keysAndValues ...any) { current().Warnw(msg, keysAndValues...) }

// Section prints a banner between pipeline stages in verbose mode.
func Section(name string) {
	if !IsVerbose() {
		return
	}
	mu.RLock()
	defer mu.RUnlock()
	fmt.Fprintf(output, "\n=== %s ===\n", name)
}
