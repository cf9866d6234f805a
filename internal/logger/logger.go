// Package logger is the process-wide CLI logger. Warnings always print;
// debug and info lines need --verbose. Output goes to stderr unless
// redirected with SetOutput.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// sink pairs a writer with the logger that formats onto it, so section
// headers and log lines share one lock.
type sink struct {
	out zapcore.WriteSyncer
	log *zap.SugaredLogger
}

var (
	level   = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	current atomic.Pointer[sink]
)

func init() {
	SetOutput(os.Stderr)
}

// encoderConfig renders "[LEVEL] message" with no timestamp or caller.
var encoderConfig = zapcore.EncoderConfig{
	LevelKey:         "level",
	MessageKey:       "msg",
	ConsoleSeparator: " ",
	LineEnding:       zapcore.DefaultLineEnding,
	EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + l.CapitalString() + "]")
	},
}

// SetOutput redirects all further output to w.
func SetOutput(w io.Writer) {
	out := zapcore.Lock(zapcore.AddSync(w))
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), out, level)
	current.Store(&sink{out: out, log: zap.New(core).Sugar()})
}

// SetVerbose switches between debug and warning level.
func SetVerbose(v bool) {
	if v {
		level.SetLevel(zapcore.DebugLevel)
		return
	}
	level.SetLevel(zapcore.WarnLevel)
}

func IsVerbose() bool {
	return level.Enabled(zapcore.DebugLevel)
}

func Debug(format string, args ...any) {
	current.Load().log.Debugf(format, args...)
}

func Info(format string, args ...any) {
	current.Load().log.Infof(format, args...)
}

func Warn(format string, args ...any) {
	current.Load().log.Warnf(format, args...)
}

// Section prints a "=== name ===" header in verbose mode.
func Section(name string) {
	if IsVerbose() {
		fmt.Fprintf(current.Load().out, "\n=== %s ===\n", name)
	}
}

// Sync flushes buffered entries.
func Sync() {
	_ = current.Load().log.Sync()
}
