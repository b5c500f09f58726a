// pkg/logger/logger.go

// Package logger sets up the process-wide zap logger: a console core for the
// operator and a JSON-lines file per run for the audit trail.
package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	log     *zap.Logger
	logPath string
)

// OptionsFromEnv reads LOG_DIR, LOG_PREFIX and LOG_LEVEL over the defaults.
// LOG_LEVEL sets the file level; the console stays at INFO.
func OptionsFromEnv() Options {
	opts := DefaultOptions()
	if v := os.Getenv("LOG_DIR"); v != "" {
		opts.Dir = v
	}
	if v := os.Getenv("LOG_PREFIX"); v != "" {
		opts.Prefix = v
	}
	opts.FileLevel = ParseLogLevel(os.Getenv("LOG_LEVEL"), opts.FileLevel)
	return opts
}

// New builds a logger that tees console output to console and JSON entries
// to a fresh run file. It returns the file path.
func New(opts Options, console io.Writer) (*zap.Logger, string, error) {
	def := DefaultOptions()
	if opts.Dir == "" {
		opts.Dir = def.Dir
	}
	if opts.Prefix == "" {
		opts.Prefix = def.Prefix
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	path := RunLogPath(opts.Dir, opts.Prefix, now())
	writer, err := GetLogFileWriter(path)
	if err != nil {
		return nil, "", err
	}

	out := zapcore.Lock(zapcore.AddSync(console))
	consoleCore := newTerminalConsoleCore(
		zapcore.NewCore(zapcore.NewConsoleEncoder(DefaultConsoleEncoderConfig()), out, opts.ConsoleLevel),
		out,
	)
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(DefaultFileEncoderConfig()), writer, opts.FileLevel).
		With([]zapcore.Field{zap.String("run_id", GenerateTraceID())})

	l := zap.New(zapcore.NewTee(consoleCore, fileCore), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return l, path, nil
}

// Initialize builds the run logger on stdout and installs it as the zap and
// otelzap globals.
func Initialize(opts Options) (string, error) {
	l, path, err := New(opts, os.Stdout)
	if err != nil {
		return "", err
	}
	SetLogger(l, path)
	return path, nil
}

// SetLogger installs l as the global logger.
func SetLogger(l *zap.Logger, path string) {
	mu.Lock()
	log = l
	logPath = path
	mu.Unlock()

	zap.ReplaceGlobals(l)
	otelzap.ReplaceGlobals(otelzap.New(l))
}

// L returns the global logger, falling back to console-only logging when
// nothing was initialised.
func L() *zap.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l != nil {
		return l
	}

	fallback := NewFallbackLogger(zapcore.InfoLevel)
	SetLogger(fallback, "")
	return fallback
}

// Path returns the current run log file, or "" when logging to console only.
func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return logPath
}

// Sync flushes buffered entries. Call before exit.
func Sync() {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l != nil {
		_ = l.Sync()
	}
}
