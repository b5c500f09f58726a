/* pkg/logger/fallback.go */

package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewFallbackLogger logs to stdout only.
func NewFallbackLogger(level zapcore.Level) *zap.Logger {
	out := zapcore.Lock(os.Stdout)
	core := newTerminalConsoleCore(
		zapcore.NewCore(zapcore.NewConsoleEncoder(DefaultConsoleEncoderConfig()), out, level),
		out,
	)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// InitializeWithFallback initialises the run logger and, when the log file
// cannot be created, warns on stderr and continues with console logging.
func InitializeWithFallback(opts Options) string {
	path, err := Initialize(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Warning: could not create log file, logging to console only:", err)
		SetLogger(NewFallbackLogger(opts.ConsoleLevel), "")
		return ""
	}

	L().Debug("Logger initialized",
		zap.String("log_path", path),
		zap.String("file_level", opts.FileLevel.String()),
	)
	return path
}
