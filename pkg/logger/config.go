/* pkg/logger/config.go */

package logger

import (
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// timestampLayout is the per-run log file suffix, e.g. 2024-05-01_13-04-59.
const timestampLayout = "2006-01-02_15-04-05"

// Options controls where and how verbosely a run logs.
type Options struct {
	Dir          string
	Prefix       string
	FileLevel    zapcore.Level
	ConsoleLevel zapcore.Level

	// Now stamps the file name; time.Now when nil.
	Now func() time.Time
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Dir:          "logs",
		Prefix:       "CA_REMOVE",
		FileLevel:    zapcore.DebugLevel,
		ConsoleLevel: zapcore.InfoLevel,
	}
}

// ParseLogLevel maps LOG_LEVEL style names onto zap levels. Unknown or empty
// names give def.
func ParseLogLevel(level string, def zapcore.Level) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE", "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return def
	}
}

// DefaultConsoleEncoderConfig is the human-facing console format.
func DefaultConsoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		MessageKey:     "M",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	return cfg
}

// DefaultFileEncoderConfig is the JSON-lines format written to the run file.
func DefaultFileEncoderConfig() zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	return cfg
}
