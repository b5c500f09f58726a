// pkg/logger/writer.go

package logger

import (
	"os"

	cerr "github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// GetLogFileWriter prepares path with restrictive permissions and opens it
// for appending.
func GetLogFileWriter(path string) (zapcore.WriteSyncer, error) {
	if err := EnsureLogPermissions(path); err != nil {
		return nil, cerr.Wrap(err, "log permission error")
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, cerr.Wrapf(err, "open log file %s", path)
	}
	return zapcore.AddSync(file), nil
}
