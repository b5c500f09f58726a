/* pkg/logger/paths.go */

package logger

import (
	"os"
	"path/filepath"
	"time"

	cerr "github.com/cockroachdb/errors"
)

// RunLogPath returns <dir>/<prefix>_<YYYY-MM-DD_HH-MM-SS>.log for t.
func RunLogPath(dir, prefix string, t time.Time) string {
	return filepath.Join(dir, prefix+"_"+t.Format(timestampLayout)+".log")
}

// EnsureLogPermissions creates the log directory (0700) and file (0600),
// tightening modes on anything that already exists.
func EnsureLogPermissions(logFilePath string) error {
	dir := filepath.Dir(logFilePath)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return cerr.Wrapf(err, "create log directory %s", dir)
		}
	} else if err := os.Chmod(dir, 0o700); err != nil {
		return cerr.Wrapf(err, "restrict log directory %s", dir)
	}

	if _, err := os.Stat(logFilePath); os.IsNotExist(err) {
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return cerr.Wrapf(err, "create log file %s", logFilePath)
		}
		_ = file.Close()
	}

	if err := os.Chmod(logFilePath, 0o600); err != nil {
		return cerr.Wrapf(err, "restrict log file %s", logFilePath)
	}
	return nil
}
