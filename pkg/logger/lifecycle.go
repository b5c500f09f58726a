/* pkg/logger/lifecycle.go */

package logger

import "github.com/google/uuid"

// GenerateTraceID returns a short 8-char ID used to correlate one run.
func GenerateTraceID() string {
	return uuid.New().String()[:8]
}
