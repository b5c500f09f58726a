// pkg/dedup_err/classification.go
//
// Error classification system with proper exit codes

package dedup_err

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory classifies errors for appropriate handling
type ErrorCategory int

const (
	// CategorySystem - OS/filesystem issues (exit 1)
	CategorySystem ErrorCategory = iota
	// CategoryValidation - configuration or input validation failures (exit 2)
	CategoryValidation
	// CategoryNetwork - vendor API connectivity (exit 1)
	CategoryNetwork
	// CategoryAuth - rejected credentials (exit 1)
	CategoryAuth
	// CategoryRemoval - one or more removals failed (exit 1)
	CategoryRemoval
	// CategoryInternal - bugs, recovered panics (exit 3)
	CategoryInternal
)

// ClassifiedError wraps an error with category and remediation info
type ClassifiedError struct {
	Category    ErrorCategory
	Message     string
	Cause       error
	Remediation []string
}

// Error implements the error interface
func (e *ClassifiedError) Error() string {
	var sb strings.Builder

	sb.WriteString(e.Message)

	if e.Cause != nil && e.Cause.Error() != e.Message {
		sb.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Remediation) > 0 {
		sb.WriteString("\n\nHow to fix:")
		for i, step := range e.Remediation {
			sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, step))
		}
	}

	return sb.String()
}

// Unwrap returns the underlying error
func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error category
func (e *ClassifiedError) ExitCode() int {
	switch e.Category {
	case CategoryValidation:
		return 2
	case CategoryInternal:
		return 3
	default:
		return 1
	}
}

// GetExitCode extracts exit code from any error.
// Returns 0 for nil, the category code for classified errors, 1 for others.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.ExitCode()
	}

	return 1
}

// NewValidationError creates an error for configuration validation failures
func NewValidationError(message string, cause error, remediation ...string) error {
	return &ClassifiedError{
		Category:    CategoryValidation,
		Message:     message,
		Cause:       cause,
		Remediation: remediation,
	}
}

// NewRemovalError reports that a run completed with failed removals.
func NewRemovalError(failed int, cause error) error {
	return &ClassifiedError{
		Category: CategoryRemoval,
		Message:  fmt.Sprintf("%d agent removal(s) failed", failed),
		Cause:    cause,
		Remediation: []string{
			"Inspect the run log for the failing agent IDs",
			"Re-run the tool; removed agents will not be processed twice",
		},
	}
}

// NewInternalError creates an error for bugs in the tool itself
func NewInternalError(message string, cause error) error {
	return &ClassifiedError{
		Category: CategoryInternal,
		Message:  message,
		Cause:    cause,
	}
}

// ErrorType returns a short, log-safe label for an error. Used as a telemetry
// attribute so raw messages (which may carry URLs) never leave the host.
func ErrorType(err error) string {
	if err == nil {
		return ""
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		switch classified.Category {
		case CategoryValidation:
			return "validation"
		case CategoryInternal:
			return "internal"
		case CategoryRemoval:
			return "removal"
		}
	}

	switch {
	case IsAuthentication(err):
		return "authentication"
	case IsTransient(err):
		return "transient_network"
	case IsMalformed(err):
		return "malformed_response"
	case IsNotFound(err):
		return "not_found"
	default:
		return "system"
	}
}
