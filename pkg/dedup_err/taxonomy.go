// pkg/dedup_err/taxonomy.go
//
// Error taxonomy for vendor API interactions. Errors are marked with
// cockroachdb/errors markers so callers can test the category with
// errors.Is regardless of how many times the error was wrapped.

package dedup_err

import (
	cerr "github.com/cockroachdb/errors"
)

var (
	// ErrAuthentication marks invalid or rejected credentials. Fatal to a run.
	ErrAuthentication = cerr.New("authentication failed")
	// ErrTransientNetwork marks timeouts, connection failures and 429/5xx
	// responses that survived the retry budget.
	ErrTransientNetwork = cerr.New("transient network error")
	// ErrMalformedResponse marks a vendor payload that could not be parsed or
	// that is missing required fields.
	ErrMalformedResponse = cerr.New("malformed response")
	// ErrNotFound marks a delete against an agent that no longer exists.
	ErrNotFound = cerr.New("agent not found")
)

// NewAuthenticationError wraps cause as an authentication failure.
func NewAuthenticationError(cause error, format string, args ...interface{}) error {
	err := cerr.Mark(wrapOrNew(cause, format, args...), ErrAuthentication)
	return cerr.WithHint(err, "check API_LOGIN and API_PASSWORD and that the account has API access")
}

// NewTransientNetworkError wraps cause as a retryable network failure.
func NewTransientNetworkError(cause error, format string, args ...interface{}) error {
	err := cerr.Mark(wrapOrNew(cause, format, args...), ErrTransientNetwork)
	return cerr.WithHint(err, "the platform may be overloaded or unreachable; retry later or raise API_REQUEST_DELAY")
}

// NewMalformedResponseError wraps cause as an unparseable vendor payload.
func NewMalformedResponseError(cause error, format string, args ...interface{}) error {
	err := cerr.Mark(wrapOrNew(cause, format, args...), ErrMalformedResponse)
	return cerr.WithHint(err, "the vendor response format may have changed; inspect the raw payload in the run log")
}

// NewNotFoundError reports that the agent is already gone.
func NewNotFoundError(agentID string) error {
	return cerr.Mark(cerr.Newf("agent %s does not exist", agentID), ErrNotFound)
}

func IsAuthentication(err error) bool { return err != nil && cerr.Is(err, ErrAuthentication) }

func IsTransient(err error) bool { return err != nil && cerr.Is(err, ErrTransientNetwork) }

func IsMalformed(err error) bool { return err != nil && cerr.Is(err, ErrMalformedResponse) }

func IsNotFound(err error) bool { return err != nil && cerr.Is(err, ErrNotFound) }

// Hints returns the operator hints attached anywhere in the chain.
func Hints(err error) []string {
	if err == nil {
		return nil
	}
	return cerr.GetAllHints(err)
}

func wrapOrNew(cause error, format string, args ...interface{}) error {
	if cause == nil {
		return cerr.Newf(format, args...)
	}
	return cerr.Wrapf(cause, format, args...)
}
