package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for gateway calls.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrTransport indicates a single call failed (network, HTTP, or success:false).
	// Callers recover by treating the collection as empty and degraded.
	ErrTransport = errors.New("transport failure")

	// ErrAuthExpired indicates the session is no longer authorized.
	// It is never recovered locally; the caller must re-authenticate.
	ErrAuthExpired = errors.New("authorization expired")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// authCodes are envelope codes the service uses for authorization failures.
var authCodes = []string{"UNAUTHORIZED", "AUTH_EXPIRED", "TOKEN_EXPIRED", "FORBIDDEN"}

// CallError describes a failed gateway call.
type CallError struct {
	Op         string
	Collection Collection
	Status     int
	Message    string
	Kind       error
	Cause      error
}

func (e *CallError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %v", e.Op, e.Collection, e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": " + e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes both the sentinel kind and the underlying cause.
func (e *CallError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// IsAuthExpired reports whether err is an authorization failure.
func IsAuthExpired(err error) bool {
	return errors.Is(err, ErrAuthExpired)
}

// kindForStatus classifies a non-2xx HTTP status.
func kindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthExpired
	case http.StatusNotFound:
		return ErrNotFound
	}
	return ErrTransport
}

// kindForEnvelope classifies a success:false envelope.
func kindForEnvelope(env envelope) error {
	code := strings.ToUpper(strings.TrimSpace(env.Code))
	for _, c := range authCodes {
		if code == c {
			return ErrAuthExpired
		}
	}
	if code == "NOT_FOUND" {
		return ErrNotFound
	}
	return ErrTransport
}
