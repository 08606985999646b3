package csrf

import (
	"errors"
	"fmt"
	"net/http"
)

// Reason classifies why a request was denied.
type Reason string

const (
	// ReasonNone is the reason carried by an allow decision.
	ReasonNone Reason = ""
	// ReasonCrossSite: Sec-Fetch-Site was present but not an allowed value,
	// and the Origin was not trusted.
	ReasonCrossSite Reason = "cross_site"
	// ReasonOriginMismatch: no Sec-Fetch-Site, and the Origin host did not
	// match the request Host (or could not be parsed).
	ReasonOriginMismatch Reason = "origin_mismatch"
	// ReasonUnknown should never be observed; it means the evaluator fell
	// through every rule.
	ReasonUnknown Reason = "unknown"
)

// ErrForbidden matches every *Error via errors.Is.
var ErrForbidden = errors.New("csrf: forbidden")

// Decision is the verdict for a single request.
type Decision struct {
	Allowed bool
	Reason  Reason
	// Detail is a human readable explanation, empty for allows.
	Detail string
}

// Allow returns an allow decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a deny decision with the given reason.
func Deny(reason Reason, detail string) Decision {
	return Decision{Reason: reason, Detail: detail}
}

// Err converts a deny into an *Error. Allow decisions return nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &Error{Reason: d.Reason, Detail: d.Detail}
}

func (d Decision) String() string {
	if d.Allowed {
		return "allow"
	}
	return fmt.Sprintf("deny(%s)", d.Reason)
}

// Error is returned (or handed to the error handler) when a request is denied.
type Error struct {
	Reason Reason
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("CSRF validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("CSRF validation failed: %s", e.Detail)
}

// Is reports whether target is ErrForbidden.
func (e *Error) Is(target error) bool {
	return target == ErrForbidden
}

// StatusCode is always 403: the request was understood but refused.
func (e *Error) StatusCode() int {
	return http.StatusForbidden
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("csrf: invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
