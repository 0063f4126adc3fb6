package application

import (
	"errors"
	"fmt"
)

// Kind classifies an application error. Driving adapters map kinds to
// transport status codes.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindInvalidRequest
	KindPaymentRequired
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInvalidRequest:
		return "invalid_request"
	case KindPaymentRequired:
		return "payment_required"
	case KindUpstream:
		return "upstream_error"
	default:
		return "internal"
	}
}

// Error is the error value returned by every gateway use case. Message is
// safe to show to callers; Err, if set, is the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	// ServerTime is the gateway clock in Unix milliseconds. Set only on clock
	// skew rejections so callers can resynchronize.
	ServerTime int64
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind and message, so the sentinels
// below work with errors.Is regardless of cause or server time.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// Authentication rejections.
var (
	ErrInvalidKey       = &Error{Kind: KindUnauthenticated, Message: "Invalid API key"}
	ErrMissingTimestamp = &Error{Kind: KindUnauthenticated, Message: "Missing timestamp"}
	ErrInvalidTimestamp = &Error{Kind: KindUnauthenticated, Message: "Invalid timestamp"}
	ErrClockSkew        = &Error{Kind: KindUnauthenticated, Message: "Time difference is too large"}
	ErrBadSignature     = &Error{Kind: KindUnauthenticated, Message: "Invalid signature"}
	ErrExpiredKey       = &Error{Kind: KindUnauthenticated, Message: "API key has expired"}
	ErrUnknownAccount   = &Error{Kind: KindUnauthenticated, Message: "Invalid account ID"}
	ErrInactiveAccount  = &Error{Kind: KindUnauthenticated, Message: "This account is inactive"}
	ErrUnauthorized     = &Error{Kind: KindUnauthenticated, Message: "Unauthorized"}
)

// Metering rejections.
var (
	ErrInsufficientCredits = &Error{Kind: KindPaymentRequired, Message: "Insufficient credits"}
	ErrMissingAccountID    = &Error{Kind: KindInvalidRequest, Message: "Missing account ID"}
)

// InvalidRequest builds an input-shape rejection with the given message.
func InvalidRequest(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// upstreamError wraps a downstream failure. The downstream message is passed
// through to the caller.
func upstreamError(err error) *Error {
	return &Error{Kind: KindUpstream, Message: err.Error(), Err: err}
}

func internalError(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal for errors that did not
// originate in this package.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
