// Package perr defines the typed error kinds shared across the planner,
// runtime, and peer facade.
package perr

import "fmt"

// Kind identifies the category of a plasma error.
type Kind string

const (
	// PlanInvalid means the plan is missing a root, has a broken dep, or
	// references an unknown operator type. The only fatal kind: it is
	// surfaced immediately to the caller rather than dropped in-stream.
	PlanInvalid Kind = "plan_invalid"
	// GraphMissing means a required node id was not found in the store.
	GraphMissing Kind = "graph_missing"
	// TypeMismatch means an expression evaluated against a wrong-typed
	// property.
	TypeMismatch Kind = "type_mismatch"
	// TransportFailure means a remote peer was unreachable or a
	// connection dropped mid-stream.
	TransportFailure Kind = "transport_failure"
	// Timeout means a wall-clock or per-channel timeout elapsed.
	Timeout Kind = "timeout"
	// HtlExhausted means a recursive plan exceeded its hop budget.
	HtlExhausted Kind = "htl_exhausted"
	// RemoteError means a remote peer returned a structured error.
	RemoteError Kind = "remote_error"
	// Unauthorized means a peer-to-peer request carried no token, or a
	// token peerauth could not verify.
	Unauthorized Kind = "unauthorized"
)

// Error is the typed error carried through the query engine.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind around a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if ok := asError(err, &e); !ok {
		return false
	}
	return e.Kind == kind
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
