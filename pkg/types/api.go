package types

import (
	"errors"
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindNetwork   ErrKind = iota // transport failure, timeout, non-2xx status
	ErrKindNotFound                 // resource, node or path step does not exist
	ErrKindMalformed                // response missing required identity fields or undecodable
	ErrKindState                    // operation invalid for current state (no collection bound, ...)
)

// String returns a short lowercase label, used as a metrics label and in logs.
func (k ErrKind) String() string {
	switch k {
	case ErrKindNetwork:
		return "network"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindMalformed:
		return "malformed"
	case ErrKindState:
		return "state"
	default:
		return fmt.Sprintf("kind_%d", int(k))
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, ErrNotFound) matches any not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels commonly returned by implementations.
var (
	// ErrNetwork indicates the catalog could not be reached or answered with a failure status.
	ErrNetwork = &Error{Kind: ErrKindNetwork, Msg: "catalog unreachable"}
	// ErrNotFound indicates a missing resource, node or path step.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "not found"}
	// ErrMalformed indicates a response that could not be interpreted.
	ErrMalformed = &Error{Kind: ErrKindMalformed, Msg: "malformed catalog response"}
	// ErrNoCollection indicates an operation that needs a bound collection was called without one.
	ErrNoCollection = &Error{Kind: ErrKindState, Msg: "no collection loaded"}
)

// NewError builds a typed error of the given kind.
func NewError(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
// The second result is false when err carries no typed error.
func KindOf(err error) (ErrKind, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return 0, false
}

// -----------------------------------------------------------------------------
// Status classification
// -----------------------------------------------------------------------------

// StatusClass is the presentation class derived from a record's raw status type.
type StatusClass string

const (
	StatusNone    StatusClass = ""
	StatusSuccess StatusClass = "success"
	StatusWarning StatusClass = "warning"
	StatusError   StatusClass = "error"
)

// ParseStatusClass maps user input (CLI flags, config) onto a StatusClass.
// Accepts the class names and the human labels ("available", "needs-attention", "restricted").
func ParseStatusClass(s string) (StatusClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success", "available":
		return StatusSuccess, nil
	case "warning", "needs-attention", "needs_attention", "attention":
		return StatusWarning, nil
	case "error", "restricted":
		return StatusError, nil
	default:
		return StatusNone, fmt.Errorf("unknown status %q (want success|warning|error)", s)
	}
}

// -----------------------------------------------------------------------------
// Levels
// -----------------------------------------------------------------------------

// Well-known archival description levels. Catalogs may return others; those
// are preserved verbatim.
const (
	LevelCollection = "collection"
	LevelSeries     = "series"
	LevelSubseries  = "subseries"
	LevelFile       = "file"
	LevelItem       = "item"
	LevelOther      = "otherlevel"
)
