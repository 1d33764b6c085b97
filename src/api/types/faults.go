package types

import (
	"errors"
	"fmt"
)

type FaultKind string

const (
	KindNotFound     FaultKind = "NOT_FOUND"
	KindConflict     FaultKind = "CONFLICT"
	KindForbidden    FaultKind = "FORBIDDEN"
	KindInvalidState FaultKind = "INVALID_STATE"
	KindValidation   FaultKind = "VALIDATION"
	KindRateLimited  FaultKind = "RATE_LIMITED"
)

// Fault is the single error type crossing service boundaries. Rate-limit
// faults carry the remaining wait so callers can render a countdown;
// ordering faults name the step that is still missing.
type Fault struct {
	Kind         FaultKind
	Msg          string
	RetryMinutes int
	RetryDays    int
	MissingStep  string
}

func (f *Fault) Error() string { return fmt.Sprintf("%s: %s", f.Kind, f.Msg) }

func NotFound(format string, a ...interface{}) *Fault {
	return &Fault{Kind: KindNotFound, Msg: fmt.Sprintf(format, a...)}
}

func Conflict(format string, a ...interface{}) *Fault {
	return &Fault{Kind: KindConflict, Msg: fmt.Sprintf(format, a...)}
}

func Forbidden(format string, a ...interface{}) *Fault {
	return &Fault{Kind: KindForbidden, Msg: fmt.Sprintf(format, a...)}
}

func InvalidState(format string, a ...interface{}) *Fault {
	return &Fault{Kind: KindInvalidState, Msg: fmt.Sprintf(format, a...)}
}

func Validation(format string, a ...interface{}) *Fault {
	return &Fault{Kind: KindValidation, Msg: fmt.Sprintf(format, a...)}
}

func RateLimited(format string, a ...interface{}) *Fault {
	return &Fault{Kind: KindRateLimited, Msg: fmt.Sprintf(format, a...)}
}

// AsFault unwraps err into a *Fault, or nil when err is not one.
func AsFault(err error) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	return nil
}

// IsKind reports whether err is a Fault of the given kind.
func IsKind(err error, kind FaultKind) bool {
	f := AsFault(err)
	return f != nil && f.Kind == kind
}
