// Package fault defines the error taxonomy shared by the scouting core.
// Every failed transition carries a stable Kind and a stable Reason so
// callers can decide remediation without parsing free-form messages.
package fault

import (
	"errors"
	"fmt"
)

type Kind string

const (
	Authorization Kind = "AUTHORIZATION"
	Ownership     Kind = "OWNERSHIP"
	State         Kind = "STATE"
	Funds         Kind = "FUNDS"
	InvalidInput  Kind = "INVALID_INPUT"
	Reentrancy    Kind = "REENTRANCY"
	NotFound      Kind = "NOT_FOUND"
)

type Fault struct {
	Kind   Kind
	Reason string
	Err    error
}

func (f *Fault) Error() string {
	if f == nil {
		return ""
	}
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Kind, f.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", f.Kind, f.Reason, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// Is makes two faults equal under errors.Is when kind and reason match,
// so sentinel-style comparisons work across package boundaries.
func (f *Fault) Is(target error) bool {
	var t *Fault
	if !errors.As(target, &t) {
		return false
	}
	return f.Kind == t.Kind && (t.Reason == "" || f.Reason == t.Reason)
}

func New(kind Kind, reason string) *Fault {
	return &Fault{Kind: kind, Reason: reason}
}

func Wrap(kind Kind, reason string, err error) *Fault {
	return &Fault{Kind: kind, Reason: reason, Err: err}
}

func Authorizationf(reason string) *Fault { return New(Authorization, reason) }
func Ownershipf(reason string) *Fault     { return New(Ownership, reason) }
func Statef(reason string) *Fault         { return New(State, reason) }
func Fundsf(reason string) *Fault         { return New(Funds, reason) }
func InvalidInputf(reason string) *Fault  { return New(InvalidInput, reason) }
func Reentrancyf(reason string) *Fault    { return New(Reentrancy, reason) }
func NotFoundf(reason string) *Fault      { return New(NotFound, reason) }

// KindOf reports the taxonomy kind of err, if err (or anything it wraps)
// is a Fault.
func KindOf(err error) (Kind, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// ReasonOf returns the stable reason string, or "" when err is not a Fault.
func ReasonOf(err error) string {
	var f *Fault
	if errors.As(err, &f) {
		return f.Reason
	}
	return ""
}
