package provision

import (
	"errors"
	"fmt"
)

// Kind classifies why a provisioning run failed
type Kind int

const (
	// KindUnexpected covers anything not classified below
	KindUnexpected Kind = iota
	// KindPrerequisite means the run could not start: missing env file,
	// unknown or unlinked driver, invalid configuration
	KindPrerequisite
	// KindConnectivity means the server was unreachable or refused the session
	KindConnectivity
	// KindStatement means the server rejected a catalog query or a create/drop
	KindStatement
)

func (k Kind) String() string {
	switch k {
	case KindPrerequisite:
		return "prerequisite"
	case KindConnectivity:
		return "connectivity"
	case KindStatement:
		return "statement"
	default:
		return "unexpected"
	}
}

// Error is returned by every failed provisioning step
type Error struct {
	Kind Kind
	Op   string
	Err  error
	// Hint is an optional remediation shown to the operator
	Hint string
}

// NewError wraps err with a kind and the step that failed
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind carried by err, or KindUnexpected when err is not
// a provisioning error
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnexpected
}
