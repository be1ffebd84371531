package query

import (
	"errors"
	"fmt"
)

// Kind classifies a query-surface failure. Query guard errors are returned
// directly to the caller; they never mutate dataset state.
type Kind string

const (
	KindNotFound  Kind = "not_found"
	KindForbidden Kind = "forbidden"
	KindStore     Kind = "store_error"
)

type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// KindOf extracts the kind from a query error chain.
func KindOf(err error) Kind {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return KindStore
}
