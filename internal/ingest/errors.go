package ingest

import (
	"errors"
	"fmt"
)

// Kind classifies an ingestion failure. The kind is part of the API contract:
// callers receive it verbatim and the dataset's error message is derived from it.
type Kind string

const (
	KindFetch    Kind = "fetch_error"
	KindParse    Kind = "parse_error"
	KindSchema   Kind = "schema_error"
	KindLoad     Kind = "load_error"
	KindMetadata Kind = "metadata_error"
	KindStore    Kind = "store_error"
)

// Error carries a stable kind plus a human-readable detail string. Raw driver
// errors are wrapped, never forwarded verbatim past the detail text.
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

// KindOf extracts the kind from an ingestion error chain. Anything that is not
// an *Error is reported as a generic store failure.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindStore
}
