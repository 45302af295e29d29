package docplan

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrIO                 ErrorKind = "io"
	ErrSQL                ErrorKind = "sql"
	ErrBackend            ErrorKind = "backend"
	ErrMalformedPredicate ErrorKind = "malformed_predicate"
	ErrMalformedSort      ErrorKind = "malformed_sort"
	ErrMalformedCatalog   ErrorKind = "malformed_catalog"
	ErrContradiction      ErrorKind = "contradiction"
	ErrNotFound           ErrorKind = "not_found"
	ErrDuplicate          ErrorKind = "duplicate"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Field   string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Field != "" {
		base = fmt.Sprintf("%s (field=%s)", base, e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func New(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func MalformedPredicate(cause error) *Error {
	return &Error{Kind: ErrMalformedPredicate, Message: "invalid predicate", Cause: cause}
}

func MalformedSort(cause error) *Error {
	return &Error{Kind: ErrMalformedSort, Message: "invalid sort", Cause: cause}
}

// MalformedCatalog reports an index definition that cannot be planned with.
func MalformedCatalog(collection, index string, cause error) *Error {
	return &Error{
		Kind:    ErrMalformedCatalog,
		Message: fmt.Sprintf("invalid index %s.%s", collection, index),
		Cause:   cause,
	}
}

func NotFoundError(what string) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("not found: %s", what)}
}

func DuplicateError(collection, index string, cause error) *Error {
	return &Error{Kind: ErrDuplicate, Message: fmt.Sprintf("index %s.%s already exists", collection, index), Cause: cause}
}

func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
