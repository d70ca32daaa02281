package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrorKind classifies failures so the HTTP layer can map them to status codes.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindState
	KindNotFound
	KindForbidden
	KindUnauthorized
	KindConflict
)

// DomainError is an expected business failure with a caller-facing message.
type DomainError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *DomainError) Unwrap() error { return e.Err }

// KindOf returns the kind of the first DomainError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// MessageOf returns the caller-facing message of a DomainError, without wrapped causes.
func MessageOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Msg
	}
	return err.Error()
}

func validationErrorf(format string, args ...any) error {
	return &DomainError{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func stateErrorf(format string, args ...any) error {
	return &DomainError{Kind: KindState, Msg: fmt.Sprintf(format, args...)}
}

func forbiddenf(format string, args ...any) error {
	return &DomainError{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

func notFound(what string) error {
	return &DomainError{Kind: KindNotFound, Msg: what + " not found"}
}

// lookup turns gorm's not-found into a NotFound DomainError and wraps anything else.
func lookup(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
