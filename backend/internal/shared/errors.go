// ============================================================================
// backend/internal/shared/errors.go
// Error kinds shared across services, mapped to HTTP in the gateway
// ============================================================================

package shared

import (
	"errors"
	"fmt"
)

// Kind classifies a service error for transport mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUpstreamFormat
	KindPersistence
)

// Error is the error type returned by all services.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validationf reports a request the caller must fix.
func Validationf(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf reports an identifier absent from storage.
func NotFoundf(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflictf reports a duplicate unique field (e.g. email already in use).
func Conflictf(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// UpstreamFormatf reports an unexpected shape from a remote data source.
func UpstreamFormatf(format string, args ...interface{}) error {
	return &Error{Kind: KindUpstreamFormat, Message: fmt.Sprintf(format, args...)}
}

// Persistencef wraps a storage failure.
func Persistencef(err error, format string, args ...interface{}) error {
	return &Error{Kind: KindPersistence, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from any error in the chain.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}
