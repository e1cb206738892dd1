package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// LoSTError is a protocol-level error. Kind is the local name of the single
// child carried by the <errors> element on the wire.
type LoSTError struct {
	Kind    string
	Message string
}

func (e *LoSTError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind, format string, args ...interface{}) *LoSTError {
	return &LoSTError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...interface{}) *LoSTError {
	return newError(KindBadRequest, format, args...)
}

func Forbidden(format string, args ...interface{}) *LoSTError {
	return newError(KindForbidden, format, args...)
}

func InternalError(format string, args ...interface{}) *LoSTError {
	return newError(KindInternalError, format, args...)
}

func LocationProfileUnrecognized(format string, args ...interface{}) *LoSTError {
	return newError(KindLocationProfileUnrecognized, format, args...)
}

func LocationInvalid(format string, args ...interface{}) *LoSTError {
	return newError(KindLocationInvalid, format, args...)
}

func SRSInvalid(format string, args ...interface{}) *LoSTError {
	return newError(KindSRSInvalid, format, args...)
}

func Loop(format string, args ...interface{}) *LoSTError {
	return newError(KindLoop, format, args...)
}

func NotFound(format string, args ...interface{}) *LoSTError {
	return newError(KindNotFound, format, args...)
}

func ServerError(format string, args ...interface{}) *LoSTError {
	return newError(KindServerError, format, args...)
}

func ServerTimeout(format string, args ...interface{}) *LoSTError {
	return newError(KindServerTimeout, format, args...)
}

func NotAuthoritative(format string, args ...interface{}) *LoSTError {
	return newError(KindNotAuthoritative, format, args...)
}

func NotImplemented(format string, args ...interface{}) *LoSTError {
	return newError(KindNotImplemented, format, args...)
}

func ServiceNotImplemented(format string, args ...interface{}) *LoSTError {
	return newError(KindServiceNotImplemented, format, args...)
}

func GeometryNotImplemented(format string, args ...interface{}) *LoSTError {
	return newError(KindGeometryNotImplemented, format, args...)
}

// FromKind rebuilds a typed error from a wire kind, used when an upstream
// <errors> response is mapped back into the local pipeline. Unknown kinds
// surface as serverError.
func FromKind(kind, message string) *LoSTError {
	if !KnownKind(kind) {
		return ServerError("unknown error kind %q from upstream", kind)
	}
	return &LoSTError{Kind: kind, Message: message}
}

// Wrap normalizes any error to a LoSTError. Deadline expiry becomes
// serverTimeout; everything else that is not already typed becomes
// internalError.
func Wrap(err error) *LoSTError {
	var le *LoSTError
	if stderrors.As(err, &le) {
		return le
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return ServerTimeout("deadline exceeded")
	}
	return InternalError("%v", err)
}
