package errors

// Error kinds exactly as they appear on the wire.
const (
	KindBadRequest                  = "badRequest"
	KindForbidden                   = "forbidden"
	KindInternalError               = "internalError"
	KindLocationProfileUnrecognized = "locationProfileUnrecognized"
	KindLocationInvalid             = "locationInvalid"
	KindSRSInvalid                  = "SRSInvalid"
	KindLoop                        = "loop"
	KindNotFound                    = "notFound"
	KindServerError                 = "serverError"
	KindServerTimeout               = "serverTimeout"
	KindNotAuthoritative            = "notAuthoritative"
	KindNotImplemented              = "notImplemented"
	KindServiceNotImplemented       = "serviceNotImplemented"
	KindGeometryNotImplemented      = "geometryNotImplemented"
)

var kinds = map[string]struct{}{
	KindBadRequest:                  {},
	KindForbidden:                   {},
	KindInternalError:               {},
	KindLocationProfileUnrecognized: {},
	KindLocationInvalid:             {},
	KindSRSInvalid:                  {},
	KindLoop:                        {},
	KindNotFound:                    {},
	KindServerError:                 {},
	KindServerTimeout:               {},
	KindNotAuthoritative:            {},
	KindNotImplemented:              {},
	KindServiceNotImplemented:       {},
	KindGeometryNotImplemented:      {},
}

// KnownKind reports whether s names one of the protocol error kinds.
func KnownKind(s string) bool {
	_, ok := kinds[s]
	return ok
}
