package telemetry

import "errors"

// Decode failures. Callers classify with errors.Is; every returned error wraps
// exactly one of these.
var (
	ErrMalformedHex     = errors.New("malformed hex")
	ErrInvalidLength    = errors.New("invalid length")
	ErrUnknownFieldType = errors.New("unknown field type")
	ErrEmptyPayload     = errors.New("empty payload")
	ErrMalformedValue   = errors.New("malformed value")
	ErrArityMismatch    = errors.New("arity mismatch")
	ErrMissingField     = errors.New("missing field")
	ErrMalformedInteger = errors.New("malformed integer")
)
