package ingest

import (
	"errors"

	"sensorlocator/internal/columns"
	"sensorlocator/internal/geo"
	"sensorlocator/internal/telemetry"
)

// ErrTooFewColumns marks rows shorter than the configured minimum.
var ErrTooFewColumns = errors.New("too few columns")

var reasons = []struct {
	err  error
	name string
}{
	{ErrTooFewColumns, "too_few_columns"},
	{columns.ErrColumnNotFound, "column_not_found"},
	{columns.ErrColumnConflict, "column_conflict"},
	{telemetry.ErrMissingField, "missing_field"},
	{telemetry.ErrMalformedInteger, "malformed_integer"},
	{telemetry.ErrMalformedHex, "malformed_hex"},
	{telemetry.ErrInvalidLength, "invalid_length"},
	{telemetry.ErrEmptyPayload, "empty_payload"},
	{telemetry.ErrUnknownFieldType, "unknown_field_type"},
	{telemetry.ErrMalformedValue, "malformed_value"},
	{telemetry.ErrArityMismatch, "arity_mismatch"},
	{geo.ErrNoPositionField, "no_position_field"},
	{geo.ErrMalformedPosition, "malformed_position"},
}

// Reason returns the stable kind name for a pipeline error, or "error" when
// the error is not one of the known kinds.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.name
		}
	}
	return "error"
}
