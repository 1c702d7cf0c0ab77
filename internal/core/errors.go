package core

import "errors"

var (
	// ErrMissingPrimaryKey is returned when an operation needs the primary
	// key of a record and the record does not hold one.
	ErrMissingPrimaryKey = errors.New("missing primary key")

	// ErrNothingToUpdate is returned when an update has no columns to set.
	ErrNothingToUpdate = errors.New("nothing to update")

	// ErrNotRegistered is returned when a lifecycle operation runs on a model
	// that has not been registered with a connection, or has been removed.
	ErrNotRegistered = errors.New("model is not registered")

	// ErrInvalidSchema is returned when a schema descriptor is malformed.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrUnknownColumn is returned when a value is assigned to a column the
	// schema does not declare.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrInvalidValue is returned when a value does not match the kind of
	// the column it is assigned to.
	ErrInvalidValue = errors.New("invalid value")

	// ErrMalformedCondition is returned for filter entries whose shape the
	// where-clause translator cannot compile.
	ErrMalformedCondition = errors.New("malformed condition")

	// ErrInvalidIdentifier is returned when a name that would be inlined
	// into SQL text is not a plain identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrNoSequence is returned in strict mode when an auto-increment column
	// has no sequence to read from.
	ErrNoSequence = errors.New("auto-increment column has no sequence")

	// ErrNoRowsAffected is returned when a delete matched no row.
	ErrNoRowsAffected = errors.New("no rows affected")
)
