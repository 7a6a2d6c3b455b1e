package pipeline

import "errors"

// Errors returned by the pipeline package.
var (
	// ErrInvalidOrder is returned for a sort order other than asc or desc.
	ErrInvalidOrder = errors.New("invalid sort order")

	// ErrInvalidPageSize is returned for a page size that is neither
	// positive nor the All sentinel.
	ErrInvalidPageSize = errors.New("invalid page size")

	// ErrInvalidSelectMode is returned for an unknown selection mode.
	ErrInvalidSelectMode = errors.New("invalid selection mode")

	// ErrMalformedFields is returned when a field configuration cannot be parsed.
	ErrMalformedFields = errors.New("malformed field configuration")

	// ErrUnknownTable is returned by Hub when no pipeline is registered
	// under the addressed table ID.
	ErrUnknownTable = errors.New("unknown table")

	// ErrUnknownMessage is returned by Handle for a message type it does
	// not consume.
	ErrUnknownMessage = errors.New("unknown message")
)
