package schema

import "errors"

var (
	ErrInvalid   = errors.New("invalid schema type")
	ErrDuplicate = errors.New("type already registered")
	ErrNotFound  = errors.New("type not found")
	// ErrCycle is returned when a delta type reaches itself through
	// nested delta object fields.
	ErrCycle = errors.New("self-referential delta type")
)
