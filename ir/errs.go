package ir

import (
	"errors"
)

var (
	// ErrIncompatibleNumber is returned by numeric arithmetic on nodes
	// whose number representations differ.
	ErrIncompatibleNumber = errors.New("incompatible numeric representations")
	ErrNotNumber          = errors.New("not a number")
	ErrUnsupportedBSON    = errors.New("unsupported bson value")
	// ErrOverflow is returned when integer arithmetic leaves the range
	// of the operands' representation.
	ErrOverflow = errors.New("integer overflow")
)
