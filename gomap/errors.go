package gomap

import (
	"errors"
	"fmt"
)

var ErrNotStruct = errors.New("not a struct type")

// SchemaError represents an error while deriving a descriptor.
type SchemaError struct {
	TypeName string
	Field    string
	Message  string
	Err      error
}

func (e *SchemaError) Error() string {
	where := e.TypeName
	if e.Field != "" {
		where += "." + e.Field
	}
	if e.Err != nil {
		return fmt.Sprintf("schema error for %s: %s: %v", where, e.Message, e.Err)
	}
	return fmt.Sprintf("schema error for %s: %s", where, e.Message)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
