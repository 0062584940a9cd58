package dirty

import "errors"

var (
	// ErrShape is returned when a collection field does not hold an
	// array, or an identity collection item is not an object.
	ErrShape = errors.New("unexpected value shape")
	// ErrIdentity is returned when an identity collection item has no
	// identity value or shares it with another item.
	ErrIdentity = errors.New("bad item identity")
)
