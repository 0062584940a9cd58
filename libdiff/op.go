package libdiff

import (
	"fmt"
	"strings"

	"github.com/signadot/docdelta/encode"
	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/ir/fpath"
)

type OpKind int

const (
	// Set replaces the value at the path.
	Set OpKind = iota
	// Increment adds a numeric delta to the value at the path.
	Increment
	// SetAdd adds values to a set collection.
	SetAdd
	// SetRemove removes values from a set collection.
	SetRemove
	// CollectionAdd appends items to an identity collection.
	CollectionAdd
	// CollectionRemove removes items of an identity collection by
	// identity value.
	CollectionRemove
)

func (k OpKind) String() string {
	switch k {
	case Set:
		return "set"
	case Increment:
		return "increment"
	case SetAdd:
		return "set-add"
	case SetRemove:
		return "set-remove"
	case CollectionAdd:
		return "collection-add"
	case CollectionRemove:
		return "collection-remove"
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// Op is a single patch operation.
type Op struct {
	Path fpath.Path
	Kind OpKind
	// Value is the new value of Set and the delta of Increment.
	Value *ir.Node
	// Values are the items of SetAdd, SetRemove and CollectionAdd, and
	// the identity values of CollectionRemove.
	Values []*ir.Node
	// Identity names the item identity field of CollectionRemove.
	Identity string
}

// Filters returns the array filter placeholders used in the path.
func (op *Op) Filters() []string {
	return op.Path.Filters()
}

func (op *Op) String() string {
	buf := &strings.Builder{}
	fmt.Fprintf(buf, "%s %s", op.Kind, op.Path)
	if op.Value != nil {
		buf.WriteByte(' ')
		buf.WriteString(text(op.Value))
	}
	if op.Values != nil {
		buf.WriteByte(' ')
		buf.WriteString(text(ir.FromSlice(op.Values)))
	}
	if op.Identity != "" {
		fmt.Fprintf(buf, " by %s", op.Identity)
	}
	return buf.String()
}

func text(n *ir.Node) string {
	s, err := encode.Value(n)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return s
}
