package store

import (
	"fmt"
	"strings"

	"github.com/signadot/docdelta/encode"
	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/libdiff"
	"github.com/signadot/docdelta/update"
	"go.mongodb.org/mongo-driver/bson"
)

type Kind int

const (
	InsertKind Kind = iota
	DeleteKind
	UpdateKind
	ReplaceKind
)

func (k Kind) String() string {
	switch k {
	case InsertKind:
		return "insert"
	case DeleteKind:
		return "delete"
	case UpdateKind:
		return "update"
	case ReplaceKind:
		return "replace"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Command is one of *Insert, *Delete, *UpdateOne and *ReplaceOne.
type Command interface {
	Kind() Kind
	String() string
}

// Insert adds documents. Identity names the identity field of the
// documents.
type Insert struct {
	Identity  string
	Documents []*ir.Node
}

// Delete removes the documents whose identity field is one of IDs.
type Delete struct {
	Identity string
	IDs      []*ir.Node
}

// UpdateOne applies one batch of patch operations to the document
// whose identity field equals ID.
type UpdateOne struct {
	Identity string
	ID       *ir.Node
	Batch    *update.Batch
	// Filters binds the placeholders of the batch. It may hold filters
	// the batch does not use.
	Filters []*libdiff.Filter
}

// ReplaceOne replaces the whole document whose identity field equals
// ID.
type ReplaceOne struct {
	Identity string
	ID       *ir.Node
	Document *ir.Node
}

func (*Insert) Kind() Kind     { return InsertKind }
func (*Delete) Kind() Kind     { return DeleteKind }
func (*UpdateOne) Kind() Kind  { return UpdateKind }
func (*ReplaceOne) Kind() Kind { return ReplaceKind }

// Update renders the update document of the command.
func (c *UpdateOne) Update() (bson.D, error) {
	return update.Document(c.Batch)
}

// ArrayFilters renders the array filters used by the command.
func (c *UpdateOne) ArrayFilters() ([]any, error) {
	return update.ArrayFilters(c.Batch, c.Filters)
}

// Filter returns the filter bound to the placeholder name, or nil.
func (c *UpdateOne) Filter(name string) *libdiff.Filter {
	for _, f := range c.Filters {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (c *Insert) String() string {
	return fmt.Sprintf("insert %d documents", len(c.Documents))
}

func (c *Delete) String() string {
	return fmt.Sprintf("delete %s in %s", c.Identity, text(ir.FromSlice(c.IDs)))
}

func (c *UpdateOne) String() string {
	buf := &strings.Builder{}
	fmt.Fprintf(buf, "update %s=%s", c.Identity, text(c.ID))
	for _, op := range c.Batch.Ops {
		buf.WriteString("; ")
		buf.WriteString(op.String())
	}
	return buf.String()
}

func (c *ReplaceOne) String() string {
	return fmt.Sprintf("replace %s=%s", c.Identity, text(c.ID))
}

// IDString renders an identity value for messages.
func IDString(id *ir.Node) string {
	return text(id)
}

func text(n *ir.Node) string {
	s, err := encode.Value(n)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return s
}
