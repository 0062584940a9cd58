package schema

import (
	"fmt"
	"strings"

	"github.com/signadot/docdelta/ir"
)

// Policy is the update policy declared for a field.
type Policy int

const (
	Replace Policy = iota
	Incremental
	SetCollection
	IdentityCollection
)

var policyNames = map[Policy]string{
	Replace:            "replace",
	Incremental:        "inc",
	SetCollection:      "set",
	IdentityCollection: "keyed",
}

func (p Policy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Policy) UnmarshalText(d []byte) error {
	pp, err := ParsePolicy(string(d))
	if err != nil {
		return err
	}
	*p = pp
	return nil
}

// ParsePolicy parses the name of a policy. The empty string is Replace.
func ParsePolicy(s string) (Policy, error) {
	if s == "" {
		return Replace, nil
	}
	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}
	return Replace, fmt.Errorf("unknown policy %q", s)
}

// Type describes an entity or nested object type.
type Type struct {
	Name string
	// Delta types are patched field by field. Changes anywhere in a non
	// delta type replace the whole value.
	Delta bool
	// Identity is the name of the identity field, if any.
	Identity string
	Fields   []*Field
}

// Field describes one declared field of a Type.
type Field struct {
	Name   string
	Policy Policy
	// Type is the nested object type of the field, if any.
	Type *Type
	// Item is the item type of an identity collection.
	Item *Type

	// Get returns the Go value of the field in an instance, or nil when
	// the value is null.
	Get func(instance any) any
	// Encode converts a non-nil value returned by Get to a document.
	Encode func(v any) (*ir.Node, error)
}

// Field returns the field called name, or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// IdentityField returns the declared identity field, or nil.
func (t *Type) IdentityField() *Field {
	if t.Identity == "" {
		return nil
	}
	return t.Field(t.Identity)
}

// Document returns the document of a whole instance, with fields in
// declaration order. Documents are cloned.
func (t *Type) Document(instance any) (*ir.Node, error) {
	if instance == nil {
		return ir.Null(), nil
	}
	if node, ok := instance.(*ir.Node); ok {
		return node.Clone(), nil
	}
	kvs := make([]ir.KeyVal, 0, len(t.Fields))
	for _, f := range t.Fields {
		v, err := f.Value(instance)
		if err != nil {
			return nil, err
		}
		kvs = append(kvs, ir.KeyVal{Key: f.Name, Val: v})
	}
	return ir.FromKeyVals(kvs), nil
}

// IdentityValue returns the identity value of an instance.
func (t *Type) IdentityValue(instance any) (*ir.Node, error) {
	f := t.IdentityField()
	if f == nil {
		return nil, fmt.Errorf("%w: %s has no identity field", ErrInvalid, t.Name)
	}
	return f.Value(instance)
}

// Raw returns the value of the field in instance: a *ir.Node for
// document instances and the result of Get otherwise. A null value is
// returned as nil.
func (f *Field) Raw(instance any) any {
	if instance == nil {
		return nil
	}
	if node, ok := instance.(*ir.Node); ok {
		v := ir.Get(node, f.Name)
		if v.IsNull() {
			return nil
		}
		return v
	}
	if f.Get == nil {
		return nil
	}
	return f.Get(instance)
}

// Value returns a snapshot of the document value of the field in
// instance. It never returns a nil node.
func (f *Field) Value(instance any) (*ir.Node, error) {
	raw := f.Raw(instance)
	switch x := raw.(type) {
	case nil:
		return ir.Null(), nil
	case *ir.Node:
		return x.Clone(), nil
	}
	if f.Encode == nil {
		return nil, fmt.Errorf("%w: field %q has no encoder", ErrInvalid, f.Name)
	}
	v, err := f.Encode(raw)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", f.Name, err)
	}
	if v == nil {
		return ir.Null(), nil
	}
	return v, nil
}

func validName(name string) bool {
	return name != "" && !strings.Contains(name, ".") && !strings.HasPrefix(name, "$")
}

// Tag is embedded anonymously in Go structs to carry type level options:
//
//	type Order struct {
//		schema.Tag `delta:"type=Order,delta"`
//		...
//	}
type Tag struct{}
