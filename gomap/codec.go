package gomap

import (
	"fmt"

	"github.com/signadot/docdelta/ir"
	"go.mongodb.org/mongo-driver/bson"
)

// ToDocument encodes a struct (or pointer to struct) as a document.
func ToDocument(v any) (*ir.Node, error) {
	if n, ok := v.(*ir.Node); ok {
		return n.Clone(), nil
	}
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	var d bson.D
	if err := bson.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return ir.FromBSON(d)
}

// FromDocument decodes an object document into the value pointed to by
// ptr.
func FromDocument(node *ir.Node, ptr any) error {
	if node == nil || node.Type != ir.ObjectType {
		return fmt.Errorf("decoding into %T: expected object, got %s", ptr, typeName(node))
	}
	v, err := ir.ToBSON(node)
	if err != nil {
		return err
	}
	data, err := bson.Marshal(v)
	if err != nil {
		return err
	}
	if err := bson.Unmarshal(data, ptr); err != nil {
		return fmt.Errorf("decoding into %T: %w", ptr, err)
	}
	return nil
}

// EncodeValue encodes any value the bson codec accepts, including
// scalars and slices.
func EncodeValue(v any) (*ir.Node, error) {
	if n, ok := v.(*ir.Node); ok {
		return n.Clone(), nil
	}
	data, err := bson.Marshal(bson.D{{Key: "v", Value: v}})
	if err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	var d bson.D
	if err := bson.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return ir.FromBSON(d[0].Value)
}

func typeName(n *ir.Node) string {
	if n == nil {
		return "nil"
	}
	return n.Type.String()
}
