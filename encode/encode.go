// Package encode writes documents as MongoDB extended JSON or YAML.
package encode

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/signadot/docdelta/format"
	"github.com/signadot/docdelta/ir"
	"go.mongodb.org/mongo-driver/bson"
)

type EncState struct {
	format    format.Format
	canonical bool
	indent    bool
}

type EncodeOption func(*EncState)

func EncodeFormat(f format.Format) EncodeOption {
	return func(es *EncState) { es.format = f }
}

// EncodeCanonical selects canonical extended JSON, which keeps the
// representation of every number explicit.
func EncodeCanonical(v bool) EncodeOption {
	return func(es *EncState) { es.canonical = v }
}

func EncodeIndent(v bool) EncodeOption {
	return func(es *EncState) { es.indent = v }
}

// Encode writes an object document to w.
func Encode(node *ir.Node, w io.Writer, opts ...EncodeOption) error {
	es := &EncState{indent: true}
	for _, opt := range opts {
		opt(es)
	}
	if node == nil || node.Type != ir.ObjectType {
		return fmt.Errorf("can only encode object documents, got %s", typeName(node))
	}
	v, err := ir.ToBSON(node)
	if err != nil {
		return err
	}
	return es.write(v, w)
}

// EncodeBSON writes a document built with the bson package, such as an
// update document, to w.
func EncodeBSON(doc bson.D, w io.Writer, opts ...EncodeOption) error {
	es := &EncState{indent: true}
	for _, opt := range opts {
		opt(es)
	}
	return es.write(doc, w)
}

func (es *EncState) write(v any, w io.Writer) error {
	var (
		d   []byte
		err error
	)
	if es.indent && es.format != format.YAMLFormat {
		d, err = bson.MarshalExtJSONIndent(v, es.canonical, false, "", "  ")
	} else {
		d, err = bson.MarshalExtJSON(v, es.canonical, false)
	}
	if err != nil {
		return err
	}
	if es.format == format.YAMLFormat {
		d, err = yaml.JSONToYAML(d)
		if err != nil {
			return err
		}
	} else {
		d = append(d, '\n')
	}
	_, err = w.Write(d)
	return err
}

// Value returns the compact relaxed extended JSON text of any node,
// including scalars and arrays.
func Value(node *ir.Node) (string, error) {
	v, err := ir.ToBSON(node)
	if err != nil {
		return "", err
	}
	d, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: v}}, false, false)
	if err != nil {
		return "", err
	}
	s := strings.TrimPrefix(string(d), `{"v":`)
	return strings.TrimSuffix(s, "}"), nil
}

func MustString(node *ir.Node) string {
	buf := bytes.NewBuffer(nil)
	if err := Encode(node, buf); err != nil {
		panic(err)
	}
	return strings.TrimSpace(buf.String())
}

func typeName(n *ir.Node) string {
	if n == nil {
		return "nil"
	}
	return n.Type.String()
}
