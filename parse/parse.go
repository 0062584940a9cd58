// Package parse reads documents from JSON or YAML text.
//
// JSON input is MongoDB extended JSON: relaxed and canonical forms are
// accepted, so {"$oid": ...}, {"$date": ...} and {"$numberDecimal": ...}
// produce the matching node types. YAML input is converted to JSON first
// and follows the same conventions.
package parse

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/signadot/docdelta/format"
	"github.com/signadot/docdelta/ir"
	"go.mongodb.org/mongo-driver/bson"
)

var ErrParse = errors.New("parse error")

type parseOpts struct {
	format format.Format
}

type ParseOption func(*parseOpts)

func ParseYAML() ParseOption {
	return ParseFormat(format.YAMLFormat)
}
func ParseJSON() ParseOption {
	return ParseFormat(format.JSONFormat)
}
func ParseFormat(f format.Format) ParseOption {
	return func(o *parseOpts) { o.format = f }
}

// Parse parses a single object document.
func Parse(d []byte, opts ...ParseOption) (*ir.Node, error) {
	po := &parseOpts{}
	for _, opt := range opts {
		opt(po)
	}
	if po.format.ForFile("", d) == format.YAMLFormat {
		j, err := yaml.YAMLToJSON(d)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
		d = j
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(d, false, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return ir.FromBSON(doc)
}

// ParseFile parses the document in the named file; "-" reads standard
// input.
func ParseFile(path string, opts ...ParseOption) (*ir.Node, error) {
	var (
		d   []byte
		err error
	)
	if path == "-" {
		d, err = readAll(os.Stdin)
	} else {
		d, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	po := &parseOpts{}
	for _, opt := range opts {
		opt(po)
	}
	node, err := Parse(d, ParseFormat(po.format.ForFile(path, d)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return node, nil
}

func readAll(f *os.File) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	_, err := buf.ReadFrom(f)
	return buf.Bytes(), err
}
