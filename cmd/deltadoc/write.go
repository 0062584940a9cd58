package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/signadot/docdelta/encode"
	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/libdiff"
	"github.com/signadot/docdelta/store"
	"go.mongodb.org/mongo-driver/bson"
)

// cmdWriter prints commands as extended JSON or YAML documents.
type cmdWriter struct {
	w       io.Writer
	opts    []encode.EncodeOption
	pal     *palette
	filters bool
	// orig, when set, is shown against replacements as a line diff.
	orig *ir.Node
}

func (cw *cmdWriter) write(cmds []store.Command) error {
	for i, cmd := range cmds {
		if _, err := cw.pal.header.Fprintf(cw.w, "# %d/%d %s\n", i+1, len(cmds), cmd.Kind()); err != nil {
			return err
		}
		var err error
		switch c := cmd.(type) {
		case *store.UpdateOne:
			err = cw.update(c)
		case *store.ReplaceOne:
			err = cw.replace(c)
		case *store.Insert:
			err = cw.insert(c)
		case *store.Delete:
			err = cw.delete(c)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (cw *cmdWriter) update(c *store.UpdateOne) error {
	var doc bson.D
	if cw.filters {
		id, err := ir.ToBSON(c.ID)
		if err != nil {
			return err
		}
		doc = append(doc, bson.E{Key: "filter", Value: bson.D{{Key: c.Identity, Value: id}}})
	}
	upd, err := c.Update()
	if err != nil {
		return err
	}
	doc = append(doc, bson.E{Key: "update", Value: upd})
	afs, err := c.ArrayFilters()
	if err != nil {
		return err
	}
	if len(afs) != 0 {
		doc = append(doc, bson.E{Key: "arrayFilters", Value: afs})
	}
	return encode.EncodeBSON(doc, cw.w, cw.opts...)
}

func (cw *cmdWriter) replace(c *store.ReplaceOne) error {
	if cw.orig == nil {
		return encode.Encode(c.Document, cw.w, cw.opts...)
	}
	from, err := encodeString(cw.orig, cw.opts)
	if err != nil {
		return err
	}
	to, err := encodeString(c.Document, cw.opts)
	if err != nil {
		return err
	}
	for _, ln := range libdiff.DiffLines(from, to) {
		switch ln.Kind {
		case libdiff.LineInsert:
			_, err = cw.pal.add.Fprintf(cw.w, "+ %s\n", ln.Text)
		case libdiff.LineDelete:
			_, err = cw.pal.del.Fprintf(cw.w, "- %s\n", ln.Text)
		default:
			_, err = fmt.Fprintf(cw.w, "  %s\n", ln.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (cw *cmdWriter) insert(c *store.Insert) error {
	for _, d := range c.Documents {
		if err := encode.Encode(d, cw.w, cw.opts...); err != nil {
			return err
		}
	}
	return nil
}

func (cw *cmdWriter) delete(c *store.Delete) error {
	ids := make(bson.A, len(c.IDs))
	for i, id := range c.IDs {
		v, err := ir.ToBSON(id)
		if err != nil {
			return err
		}
		ids[i] = v
	}
	doc := bson.D{{Key: "filter", Value: bson.D{{Key: c.Identity, Value: bson.D{{Key: "$in", Value: ids}}}}}}
	return encode.EncodeBSON(doc, cw.w, cw.opts...)
}

func encodeString(n *ir.Node, opts []encode.EncodeOption) (string, error) {
	buf := &bytes.Buffer{}
	if err := encode.Encode(n, buf, opts...); err != nil {
		return "", err
	}
	return buf.String(), nil
}
