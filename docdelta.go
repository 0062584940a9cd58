// Package docdelta computes field level update patches for documents
// stored in MongoDB style collections.
//
// The packages underneath hold the parts: schema and gomap describe
// types, dirty tracks changes, libdiff builds patches, update splits
// and renders them, track and uow manage entity lifecycles and store
// executes the resulting commands. This package offers the entry points
// used on plain documents.
package docdelta

import (
	"fmt"

	"github.com/signadot/docdelta/dirty"
	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/libdiff"
	"github.com/signadot/docdelta/policy"
	"github.com/signadot/docdelta/schema"
	"github.com/signadot/docdelta/store"
	"github.com/signadot/docdelta/track"
)

// BuildPatch computes the patch of a tracker: either a whole document
// replacement, or field operations with the array filters they use.
func BuildPatch(tr *dirty.Tracker) (isReplace bool, replacement *ir.Node, ops []*libdiff.Op, filters []*libdiff.Filter, err error) {
	p, err := libdiff.Build(tr)
	if err != nil {
		return false, nil, nil, nil, err
	}
	return p.Replace, p.Replacement, p.Ops, p.Filters, nil
}

// Diff returns the commands updating a stored document of type t from
// orig to cur.
func Diff(r *policy.Resolver, t *schema.Type, orig, cur *ir.Node) ([]store.Command, error) {
	tp, err := r.Resolve(t)
	if err != nil {
		return nil, err
	}
	tr, err := dirty.FromDocuments(tp, orig, cur)
	if err != nil {
		return nil, err
	}
	return track.Commands(tr)
}

// Apply returns doc with update and replace commands applied in order.
func Apply(doc *ir.Node, cmds []store.Command) (*ir.Node, error) {
	res := doc
	for i, cmd := range cmds {
		var err error
		switch c := cmd.(type) {
		case *store.UpdateOne:
			res, err = store.ApplyUpdate(res, c)
		case *store.ReplaceOne:
			res = c.Document.Clone()
		default:
			err = fmt.Errorf("cannot apply %s to a document", cmd.Kind())
		}
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i+1, err)
		}
	}
	if res == doc {
		res = doc.Clone()
	}
	return res, nil
}
