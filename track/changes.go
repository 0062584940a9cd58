package track

import (
	"fmt"

	"github.com/signadot/docdelta/dirty"
	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/libdiff"
	"github.com/signadot/docdelta/store"
	"github.com/signadot/docdelta/update"
)

// Changes computes the commands persisting c: one insert of every New
// entity, one delete of every Removed entity and, for each dirty
// Existing entity, either a replace or one update per batch of its
// patch. Entities are addressed by their original identity value.
//
// Patch errors abort the computation; nothing is partially returned.
func Changes[T any](c *Collection[T]) (*store.Changes, error) {
	res := &store.Changes{}
	typ := c.typ
	for _, e := range c.OfState(New) {
		if res.Inserts == nil {
			res.Inserts = &store.Insert{Identity: typ.Identity}
		}
		doc, err := typ.Document(e.entity)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", typ.Name, err)
		}
		res.Inserts.Documents = append(res.Inserts.Documents, doc)
	}
	for _, e := range c.OfState(Removed) {
		id, err := originalID(e.tracker)
		if err != nil {
			return nil, err
		}
		if res.Deletes == nil {
			res.Deletes = &store.Delete{Identity: typ.Identity}
		}
		res.Deletes.IDs = append(res.Deletes.IDs, id)
	}
	for _, e := range c.OfState(Existing) {
		cmds, err := Commands(e.tracker)
		if err != nil {
			return nil, err
		}
		res.Updates = append(res.Updates, cmds...)
	}
	return res, nil
}

// Commands returns the commands bringing the stored document of a
// tracked entity up to date: none if it is clean, a *store.ReplaceOne
// for non-delta types and otherwise one *store.UpdateOne per batch of
// non-conflicting operations.
func Commands(tr *dirty.Tracker) ([]store.Command, error) {
	typ := tr.Policy().Type
	patch, err := libdiff.Build(tr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", typ.Name, err)
	}
	if patch.Empty() {
		return nil, nil
	}
	id, err := originalID(tr)
	if err != nil {
		return nil, err
	}
	if patch.Replace {
		return []store.Command{&store.ReplaceOne{
			Identity: typ.Identity,
			ID:       id,
			Document: patch.Replacement,
		}}, nil
	}
	batches := update.Split(patch.Ops)
	res := make([]store.Command, len(batches))
	for i, b := range batches {
		res[i] = &store.UpdateOne{
			Identity: typ.Identity,
			ID:       id,
			Batch:    b,
			Filters:  batchFilters(b, patch),
		}
	}
	return res, nil
}

func batchFilters(b *update.Batch, patch *libdiff.Patch) []*libdiff.Filter {
	var res []*libdiff.Filter
	for _, name := range b.Filters {
		if f := patch.Filter(name); f != nil {
			res = append(res, f)
		}
	}
	return res
}

func originalID(tr *dirty.Tracker) (*ir.Node, error) {
	typ := tr.Policy().Type
	if typ.Identity == "" {
		return nil, fmt.Errorf("%w: type %s declares no identity field", ErrNoIdentity, typ.Name)
	}
	id := ir.Get(tr.Original(), typ.Identity)
	if id.IsNull() {
		return nil, fmt.Errorf("%w: %s.%s is null", ErrNoIdentity, typ.Name, typ.Identity)
	}
	return id, nil
}
