package libdiff

import (
	"errors"
	"fmt"

	"github.com/signadot/docdelta/debug"
	"github.com/signadot/docdelta/dirty"
	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/ir/fpath"
	"github.com/signadot/docdelta/policy"
)

var (
	ErrShape    = dirty.ErrShape
	ErrIdentity = dirty.ErrIdentity
)

// Build computes the patch of a tracker with a fresh Allocator.
func Build(t *dirty.Tracker) (*Patch, error) {
	return BuildWith(t, NewAllocator())
}

// BuildWith computes the patch of a tracker, allocating array filter
// placeholders from a.
func BuildWith(t *dirty.Tracker, a *Allocator) (*Patch, error) {
	if !t.Policy().Delta() {
		isDirty, err := t.IsDirty()
		if err != nil || !isDirty {
			return &Patch{}, err
		}
		doc, err := t.Document()
		if err != nil {
			return nil, err
		}
		if debug.Patch() {
			debug.Logf("patch %s: replace %v", t.Policy().Type.Name, doc)
		}
		return &Patch{Replace: true, Replacement: doc}, nil
	}
	b := &builder{alloc: a}
	ops, err := b.object(t, nil)
	if err != nil {
		return nil, err
	}
	if debug.Patch() {
		for _, op := range ops {
			debug.Logf("patch %s: %s", t.Policy().Type.Name, op)
		}
	}
	return &Patch{Ops: ops, Filters: a.Filters()}, nil
}

type builder struct {
	alloc *Allocator
}

func (b *builder) object(t *dirty.Tracker, prefix fpath.Path) ([]*Op, error) {
	var ops []*Op
	for _, m := range t.Members() {
		path := prefix.Child(m.Name())
		mOps, err := b.member(m, path)
		if err != nil {
			return nil, err
		}
		ops = append(ops, mOps...)
	}
	return ops, nil
}

func (b *builder) member(m *dirty.Member, path fpath.Path) ([]*Op, error) {
	orig := m.Original()
	cur, err := m.Current()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	switch {
	case orig.IsNull() && cur.IsNull():
		return nil, nil
	case orig.IsNull() || cur.IsNull():
		return []*Op{{Path: path, Kind: Set, Value: cur}}, nil
	}

	fp := m.Policy()
	switch fp.Kind {
	case policy.Delta:
		if cur.Type != ir.ObjectType {
			return nil, fmt.Errorf("%s: %w: expected object, got %s", path, ErrShape, cur.Type)
		}
		return b.object(m.Nested(), path)

	case policy.Incremental:
		if ir.Equal(orig, cur) {
			return nil, nil
		}
		delta, err := ir.Sub(cur, orig)
		if errors.Is(err, ir.ErrOverflow) {
			return []*Op{{Path: path, Kind: Set, Value: cur}}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return []*Op{{Path: path, Kind: Increment, Value: delta}}, nil

	case policy.SetCollection:
		added, removed, err := dirty.SetDiff(orig, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		var ops []*Op
		if len(added) != 0 {
			ops = append(ops, &Op{Path: path, Kind: SetAdd, Values: added})
		}
		if len(removed) != 0 {
			ops = append(ops, &Op{Path: path, Kind: SetRemove, Values: removed})
		}
		return ops, nil

	case policy.IdentityCollection:
		return b.collection(fp.Item, orig, cur, path)
	}

	if ir.Equal(orig, cur) {
		return nil, nil
	}
	return []*Op{{Path: path, Kind: Set, Value: cur}}, nil
}

func (b *builder) collection(item *policy.TypePolicy, orig, cur *ir.Node, path fpath.Path) ([]*Op, error) {
	kd, err := dirty.Keyed(item, orig, cur)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	idField := item.Type.Identity
	var ops []*Op
	if len(kd.Added) != 0 {
		ops = append(ops, &Op{Path: path, Kind: CollectionAdd, Values: kd.Added})
	}
	if len(kd.Removed) != 0 {
		ops = append(ops, &Op{Path: path, Kind: CollectionRemove, Values: kd.Removed, Identity: idField})
	}
	for _, p := range kd.Kept {
		if !item.Delta() {
			if ir.Equal(p.Original, p.Current) {
				continue
			}
			f := b.alloc.Next(item.Type.Name, idField, p.Identity)
			ops = append(ops, &Op{Path: fpath.Join(path, fpath.Filter(f.Name)), Kind: Set, Value: p.Current})
			continue
		}
		sub, err := p.Tracker()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		subOps, err := b.object(sub, nil)
		if err != nil {
			return nil, fmt.Errorf("%s[%s=%s]: %w", path, idField, text(p.Identity), err)
		}
		if len(subOps) == 0 {
			continue
		}
		f := b.alloc.Next(item.Type.Name, idField, p.Identity)
		scope := fpath.Join(path, fpath.Filter(f.Name))
		for _, op := range subOps {
			op.Path = fpath.Join(scope, op.Path)
		}
		ops = append(ops, subOps...)
	}
	return ops, nil
}
