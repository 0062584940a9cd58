// Package memstore is an in-memory store.
//
// Begin snapshots every collection. Commit installs the snapshot if no
// other transaction committed since Begin, and fails with
// store.ErrConflict otherwise.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/store"
)

type Store struct {
	mu      sync.Mutex
	version uint64
	colls   map[string][]*ir.Node
}

func New() *Store {
	return &Store{colls: map[string][]*ir.Node{}}
}

// Collection returns a collection writing directly to the store.
func (s *Store) Collection(name string) store.Collection {
	return &collection{name: name, docs: direct{s}}
}

// Documents returns copies of the documents of a collection, in
// insertion order.
func (s *Store) Documents(name string) []*ir.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDocs(s.colls[name])
}

func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[string][]*ir.Node, len(s.colls))
	for name, docs := range s.colls {
		snap[name] = cloneDocs(docs)
	}
	return &tx{s: s, version: s.version, colls: snap}, nil
}

func cloneDocs(docs []*ir.Node) []*ir.Node {
	res := make([]*ir.Node, len(docs))
	for i, d := range docs {
		res[i] = d.Clone()
	}
	return res
}

// docs gives a collection access to its document slice under the
// appropriate lock.
type docs interface {
	with(name string, fn func(*[]*ir.Node) error) error
	read(name string, fn func([]*ir.Node) error) error
}

type direct struct{ s *Store }

func (d direct) with(name string, fn func(*[]*ir.Node) error) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	cur := d.s.colls[name]
	err := fn(&cur)
	if err == nil {
		d.s.colls[name] = cur
		d.s.version++
	}
	return err
}

func (d direct) read(name string, fn func([]*ir.Node) error) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	return fn(d.s.colls[name])
}

type tx struct {
	mu      sync.Mutex
	s       *Store
	version uint64
	colls   map[string][]*ir.Node
	done    bool
}

func (t *tx) with(name string, fn func(*[]*ir.Node) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return store.ErrTxDone
	}
	cur := t.colls[name]
	err := fn(&cur)
	if err == nil {
		t.colls[name] = cur
	}
	return err
}

func (t *tx) read(name string, fn func([]*ir.Node) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return store.ErrTxDone
	}
	return fn(t.colls[name])
}

func (t *tx) Collection(name string) store.Collection {
	return &collection{name: name, docs: t}
}

func (t *tx) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return store.ErrTxDone
	}
	t.done = true
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.version != t.version {
		return fmt.Errorf("%w: store changed since begin", store.ErrConflict)
	}
	t.s.colls = t.colls
	t.s.version++
	return nil
}

func (t *tx) Abort(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return store.ErrTxDone
	}
	t.done = true
	t.colls = nil
	return nil
}

type collection struct {
	name string
	docs docs
}

func (c *collection) Name() string { return c.name }

func (c *collection) InsertMany(ctx context.Context, cmd *store.Insert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.docs.with(c.name, func(docs *[]*ir.Node) error {
		res := *docs
		for _, d := range cmd.Documents {
			id := ir.Get(d, cmd.Identity)
			if id != nil && index(res, cmd.Identity, id) >= 0 {
				return fmt.Errorf("%w: %s", store.ErrDuplicate, store.IDString(id))
			}
			res = append(res, d.Clone())
		}
		*docs = res
		return nil
	})
}

func (c *collection) DeleteMany(ctx context.Context, cmd *store.Delete) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	err := c.docs.with(c.name, func(docs *[]*ir.Node) error {
		res := make([]*ir.Node, 0, len(*docs))
		for _, d := range *docs {
			drop := false
			for _, id := range cmd.IDs {
				if store.Matches(d, cmd.Identity, id) {
					drop = true
					break
				}
			}
			if drop {
				n++
				continue
			}
			res = append(res, d)
		}
		*docs = res
		return nil
	})
	return n, err
}

func (c *collection) UpdateOne(ctx context.Context, cmd *store.UpdateOne) (bool, error) {
	return c.replaceWith(ctx, cmd.Identity, cmd.ID, func(d *ir.Node) (*ir.Node, error) {
		return store.ApplyUpdate(d, cmd)
	})
}

func (c *collection) ReplaceOne(ctx context.Context, cmd *store.ReplaceOne) (bool, error) {
	return c.replaceWith(ctx, cmd.Identity, cmd.ID, func(*ir.Node) (*ir.Node, error) {
		return cmd.Document.Clone(), nil
	})
}

func (c *collection) replaceWith(ctx context.Context, identity string, id *ir.Node, fn func(*ir.Node) (*ir.Node, error)) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	found := false
	err := c.docs.with(c.name, func(docs *[]*ir.Node) error {
		i := index(*docs, identity, id)
		if i < 0 {
			return nil
		}
		found = true
		d, err := fn((*docs)[i])
		if err != nil {
			return err
		}
		// copy so a failed later write leaves the old slice intact
		res := make([]*ir.Node, len(*docs))
		copy(res, *docs)
		res[i] = d
		*docs = res
		return nil
	})
	return found, err
}

func (c *collection) FindOne(ctx context.Context, identity string, id *ir.Node) (*ir.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var res *ir.Node
	err := c.docs.read(c.name, func(docs []*ir.Node) error {
		i := index(docs, identity, id)
		if i < 0 {
			return fmt.Errorf("%w: %s=%s", store.ErrNotFound, identity, store.IDString(id))
		}
		res = docs[i].Clone()
		return nil
	})
	return res, err
}

func index(docs []*ir.Node, identity string, id *ir.Node) int {
	for i, d := range docs {
		if store.Matches(d, identity, id) {
			return i
		}
	}
	return -1
}
