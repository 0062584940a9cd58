// Package boltstore stores documents in a bbolt file.
//
// Each collection is a bucket. A document is keyed by the canonical
// encoding of its identity value and stored as a msgpack record.
// Begin opens a read-write bbolt transaction; bbolt allows one writer
// at a time, so direct collection writes block while a transaction is
// open.
package boltstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/store"
	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"
)

const recordVersion = 1

var (
	ErrNoIdentity = errors.New("document has no identity value")
	ErrVersion    = errors.New("unsupported record version")
)

type record struct {
	Version uint32   `msgpack:"version"`
	Doc     *ir.Node `msgpack:"doc"`
}

type Store struct {
	db  *bolt.DB
	log *slog.Logger
}

// Open opens or creates the database file at path. If logger is nil,
// slog.Default() is used.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	logger = logger.With("component", "boltstore")
	logger.Debug("opened", "path", path)
	return &Store{db: db, log: logger}, nil
}

func (s *Store) Close() error {
	s.log.Debug("closing", "path", s.db.Path())
	return s.db.Close()
}

func (s *Store) Collection(name string) store.Collection {
	return &collection{name: name, run: s.run}
}

func (s *Store) run(writable bool, fn func(*bolt.Tx) error) error {
	if writable {
		return s.db.Update(fn)
	}
	return s.db.View(fn)
}

func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	btx, err := s.db.Begin(true)
	if err != nil {
		return nil, err
	}
	return &tx{btx: btx, log: s.log}, nil
}

// Documents returns the documents of a collection in key order.
func (s *Store) Documents(name string) ([]*ir.Node, error) {
	var res []*ir.Node
	err := s.db.View(func(btx *bolt.Tx) error {
		b := btx.Bucket([]byte(name))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			d, err := decode(v)
			if err != nil {
				return err
			}
			res = append(res, d)
			return nil
		})
	})
	return res, err
}

type tx struct {
	mu   sync.Mutex
	btx  *bolt.Tx
	log  *slog.Logger
	done bool
}

func (t *tx) run(_ bool, fn func(*bolt.Tx) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return store.ErrTxDone
	}
	return fn(t.btx)
}

func (t *tx) Collection(name string) store.Collection {
	return &collection{name: name, run: t.run}
}

func (t *tx) Commit(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return store.ErrTxDone
	}
	t.done = true
	return t.btx.Commit()
}

func (t *tx) Abort(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return store.ErrTxDone
	}
	t.done = true
	return t.btx.Rollback()
}

type collection struct {
	name string
	run  func(writable bool, fn func(*bolt.Tx) error) error
}

func (c *collection) Name() string { return c.name }

func (c *collection) InsertMany(ctx context.Context, cmd *store.Insert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.run(true, func(btx *bolt.Tx) error {
		b, err := btx.CreateBucketIfNotExists([]byte(c.name))
		if err != nil {
			return err
		}
		for _, d := range cmd.Documents {
			k, err := docKey(d, cmd.Identity)
			if err != nil {
				return err
			}
			if b.Get(k) != nil {
				return fmt.Errorf("%w: %s", store.ErrDuplicate, store.IDString(ir.Get(d, cmd.Identity)))
			}
			if err := put(b, k, d); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *collection) DeleteMany(ctx context.Context, cmd *store.Delete) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	err := c.run(true, func(btx *bolt.Tx) error {
		b := btx.Bucket([]byte(c.name))
		if b == nil {
			return nil
		}
		for _, id := range cmd.IDs {
			k := key(id)
			if b.Get(k) == nil {
				continue
			}
			if err := b.Delete(k); err != nil {
				return err
			}
			n++
		}
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
		return cmd.Document, nil
	})
}

func (c *collection) replaceWith(ctx context.Context, identity string, id *ir.Node, fn func(*ir.Node) (*ir.Node, error)) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	found := false
	err := c.run(true, func(btx *bolt.Tx) error {
		b := btx.Bucket([]byte(c.name))
		if b == nil {
			return nil
		}
		k := key(id)
		v := b.Get(k)
		if v == nil {
			return nil
		}
		found = true
		d, err := decode(v)
		if err != nil {
			return err
		}
		d, err = fn(d)
		if err != nil {
			return err
		}
		nk, err := docKey(d, identity)
		if err != nil {
			return err
		}
		if string(nk) != string(k) {
			if b.Get(nk) != nil {
				return fmt.Errorf("%w: %s", store.ErrDuplicate, store.IDString(ir.Get(d, identity)))
			}
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return put(b, nk, d)
	})
	return found, err
}

func (c *collection) FindOne(ctx context.Context, identity string, id *ir.Node) (*ir.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var res *ir.Node
	err := c.run(false, func(btx *bolt.Tx) error {
		var v []byte
		if b := btx.Bucket([]byte(c.name)); b != nil {
			v = b.Get(key(id))
		}
		if v == nil {
			return fmt.Errorf("%w: %s=%s", store.ErrNotFound, identity, store.IDString(id))
		}
		d, err := decode(v)
		res = d
		return err
	})
	return res, err
}

func key(id *ir.Node) []byte {
	return []byte(id.Key())
}

func docKey(d *ir.Node, identity string) ([]byte, error) {
	id := ir.Get(d, identity)
	if id.IsNull() {
		return nil, fmt.Errorf("%w: field %s", ErrNoIdentity, identity)
	}
	return key(id), nil
}

func put(b *bolt.Bucket, k []byte, d *ir.Node) error {
	v, err := msgpack.Marshal(&record{Version: recordVersion, Doc: d})
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return b.Put(k, v)
}

func decode(v []byte) (*ir.Node, error) {
	r := &record{}
	if err := msgpack.Unmarshal(v, r); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	if r.Version != recordVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, r.Version)
	}
	return r.Doc, nil
}
