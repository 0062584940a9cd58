package uow

import (
	"context"
	"fmt"

	"github.com/signadot/docdelta/gomap"
	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/schema"
	"github.com/signadot/docdelta/store"
	"github.com/signadot/docdelta/track"
)

// Decoder builds an entity from a stored document.
type Decoder[T any] func(*ir.Node) (*T, error)

// Repository loads and tracks the entities of one collection.
type Repository[T any] struct {
	u      *UnitOfWork
	name   string
	coll   *track.Collection[T]
	decode Decoder[T]
	loaded map[string]*T
}

// Register adds a repository for the collection name holding entities
// described by typ. A nil decode uses Decode.
func Register[T any](u *UnitOfWork, name string, typ *schema.Type, decode Decoder[T]) (*Repository[T], error) {
	for _, r := range u.repos {
		if r.collection() == name {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRepository, name)
		}
	}
	if decode == nil {
		decode = Decode[T]
	}
	r := &Repository[T]{
		u:      u,
		name:   name,
		coll:   track.NewCollection[T](u.opts.resolver, typ),
		decode: decode,
		loaded: map[string]*T{},
	}
	u.repos = append(u.repos, r)
	return r, nil
}

// Decode is the default Decoder: documents are used as is for
// ir.Node entities and mapped with gomap.FromDocument otherwise.
func Decode[T any](d *ir.Node) (*T, error) {
	res := new(T)
	if n, ok := any(res).(*ir.Node); ok {
		d.CloneTo(n)
		return res, nil
	}
	if err := gomap.FromDocument(d, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Repository[T]) collection() string {
	return r.name
}

func (r *Repository[T]) prepare() (*store.Changes, error) {
	return track.Changes(r.coll)
}

// Tracked returns the tracking collection of the repository.
func (r *Repository[T]) Tracked() *track.Collection[T] {
	return r.coll
}

// Get loads the entity with identity value id and tracks it as
// existing. Loading the same identity twice returns the same entity.
func (r *Repository[T]) Get(ctx context.Context, id *ir.Node) (*T, error) {
	key := id.Key()
	if e, ok := r.loaded[key]; ok {
		return e, nil
	}
	typ := r.coll.Type()
	d, err := r.u.store.Collection(r.name).FindOne(ctx, typ.Identity, id)
	if err != nil {
		return nil, err
	}
	e, err := r.decode(d)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", typ.Name, err)
	}
	if err := r.coll.TrackExisting(e); err != nil {
		return nil, err
	}
	r.loaded[key] = e
	return e, nil
}

// Attach tracks an entity loaded by other means as existing.
func (r *Repository[T]) Attach(e *T) error {
	return r.coll.TrackExisting(e)
}

// Add tracks a new entity, inserted on commit.
func (r *Repository[T]) Add(e *T) error {
	return r.coll.Add(e)
}

// Remove marks an entity for deletion on commit.
func (r *Repository[T]) Remove(e *T) error {
	return r.coll.Remove(e)
}
