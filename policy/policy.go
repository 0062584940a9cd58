// Package policy resolves the effective update strategy of every field
// of a schema type.
//
// A Resolver is constructed once and shared by every tracker and patch
// build. Resolution is computed lazily per type and cached for the
// lifetime of the resolver; lookups of resolved types only take a read
// lock.
package policy

import (
	"errors"
	"fmt"
	"sync"

	"github.com/signadot/docdelta/schema"
)

var ErrInvalid = errors.New("invalid field policy")

// Kind is the effective update strategy of a field.
type Kind int

const (
	Replace Kind = iota
	Incremental
	SetCollection
	IdentityCollection
	// Delta fields hold a nested delta type and are patched field by
	// field.
	Delta
)

func (k Kind) String() string {
	switch k {
	case Replace:
		return "replace"
	case Incremental:
		return "incremental"
	case SetCollection:
		return "set-collection"
	case IdentityCollection:
		return "identity-collection"
	case Delta:
		return "delta"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// TypePolicy is the resolved policy of a type.
type TypePolicy struct {
	Type   *schema.Type
	Fields []*FieldPolicy
}

// Delta reports whether instances of the type are patched field by
// field rather than replaced.
func (tp *TypePolicy) Delta() bool {
	return tp.Type.Delta
}

// Field returns the policy of the named field, or nil.
func (tp *TypePolicy) Field(name string) *FieldPolicy {
	for _, fp := range tp.Fields {
		if fp.Field.Name == name {
			return fp
		}
	}
	return nil
}

// FieldPolicy is the resolved policy of a field.
type FieldPolicy struct {
	Field *schema.Field
	Kind  Kind
	// Nested is set for Delta fields.
	Nested *TypePolicy
	// Item is set for IdentityCollection fields.
	Item *TypePolicy
}

// Name returns the document name of the field.
func (fp *FieldPolicy) Name() string {
	return fp.Field.Name
}

// Resolver caches type policies.
type Resolver struct {
	mu    sync.RWMutex
	cache map[*schema.Type]*TypePolicy
}

func NewResolver() *Resolver {
	return &Resolver{cache: make(map[*schema.Type]*TypePolicy)}
}

// Resolve returns the policy of t, computing it on first use.
func (r *Resolver) Resolve(t *schema.Type) (*TypePolicy, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrInvalid)
	}
	r.mu.RLock()
	tp, ok := r.cache[t]
	r.mu.RUnlock()
	if ok {
		return tp, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if tp, ok := r.cache[t]; ok {
		return tp, nil
	}
	added := make(map[*schema.Type]*TypePolicy)
	tp, err := r.resolve(t, added)
	if err != nil {
		return nil, err
	}
	for k, v := range added {
		r.cache[k] = v
	}
	return tp, nil
}

// Len returns the number of resolved types.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// resolve must be called with the write lock held. Policies under
// construction are found in added, so types reaching themselves through
// collection items terminate.
func (r *Resolver) resolve(t *schema.Type, added map[*schema.Type]*TypePolicy) (*TypePolicy, error) {
	if tp, ok := r.cache[t]; ok {
		return tp, nil
	}
	if tp, ok := added[t]; ok {
		return tp, nil
	}
	tp := &TypePolicy{Type: t, Fields: make([]*FieldPolicy, 0, len(t.Fields))}
	added[t] = tp
	for _, f := range t.Fields {
		fp := &FieldPolicy{Field: f}
		switch {
		case f.Type != nil && f.Type.Delta:
			fp.Kind = Delta
			nested, err := r.resolve(f.Type, added)
			if err != nil {
				return nil, err
			}
			fp.Nested = nested
		case f.Policy == schema.Incremental:
			fp.Kind = Incremental
		case f.Policy == schema.SetCollection:
			fp.Kind = SetCollection
		case f.Policy == schema.IdentityCollection:
			fp.Kind = IdentityCollection
			if f.Item == nil || f.Item.Identity == "" {
				return nil, fmt.Errorf("%w: %s.%s: identity collection needs an item type with an identity", ErrInvalid, t.Name, f.Name)
			}
			item, err := r.resolve(f.Item, added)
			if err != nil {
				return nil, err
			}
			fp.Item = item
		default:
			fp.Kind = Replace
		}
		tp.Fields = append(tp.Fields, fp)
	}
	return tp, nil
}
