package schema

import (
	"fmt"
	"slices"
	"sync"
)

// Registry holds validated types by name.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*Type)}
}

// Register validates and registers types together with every type they
// reference. Either all types are registered or none is.
func (r *Registry) Register(types ...*Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending := make(map[string]*Type)
	var order []*Type
	var add func(t *Type) error
	add = func(t *Type) error {
		if t == nil {
			return fmt.Errorf("%w: nil type", ErrInvalid)
		}
		if prev, ok := r.types[t.Name]; ok {
			if prev == t {
				return nil
			}
			return fmt.Errorf("%w: %q", ErrDuplicate, t.Name)
		}
		if prev, ok := pending[t.Name]; ok {
			if prev == t {
				return nil
			}
			return fmt.Errorf("%w: %q declared twice", ErrDuplicate, t.Name)
		}
		if err := validate(t); err != nil {
			return err
		}
		pending[t.Name] = t
		order = append(order, t)
		for _, f := range t.Fields {
			if f.Type != nil {
				if err := add(f.Type); err != nil {
					return err
				}
			}
			if f.Item != nil {
				if err := add(f.Item); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, t := range types {
		if err := add(t); err != nil {
			return err
		}
	}
	for _, t := range order {
		if err := checkDeltaCycle(t); err != nil {
			return err
		}
	}
	for _, t := range order {
		r.types[t.Name] = t
	}
	return nil
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (*Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return t, nil
}

// All returns the registered types sorted by name.
func (r *Registry) All() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*Type, 0, len(r.types))
	for _, t := range r.types {
		res = append(res, t)
	}
	slices.SortFunc(res, func(a, b *Type) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return res
}

func validate(t *Type) error {
	if t.Name == "" {
		return fmt.Errorf("%w: type must have a name", ErrInvalid)
	}
	seen := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if !validName(f.Name) {
			return fmt.Errorf("%w: %s: bad field name %q", ErrInvalid, t.Name, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: %s: field %q declared twice", ErrInvalid, t.Name, f.Name)
		}
		seen[f.Name] = true
		switch f.Policy {
		case Replace, Incremental, SetCollection:
		case IdentityCollection:
			if f.Item == nil {
				return fmt.Errorf("%w: %s.%s: identity collection without item type", ErrInvalid, t.Name, f.Name)
			}
			if f.Item.Identity == "" {
				return fmt.Errorf("%w: %s.%s: item type %s has no identity", ErrInvalid, t.Name, f.Name, f.Item.Name)
			}
		default:
			return fmt.Errorf("%w: %s.%s: unknown policy %d", ErrInvalid, t.Name, f.Name, int(f.Policy))
		}
	}
	if t.Identity != "" && !seen[t.Identity] {
		return fmt.Errorf("%w: %s: identity field %q not declared", ErrInvalid, t.Name, t.Identity)
	}
	return nil
}

// checkDeltaCycle follows nested delta object fields from t and fails if
// it reaches a type already on the path.
func checkDeltaCycle(t *Type) error {
	onPath := make(map[*Type]bool)
	done := make(map[*Type]bool)
	var path []string
	var visit func(t *Type) error
	visit = func(t *Type) error {
		if onPath[t] {
			return fmt.Errorf("%w: %v", ErrCycle, append(path, t.Name))
		}
		if done[t] {
			return nil
		}
		onPath[t] = true
		path = append(path, t.Name)
		for _, f := range t.Fields {
			if f.Type != nil && f.Type.Delta {
				if err := visit(f.Type); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		onPath[t] = false
		done[t] = true
		return nil
	}
	if !t.Delta {
		return nil
	}
	return visit(t)
}
