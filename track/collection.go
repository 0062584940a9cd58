// Package track manages the lifecycle of the entities of one unit of
// work.
//
// An entity is tracked by pointer identity in one of three states:
//
//	New       added by the caller, inserted on persist
//	Existing  loaded from storage, updated on persist if dirty
//	Removed   existing entity marked for deletion
//
// Removing a New entity forgets it. Adding a Removed entity makes it
// Existing again with its original tracker, so it is compared against
// the snapshot taken when it was first tracked.
package track

import (
	"errors"
	"fmt"

	"github.com/signadot/docdelta/debug"
	"github.com/signadot/docdelta/dirty"
	"github.com/signadot/docdelta/policy"
	"github.com/signadot/docdelta/schema"
)

var (
	ErrNullEntity        = errors.New("nil entity")
	ErrDuplicateTracking = errors.New("entity already tracked")
	ErrNotTracked        = errors.New("entity not tracked")
	ErrNoIdentity        = errors.New("entity has no identity")
)

type State int

const (
	New State = iota
	Existing
	Removed
)

func (s State) String() string {
	switch s {
	case New:
		return "new"
	case Existing:
		return "existing"
	case Removed:
		return "removed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Entry is a tracked entity.
type Entry[T any] struct {
	entity  *T
	state   State
	tracker *dirty.Tracker
}

func (e *Entry[T]) Entity() *T {
	return e.entity
}

func (e *Entry[T]) State() State {
	return e.state
}

// Tracker returns the dirty tracker of an Existing or Removed entity,
// nil for New ones.
func (e *Entry[T]) Tracker() *dirty.Tracker {
	return e.tracker
}

// Collection tracks entities of one schema type, in the order they were
// first tracked. It is not safe for concurrent use.
type Collection[T any] struct {
	resolver *policy.Resolver
	typ      *schema.Type
	entries  []*Entry[T]
	index    map[*T]*Entry[T]
}

// NewCollection returns an empty collection of entities described by
// typ. Entities are *T values, where T is the struct typ was described
// from or ir.Node for plain documents.
func NewCollection[T any](r *policy.Resolver, typ *schema.Type) *Collection[T] {
	return &Collection[T]{
		resolver: r,
		typ:      typ,
		index:    map[*T]*Entry[T]{},
	}
}

func (c *Collection[T]) Type() *schema.Type {
	return c.typ
}

func (c *Collection[T]) Resolver() *policy.Resolver {
	return c.resolver
}

// Add tracks entity as New, or moves a Removed entity back to Existing.
func (c *Collection[T]) Add(entity *T) error {
	if entity == nil {
		return ErrNullEntity
	}
	if e, ok := c.index[entity]; ok {
		if e.state != Removed {
			return fmt.Errorf("%w: %s %s", ErrDuplicateTracking, c.typ.Name, e.state)
		}
		c.transition(e, Existing)
		return nil
	}
	c.insert(&Entry[T]{entity: entity, state: New})
	return nil
}

// TrackExisting tracks entity as Existing, baselined at its current
// value.
func (c *Collection[T]) TrackExisting(entity *T) error {
	if entity == nil {
		return ErrNullEntity
	}
	if e, ok := c.index[entity]; ok {
		return fmt.Errorf("%w: %s %s", ErrDuplicateTracking, c.typ.Name, e.state)
	}
	tr, err := dirty.New(c.resolver, c.typ, entity)
	if err != nil {
		return err
	}
	c.insert(&Entry[T]{entity: entity, state: Existing, tracker: tr})
	return nil
}

// Remove forgets a New entity and marks other entities Removed.
func (c *Collection[T]) Remove(entity *T) error {
	if entity == nil {
		return ErrNullEntity
	}
	e, ok := c.index[entity]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotTracked, c.typ.Name)
	}
	switch e.state {
	case New:
		c.drop(e)
	case Existing:
		c.transition(e, Removed)
	}
	return nil
}

// Get returns the entry of entity, or nil if it is not tracked.
func (c *Collection[T]) Get(entity *T) *Entry[T] {
	return c.index[entity]
}

// OfState returns the entries in state s, in tracking order.
func (c *Collection[T]) OfState(s State) []*Entry[T] {
	var res []*Entry[T]
	for _, e := range c.entries {
		if e.state == s {
			res = append(res, e)
		}
	}
	return res
}

// Len returns the number of tracked entities.
func (c *Collection[T]) Len() int {
	return len(c.entries)
}

func (c *Collection[T]) insert(e *Entry[T]) {
	c.entries = append(c.entries, e)
	c.index[e.entity] = e
	if debug.Track() {
		debug.Logf("track %s: %s #%d", c.typ.Name, e.state, len(c.entries))
	}
}

func (c *Collection[T]) transition(e *Entry[T], s State) {
	if debug.Track() {
		debug.Logf("track %s: %s -> %s", c.typ.Name, e.state, s)
	}
	e.state = s
}

func (c *Collection[T]) drop(e *Entry[T]) {
	delete(c.index, e.entity)
	for i, x := range c.entries {
		if x == e {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			break
		}
	}
	if debug.Track() {
		debug.Logf("track %s: dropped new entity", c.typ.Name)
	}
}
