package dirty

import (
	"fmt"

	"github.com/signadot/docdelta/debug"
	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/policy"
	"github.com/signadot/docdelta/schema"
)

// Tracker is the dirty tracker of one object.
type Tracker struct {
	policy   *policy.TypePolicy
	current  func() any
	original *ir.Node
	members  []*Member
}

// Member tracks a single field.
type Member struct {
	parent   *Tracker
	policy   *policy.FieldPolicy
	original *ir.Node
	nested   *Tracker
}

// New resolves the policy of t and returns a tracker baselined at the
// current state of instance. Instance should be a pointer to a struct
// described by t, or an *ir.Node document; it is read again on every
// query.
func New(r *policy.Resolver, t *schema.Type, instance any) (*Tracker, error) {
	tp, err := r.Resolve(t)
	if err != nil {
		return nil, err
	}
	tr, err := newTracker(tp, instance, func() any { return instance })
	if err != nil {
		return nil, err
	}
	if debug.Track() {
		debug.Logf("track %s: %v", t.Name, tr.original)
	}
	return tr, nil
}

// FromDocuments returns a tracker comparing two document snapshots.
func FromDocuments(tp *policy.TypePolicy, original, current *ir.Node) (*Tracker, error) {
	return newTracker(tp, original, func() any { return current })
}

func newTracker(tp *policy.TypePolicy, original any, current func() any) (*Tracker, error) {
	orig, err := tp.Type.Document(original)
	if err != nil {
		return nil, err
	}
	t := &Tracker{
		policy:   tp,
		current:  current,
		original: orig,
		members:  make([]*Member, 0, len(tp.Fields)),
	}
	for _, fp := range tp.Fields {
		m := &Member{parent: t, policy: fp}
		m.original, err = fp.Field.Value(original)
		if err != nil {
			return nil, err
		}
		if fp.Kind == policy.Delta && !m.original.IsNull() {
			if m.original.Type != ir.ObjectType {
				return nil, fmt.Errorf("%w: %s.%s is %s, not an object", ErrShape, tp.Type.Name, fp.Name(), m.original.Type)
			}
			field := fp.Field
			m.nested, err = newTracker(fp.Nested, field.Raw(original), func() any {
				return field.Raw(t.current())
			})
			if err != nil {
				return nil, err
			}
		}
		t.members = append(t.members, m)
	}
	return t, nil
}

// Policy returns the resolved policy of the tracked type.
func (t *Tracker) Policy() *policy.TypePolicy {
	return t.policy
}

// Instance returns the tracked instance as currently reachable.
func (t *Tracker) Instance() any {
	return t.current()
}

// Members returns the field trackers in declaration order.
func (t *Tracker) Members() []*Member {
	return t.members
}

// Original returns the whole document captured at creation.
func (t *Tracker) Original() *ir.Node {
	return t.original
}

// Document returns a snapshot of the whole current document.
func (t *Tracker) Document() (*ir.Node, error) {
	return t.policy.Type.Document(t.current())
}

// IsDirty reports whether the tracked object differs from its original
// snapshot. Non delta types are compared as whole documents.
func (t *Tracker) IsDirty() (bool, error) {
	if !t.policy.Delta() {
		cur, err := t.Document()
		if err != nil {
			return false, err
		}
		return !ir.Equal(t.original, cur), nil
	}
	for _, m := range t.members {
		dirty, err := m.IsDirty()
		if err != nil || dirty {
			return dirty, err
		}
	}
	return false, nil
}

func (m *Member) Name() string {
	return m.policy.Name()
}

func (m *Member) Policy() *policy.FieldPolicy {
	return m.policy
}

// Original returns the value captured at creation. It is never nil.
func (m *Member) Original() *ir.Node {
	return m.original
}

// Current returns a snapshot of the current value. It is never nil.
func (m *Member) Current() (*ir.Node, error) {
	return m.policy.Field.Value(m.parent.current())
}

// Nested returns the tracker of a delta field which held an object at
// capture time, or nil.
func (m *Member) Nested() *Tracker {
	return m.nested
}

// IsDirty reports whether the field changed.
func (m *Member) IsDirty() (bool, error) {
	cur, err := m.Current()
	if err != nil {
		return false, err
	}
	dirty, err := m.isDirty(cur)
	if err == nil && dirty && debug.Track() {
		debug.Logf("dirty %s: %v -> %v", m.Name(), m.original, cur)
	}
	return dirty, err
}

func (m *Member) isDirty(cur *ir.Node) (bool, error) {
	switch {
	case m.original.IsNull() && cur.IsNull():
		return false, nil
	case m.original.IsNull() || cur.IsNull():
		return true, nil
	}
	switch m.policy.Kind {
	case policy.Delta:
		if cur.Type != ir.ObjectType {
			return false, fmt.Errorf("%w: %s is %s, not an object", ErrShape, m.Name(), cur.Type)
		}
		return m.nested.IsDirty()
	case policy.SetCollection:
		added, removed, err := SetDiff(m.original, cur)
		if err != nil {
			return false, err
		}
		return len(added) != 0 || len(removed) != 0, nil
	case policy.IdentityCollection:
		kd, err := Keyed(m.policy.Item, m.original, cur)
		if err != nil {
			return false, err
		}
		if len(kd.Added) != 0 || len(kd.Removed) != 0 {
			return true, nil
		}
		for _, p := range kd.Kept {
			dirty, err := p.IsDirty()
			if err != nil || dirty {
				return dirty, err
			}
		}
		return false, nil
	}
	return !ir.Equal(m.original, cur), nil
}
