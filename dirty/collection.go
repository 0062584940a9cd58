package dirty

import (
	"fmt"

	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/policy"
)

// SetDiff compares two arrays as sets of values. Added holds the values
// of cur missing from orig, in the order of cur; removed holds the values
// of orig missing from cur, in the order of orig. Both are deduplicated.
func SetDiff(orig, cur *ir.Node) (added, removed []*ir.Node, err error) {
	if err := checkArray(orig); err != nil {
		return nil, nil, err
	}
	if err := checkArray(cur); err != nil {
		return nil, nil, err
	}
	return difference(cur, orig), difference(orig, cur), nil
}

// difference returns the distinct values of a not in b.
func difference(a, b *ir.Node) []*ir.Node {
	inB := make(map[string]bool, len(b.Values))
	for _, v := range b.Values {
		inB[v.Key()] = true
	}
	var res []*ir.Node
	seen := make(map[string]bool)
	for _, v := range a.Values {
		k := v.Key()
		if inB[k] || seen[k] {
			continue
		}
		seen[k] = true
		res = append(res, v)
	}
	return res
}

func checkArray(n *ir.Node) error {
	if n.Type != ir.ArrayType {
		return fmt.Errorf("%w: expected array, got %s", ErrShape, n.Type)
	}
	return nil
}

// KeyedDiff is the comparison of two identity collection snapshots.
type KeyedDiff struct {
	// Added holds the items of the current snapshot whose identity is
	// not in the original one.
	Added []*ir.Node
	// Removed holds the identity values of the original items missing
	// from the current snapshot.
	Removed []*ir.Node
	// Kept pairs the items present in both, in original order.
	Kept []*Pair
}

// Pair is an item present in both snapshots of an identity collection.
type Pair struct {
	Item     *policy.TypePolicy
	Identity *ir.Node
	Original *ir.Node
	Current  *ir.Node
}

// Tracker returns a tracker comparing the two item snapshots.
func (p *Pair) Tracker() (*Tracker, error) {
	return FromDocuments(p.Item, p.Original, p.Current)
}

// IsDirty reports whether the item changed. Items of non delta types are
// compared whole.
func (p *Pair) IsDirty() (bool, error) {
	if !p.Item.Delta() {
		return !ir.Equal(p.Original, p.Current), nil
	}
	t, err := p.Tracker()
	if err != nil {
		return false, err
	}
	return t.IsDirty()
}

// Keyed matches the items of two identity collection snapshots by the
// identity field of the item type.
func Keyed(item *policy.TypePolicy, orig, cur *ir.Node) (*KeyedDiff, error) {
	if err := checkArray(orig); err != nil {
		return nil, err
	}
	if err := checkArray(cur); err != nil {
		return nil, err
	}
	idField := item.Type.Identity
	origKeys, err := itemKeys(idField, orig)
	if err != nil {
		return nil, fmt.Errorf("original: %w", err)
	}
	curKeys, err := itemKeys(idField, cur)
	if err != nil {
		return nil, fmt.Errorf("current: %w", err)
	}
	curByKey := make(map[string]int, len(curKeys))
	for i, k := range curKeys {
		curByKey[k] = i
	}
	origByKey := make(map[string]bool, len(origKeys))
	res := &KeyedDiff{}
	for i, k := range origKeys {
		origByKey[k] = true
		o := orig.Values[i]
		j, ok := curByKey[k]
		if !ok {
			res.Removed = append(res.Removed, ir.Get(o, idField))
			continue
		}
		res.Kept = append(res.Kept, &Pair{
			Item:     item,
			Identity: ir.Get(o, idField),
			Original: o,
			Current:  cur.Values[j],
		})
	}
	for j, k := range curKeys {
		if !origByKey[k] {
			res.Added = append(res.Added, cur.Values[j])
		}
	}
	return res, nil
}

func itemKeys(idField string, arr *ir.Node) ([]string, error) {
	keys := make([]string, len(arr.Values))
	seen := make(map[string]bool, len(arr.Values))
	for i, v := range arr.Values {
		if v == nil || v.Type != ir.ObjectType {
			return nil, fmt.Errorf("%w: item %d is %s, not an object", ErrShape, i, typeName(v))
		}
		id := ir.Get(v, idField)
		if id.IsNull() {
			return nil, fmt.Errorf("%w: item %d has no %q", ErrIdentity, i, idField)
		}
		k := id.Key()
		if seen[k] {
			return nil, fmt.Errorf("%w: duplicate %q in item %d", ErrIdentity, idField, i)
		}
		seen[k] = true
		keys[i] = k
	}
	return keys, nil
}

func typeName(n *ir.Node) string {
	if n == nil {
		return "nil"
	}
	return n.Type.String()
}
