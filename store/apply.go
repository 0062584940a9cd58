package store

import (
	"errors"
	"fmt"

	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/ir/fpath"
	"github.com/signadot/docdelta/libdiff"
)

// Matches reports whether the identity field of doc equals id.
func Matches(doc *ir.Node, identity string, id *ir.Node) bool {
	v := ir.Get(doc, identity)
	return v != nil && ir.Equal(v, id)
}

// ApplyUpdate returns a copy of doc with the operations of cmd applied,
// following the semantics of the corresponding update operators: $set
// creates missing intermediate objects, $inc on a missing field sets
// it, $addToSet skips present values, $pull removes every match and
// $[name] applies the rest of a path to each array element matched by
// the named filter. doc is not modified.
func ApplyUpdate(doc *ir.Node, cmd *UpdateOne) (*ir.Node, error) {
	res := doc.Clone()
	for _, op := range cmd.Batch.Ops {
		fn, err := opFunc(op)
		if err != nil {
			return nil, err
		}
		res, err = applyAt(res, op.Path, cmd, fn)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op.Path, err)
		}
	}
	return res, nil
}

type leafFunc func(cur *ir.Node) (*ir.Node, error)

// applyAt returns node with fn applied at path. cur passed to fn is nil
// when the path does not exist.
func applyAt(node *ir.Node, path fpath.Path, cmd *UpdateOne, fn leafFunc) (*ir.Node, error) {
	if len(path) == 0 {
		return fn(node)
	}
	seg := path[0]
	if seg.Filter {
		if node == nil || node.Type != ir.ArrayType {
			return nil, fmt.Errorf("%w: %s on %s", ErrPath, seg, typeName(node))
		}
		f := cmd.Filter(seg.Name)
		if f == nil {
			return nil, fmt.Errorf("%w: no filter %s", ErrPath, seg.Name)
		}
		for i, elt := range node.Values {
			if !Matches(elt, f.Field, f.Value) {
				continue
			}
			v, err := applyAt(elt, path[1:], cmd, fn)
			if err != nil {
				return nil, err
			}
			node.Values[i] = v
		}
		return node, nil
	}
	obj := node
	if obj.IsNull() {
		obj = ir.FromKeyVals(nil)
	}
	if obj.Type != ir.ObjectType {
		return nil, fmt.Errorf("%w: field %s of %s", ErrPath, seg.Name, typeName(obj))
	}
	v, err := applyAt(ir.Get(obj, seg.Name), path[1:], cmd, fn)
	if err != nil {
		return nil, err
	}
	if v == nil {
		// nothing to write, e.g. $pull on a missing field
		return node, nil
	}
	ir.Set(obj, seg.Name, v)
	return obj, nil
}

func opFunc(op *libdiff.Op) (leafFunc, error) {
	switch op.Kind {
	case libdiff.Set:
		return func(*ir.Node) (*ir.Node, error) {
			return op.Value.Clone(), nil
		}, nil
	case libdiff.Increment:
		return func(cur *ir.Node) (*ir.Node, error) {
			if cur.IsNull() {
				return op.Value.Clone(), nil
			}
			res, err := ir.Add(cur, op.Value)
			if errors.Is(err, ir.ErrOverflow) && cur.NumberKind() == ir.Int32Number {
				// the server widens an overflowing int32 to int64
				return ir.FromInt(int64(*cur.Int32) + int64(*op.Value.Int32)), nil
			}
			return res, err
		}, nil
	case libdiff.SetAdd:
		return func(cur *ir.Node) (*ir.Node, error) {
			arr, err := array(cur)
			if err != nil {
				return nil, err
			}
			for _, v := range op.Values {
				if !contains(arr.Values, v) {
					arr.Values = append(arr.Values, v.Clone())
				}
			}
			return arr, nil
		}, nil
	case libdiff.CollectionAdd:
		return func(cur *ir.Node) (*ir.Node, error) {
			arr, err := array(cur)
			if err != nil {
				return nil, err
			}
			for _, v := range op.Values {
				arr.Values = append(arr.Values, v.Clone())
			}
			return arr, nil
		}, nil
	case libdiff.SetRemove:
		return func(cur *ir.Node) (*ir.Node, error) {
			return pull(cur, func(elt *ir.Node) bool {
				return contains(op.Values, elt)
			})
		}, nil
	case libdiff.CollectionRemove:
		return func(cur *ir.Node) (*ir.Node, error) {
			return pull(cur, func(elt *ir.Node) bool {
				id := ir.Get(elt, op.Identity)
				return id != nil && contains(op.Values, id)
			})
		}, nil
	}
	return nil, fmt.Errorf("unknown operation %s", op.Kind)
}

func array(cur *ir.Node) (*ir.Node, error) {
	if cur == nil {
		return ir.FromSlice(nil), nil
	}
	if cur.Type != ir.ArrayType {
		return nil, fmt.Errorf("%w: array operator on %s", ErrPath, cur.Type)
	}
	return cur, nil
}

func pull(cur *ir.Node, drop func(*ir.Node) bool) (*ir.Node, error) {
	if cur == nil {
		return nil, nil
	}
	arr, err := array(cur)
	if err != nil {
		return nil, err
	}
	kept := arr.Values[:0]
	for _, elt := range arr.Values {
		if !drop(elt) {
			kept = append(kept, elt)
		}
	}
	arr.Values = kept
	return arr, nil
}

func contains(vs []*ir.Node, v *ir.Node) bool {
	for _, x := range vs {
		if ir.Equal(x, v) {
			return true
		}
	}
	return false
}

func typeName(n *ir.Node) string {
	if n == nil {
		return "missing"
	}
	return n.Type.String()
}
