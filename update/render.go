package update

import (
	"errors"
	"fmt"

	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/libdiff"
	"go.mongodb.org/mongo-driver/bson"
)

var ErrUnboundFilter = errors.New("array filter placeholder without filter")

// operators in rendering order
var operators = []string{"$set", "$inc", "$addToSet", "$push", "$pull"}

// Document renders a batch as an update document such as
//
//	{"$set": {"name": "x"}, "$inc": {"lines.$[af1].qty": 2}}
func Document(b *Batch) (bson.D, error) {
	byOp := make(map[string]bson.D, len(operators))
	for _, op := range b.Ops {
		name, val, err := render(op)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op.Path, err)
		}
		byOp[name] = append(byOp[name], bson.E{Key: op.Path.String(), Value: val})
	}
	res := make(bson.D, 0, len(byOp))
	for _, name := range operators {
		if fields, ok := byOp[name]; ok {
			res = append(res, bson.E{Key: name, Value: fields})
		}
	}
	return res, nil
}

func render(op *libdiff.Op) (string, any, error) {
	switch op.Kind {
	case libdiff.Set:
		v, err := ir.ToBSON(op.Value)
		return "$set", v, err
	case libdiff.Increment:
		v, err := ir.ToBSON(op.Value)
		return "$inc", v, err
	case libdiff.SetAdd:
		vs, err := values(op.Values)
		return "$addToSet", bson.D{{Key: "$each", Value: vs}}, err
	case libdiff.SetRemove:
		vs, err := values(op.Values)
		return "$pull", bson.D{{Key: "$in", Value: vs}}, err
	case libdiff.CollectionAdd:
		vs, err := values(op.Values)
		return "$push", bson.D{{Key: "$each", Value: vs}}, err
	case libdiff.CollectionRemove:
		vs, err := values(op.Values)
		return "$pull", bson.D{{Key: op.Identity, Value: bson.D{{Key: "$in", Value: vs}}}}, err
	}
	return "", nil, fmt.Errorf("unknown operation %s", op.Kind)
}

func values(ns []*ir.Node) (bson.A, error) {
	res := make(bson.A, len(ns))
	for i, n := range ns {
		v, err := ir.ToBSON(n)
		if err != nil {
			return nil, err
		}
		res[i] = v
	}
	return res, nil
}

// ArrayFilters returns the array filter documents of the placeholders
// used by the batch, in batch order. Filters not used by the batch are
// left out, as the server rejects unused filters.
func ArrayFilters(b *Batch, filters []*libdiff.Filter) ([]any, error) {
	if len(b.Filters) == 0 {
		return nil, nil
	}
	res := make([]any, 0, len(b.Filters))
	for _, name := range b.Filters {
		var f *libdiff.Filter
		for _, cand := range filters {
			if cand.Name == name {
				f = cand
				break
			}
		}
		if f == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnboundFilter, name)
		}
		v, err := ir.ToBSON(f.Value)
		if err != nil {
			return nil, err
		}
		res = append(res, bson.D{{Key: f.Key(), Value: v}})
	}
	return res, nil
}
