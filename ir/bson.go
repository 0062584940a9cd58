package ir

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToBSON converts y to the value the mongo driver marshals for it:
// bson.D for objects, bson.A for arrays and driver primitives for
// scalars.
func ToBSON(y *Node) (any, error) {
	if y == nil {
		return nil, nil
	}
	switch y.Type {
	case NullType:
		return nil, nil
	case BoolType:
		return y.Bool, nil
	case StringType:
		return y.String, nil
	case NumberType:
		switch y.NumberKind() {
		case Int32Number:
			return *y.Int32, nil
		case Int64Number:
			return *y.Int64, nil
		case DoubleNumber:
			return *y.Float64, nil
		}
		d, err := primitive.ParseDecimal128(y.Number)
		if err != nil {
			return nil, fmt.Errorf("invalid decimal %q: %w", y.Number, err)
		}
		return d, nil
	case ObjectIDType:
		id, err := primitive.ObjectIDFromHex(y.String)
		if err != nil {
			return nil, fmt.Errorf("invalid object id %q: %w", y.String, err)
		}
		return id, nil
	case DateTimeType:
		return primitive.DateTime(*y.Int64), nil
	case ArrayType:
		res := make(bson.A, len(y.Values))
		for i, v := range y.Values {
			bv, err := ToBSON(v)
			if err != nil {
				return nil, err
			}
			res[i] = bv
		}
		return res, nil
	case ObjectType:
		res := make(bson.D, len(y.Fields))
		for i, f := range y.Fields {
			bv, err := ToBSON(y.Values[i])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.String, err)
			}
			res[i] = bson.E{Key: f.String, Value: bv}
		}
		return res, nil
	}
	return nil, fmt.Errorf("%w: ir type %s", ErrUnsupportedBSON, y.Type)
}

// FromBSON converts a value produced by the mongo driver, or built with
// the bson package, into a node.
func FromBSON(v any) (*Node, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case *Node:
		return x.Clone(), nil
	case bool:
		return FromBool(x), nil
	case string:
		return FromString(x), nil
	case int32:
		return FromInt32(x), nil
	case int64:
		return FromInt(x), nil
	case int:
		return FromInt(int64(x)), nil
	case float64:
		return FromFloat(x), nil
	case primitive.Decimal128:
		return FromDecimal(x), nil
	case primitive.ObjectID:
		return FromObjectID(x), nil
	case primitive.DateTime:
		ms := int64(x)
		return &Node{Type: DateTimeType, Int64: &ms}, nil
	case time.Time:
		return FromTime(x), nil
	case primitive.Null:
		return Null(), nil
	case bson.A:
		return fromBSONSlice(x)
	case []any:
		return fromBSONSlice(x)
	case bson.D:
		kvs := make([]KeyVal, len(x))
		for i, e := range x {
			n, err := FromBSON(e.Value)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", e.Key, err)
			}
			kvs[i] = KeyVal{Key: e.Key, Val: n}
		}
		return FromKeyVals(kvs), nil
	case bson.M:
		return fromBSONMap(x)
	case map[string]any:
		return fromBSONMap(x)
	case bson.Raw:
		var d bson.D
		if err := bson.Unmarshal(x, &d); err != nil {
			return nil, err
		}
		return FromBSON(d)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedBSON, v)
}

func fromBSONSlice(x []any) (*Node, error) {
	vals := make([]*Node, len(x))
	for i, e := range x {
		n, err := FromBSON(e)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		vals[i] = n
	}
	return FromSlice(vals), nil
}

func fromBSONMap(x map[string]any) (*Node, error) {
	m := make(map[string]*Node, len(x))
	for k, e := range x {
		n, err := FromBSON(e)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		m[k] = n
	}
	return FromMap(m), nil
}
