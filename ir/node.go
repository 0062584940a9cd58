package ir

import (
	"maps"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Node struct {
	Type   Type
	Fields []*Node
	Values []*Node

	String  string
	Bool    bool
	Number  string
	Float64 *float64
	Int64   *int64
	Int32   *int32
}

func (y *Node) Clone() *Node {
	if y == nil {
		return nil
	}
	res := &Node{}
	return y.CloneTo(res)
}

func (y *Node) CloneTo(dst *Node) *Node {
	dst.Type = y.Type
	dst.Values = nil
	dst.Fields = nil
	if y.Values != nil {
		dst.Values = make([]*Node, len(y.Values))
		for i, yv := range y.Values {
			dst.Values[i] = yv.Clone()
		}
	}
	if y.Fields != nil {
		dst.Fields = make([]*Node, len(y.Fields))
		for i, yf := range y.Fields {
			dst.Fields[i] = yf.Clone()
		}
	}
	dst.String = y.String
	dst.Number = y.Number
	dst.Bool = y.Bool
	dst.Float64 = nil
	dst.Int64 = nil
	dst.Int32 = nil
	if y.Float64 != nil {
		f := *y.Float64
		dst.Float64 = &f
	}
	if y.Int64 != nil {
		i := *y.Int64
		dst.Int64 = &i
	}
	if y.Int32 != nil {
		i := *y.Int32
		dst.Int32 = &i
	}
	return dst
}

// IsNull reports whether y is absent or a null value.
func (y *Node) IsNull() bool {
	return y == nil || y.Type == NullType
}

// NumberKind returns the representation of a number node.
func (y *Node) NumberKind() NumberKind {
	if y == nil || y.Type != NumberType {
		return NotNumber
	}
	switch {
	case y.Int32 != nil:
		return Int32Number
	case y.Int64 != nil:
		return Int64Number
	case y.Float64 != nil:
		return DoubleNumber
	default:
		return DecimalNumber
	}
}

func FromString(v string) *Node {
	return &Node{Type: StringType, String: v}
}

func FromInt32(v int32) *Node {
	return &Node{
		Type:  NumberType,
		Int32: &v,
	}
}

func FromInt(v int64) *Node {
	return &Node{
		Type:  NumberType,
		Int64: &v,
	}
}

func FromFloat(f float64) *Node {
	return &Node{
		Type:    NumberType,
		Float64: &f,
	}
}

// FromDecimal returns a decimal number node. The text is stored in the
// canonical form produced by primitive.Decimal128.
func FromDecimal(d primitive.Decimal128) *Node {
	return &Node{
		Type:   NumberType,
		Number: d.String(),
	}
}

// ParseDecimal parses s as a decimal number node.
func ParseDecimal(s string) (*Node, error) {
	d, err := primitive.ParseDecimal128(s)
	if err != nil {
		return nil, err
	}
	return FromDecimal(d), nil
}

func FromBool(v bool) *Node {
	return &Node{
		Type: BoolType,
		Bool: v,
	}
}

func FromObjectID(id primitive.ObjectID) *Node {
	return &Node{
		Type:   ObjectIDType,
		String: id.Hex(),
	}
}

// FromTime returns a date time node with millisecond precision.
func FromTime(t time.Time) *Node {
	ms := t.UnixMilli()
	return &Node{
		Type:  DateTimeType,
		Int64: &ms,
	}
}

func ToMap(node *Node) map[string]*Node {
	if node.Type != ObjectType {
		return nil
	}
	res := make(map[string]*Node, len(node.Fields))
	for i := range node.Fields {
		res[node.Fields[i].String] = node.Values[i]
	}
	return res
}

func FromMap(yMap map[string]*Node) *Node {
	res := &Node{}
	res.Type = ObjectType
	res.Fields = make([]*Node, len(yMap))
	res.Values = make([]*Node, len(yMap))
	keys := slices.Sorted(maps.Keys(yMap))
	for i, key := range keys {
		res.Fields[i] = FromString(key)
		res.Values[i] = yMap[key]
	}
	return res
}

type KeyVal struct {
	Key string
	Val *Node
}

// FromKeyVals returns an object node preserving the order of kvs.
func FromKeyVals(kvs []KeyVal) *Node {
	res := &Node{
		Type:   ObjectType,
		Fields: make([]*Node, len(kvs)),
		Values: make([]*Node, len(kvs)),
	}
	for i := range kvs {
		val := kvs[i].Val
		if val == nil {
			val = Null()
		}
		res.Fields[i] = FromString(kvs[i].Key)
		res.Values[i] = val
	}
	return res
}

func FromSlice(ySlice []*Node) *Node {
	res := &Node{
		Type: ArrayType,
	}
	res.Values = make([]*Node, len(ySlice))
	copy(res.Values, ySlice)
	return res
}

// Get returns the value of field in the object y, or nil if y is
// not an object or has no such field.
func Get(y *Node, field string) *Node {
	if y == nil || y.Type != ObjectType {
		return nil
	}
	n := len(y.Fields)
	for i := range n {
		if y.Fields[i].String == field {
			return y.Values[i]
		}
	}
	return nil
}

// Set replaces or appends field in the object y.
func Set(y *Node, field string, v *Node) {
	for i := range y.Fields {
		if y.Fields[i].String == field {
			y.Values[i] = v
			return
		}
	}
	y.Fields = append(y.Fields, FromString(field))
	y.Values = append(y.Values, v)
}

func Null() *Node {
	return &Node{Type: NullType}
}
