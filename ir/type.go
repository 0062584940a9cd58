package ir

import "fmt"

type Type int

const (
	NullType Type = iota
	NumberType
	StringType
	BoolType
	ObjectType
	ArrayType
	ObjectIDType
	DateTimeType
)

func (t Type) String() string {
	s, ok := map[Type]string{
		ObjectType:   "Object",
		ArrayType:    "Array",
		StringType:   "String",
		NumberType:   "Number",
		BoolType:     "Bool",
		NullType:     "Null",
		ObjectIDType: "ObjectID",
		DateTimeType: "DateTime",
	}[t]
	if ok {
		return s
	}
	return "<unknown type>"
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(d []byte) error {
	tt, ok := map[string]Type{
		"Null":     NullType,
		"Bool":     BoolType,
		"Number":   NumberType,
		"String":   StringType,
		"Array":    ArrayType,
		"Object":   ObjectType,
		"ObjectID": ObjectIDType,
		"DateTime": DateTimeType,
	}[string(d)]
	if !ok {
		return fmt.Errorf("unrecognized type %q", d)
	}
	*t = tt
	return nil
}

func Types() []Type {
	return []Type{
		NullType,
		NumberType,
		StringType,
		BoolType,
		ObjectType,
		ArrayType,
		ObjectIDType,
		DateTimeType,
	}
}

func (t Type) IsLeaf() bool {
	switch t {
	case ObjectType, ArrayType:
		return false
	default:
		return true
	}
}

// NumberKind is the underlying representation of a NumberType node.
type NumberKind int

const (
	NotNumber NumberKind = iota
	Int32Number
	Int64Number
	DoubleNumber
	DecimalNumber
)

func (k NumberKind) String() string {
	switch k {
	case Int32Number:
		return "int32"
	case Int64Number:
		return "int64"
	case DoubleNumber:
		return "double"
	case DecimalNumber:
		return "decimal"
	default:
		return "not-a-number"
	}
}
