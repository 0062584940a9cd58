package ir

import (
	"cmp"
	"math/big"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var null = &Node{Type: NullType}

// Compare returns an integer comparing two nodes.
// The result will be 0 if a==b, -1 if a < b, and +1 if a > b.
//
// A nil node compares as null. Numbers of different representations
// never compare equal, and objects compare their fields in order.
func Compare(a, b *Node) int {
	if a == b {
		return 0
	}
	if a == nil {
		a = null
	}
	if b == nil {
		b = null
	}

	rankA := rank(a.Type)
	rankB := rank(b.Type)
	if rankA != rankB {
		return cmp.Compare(rankA, rankB)
	}

	switch a.Type {
	case NumberType:
		return compareNumbers(a, b)
	case StringType, ObjectIDType:
		return strings.Compare(a.String, b.String)
	case DateTimeType:
		return cmp.Compare(*a.Int64, *b.Int64)
	case BoolType:
		if a.Bool == b.Bool {
			return 0
		}
		if !a.Bool {
			return -1
		}
		return 1
	case ArrayType:
		return compareArrays(a, b)
	case ObjectType:
		return compareObjects(a, b)
	case NullType:
		return 0
	}
	return 0
}

// Equal reports whether a and b are structurally equal.
func Equal(a, b *Node) bool {
	return Compare(a, b) == 0
}

// rank returns the sorting rank of a type.
// Order: Null < Bool < Number < String < ObjectID < DateTime < Array < Object
func rank(t Type) int {
	switch t {
	case NullType:
		return 1
	case BoolType:
		return 2
	case NumberType:
		return 3
	case StringType:
		return 4
	case ObjectIDType:
		return 5
	case DateTimeType:
		return 6
	case ArrayType:
		return 7
	case ObjectType:
		return 8
	}
	return 100
}

func compareNumbers(a, b *Node) int {
	// Sub-rank: Int32 < Int64 < Float64 < Decimal
	kindA := a.NumberKind()
	kindB := b.NumberKind()
	if kindA != kindB {
		return cmp.Compare(kindA, kindB)
	}

	switch kindA {
	case Int32Number:
		return cmp.Compare(*a.Int32, *b.Int32)
	case Int64Number:
		return cmp.Compare(*a.Int64, *b.Int64)
	case DoubleNumber:
		return cmp.Compare(*a.Float64, *b.Float64)
	}
	return compareDecimals(a.Number, b.Number)
}

func compareDecimals(a, b string) int {
	if a == b {
		return 0
	}
	da, errA := primitive.ParseDecimal128(a)
	db, errB := primitive.ParseDecimal128(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	ia, ea, errA := da.BigInt()
	ib, eb, errB := db.BigInt()
	if errA != nil || errB != nil {
		// NaN and infinities
		return strings.Compare(a, b)
	}
	ia, ib, _ = alignExp(ia, ea, ib, eb)
	return ia.Cmp(ib)
}

// alignExp scales the coefficient with the larger exponent so both share
// the smaller exponent, which is returned.
func alignExp(a *big.Int, ea int, b *big.Int, eb int) (*big.Int, *big.Int, int) {
	switch {
	case ea > eb:
		a = new(big.Int).Mul(a, pow10(ea-eb))
		return a, b, eb
	case eb > ea:
		b = new(big.Int).Mul(b, pow10(eb-ea))
		return a, b, ea
	}
	return a, b, ea
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

func compareArrays(a, b *Node) int {
	lenA := len(a.Values)
	lenB := len(b.Values)
	minLen := min(lenA, lenB)

	for i := 0; i < minLen; i++ {
		if c := Compare(a.Values[i], b.Values[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(lenA, lenB)
}

func compareObjects(a, b *Node) int {
	lenA := len(a.Fields)
	lenB := len(b.Fields)
	minLen := min(lenA, lenB)

	for i := 0; i < minLen; i++ {
		if c := strings.Compare(a.Fields[i].String, b.Fields[i].String); c != 0 {
			return c
		}
		if c := Compare(a.Values[i], b.Values[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(lenA, lenB)
}
