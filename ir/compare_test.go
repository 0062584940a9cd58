package ir

import (
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *Node
		expected int
	}{
		// Type Ranking: Null < Bool < Number < String < ObjectID < DateTime < Array < Object
		{"Null < Bool", Null(), FromBool(false), -1},
		{"Bool < Number", FromBool(true), FromInt(1), -1},
		{"Number < String", FromInt(1), FromString("a"), -1},
		{"String < ObjectID", FromString("z"), &Node{Type: ObjectIDType, String: "0a"}, -1},
		{"ObjectID < DateTime", &Node{Type: ObjectIDType, String: "0a"}, FromTime(time0), -1},
		{"DateTime < Array", FromTime(time0), FromSlice(nil), -1},
		{"Array < Object", FromSlice(nil), FromKeyVals(nil), -1},
		{"nil == Null", nil, Null(), 0},

		// Number Comparison: Int32 < Int64 < Float < Decimal
		{"Int32 < Int64", FromInt32(5), FromInt(5), -1},
		{"Int64 < Float", FromInt(1), FromFloat(1.0), -1},
		{"Float < Decimal", FromFloat(1.0), mustDecimal("1"), -1},
		{"Int32 < Int32", FromInt32(1), FromInt32(2), -1},
		{"Int < Int", FromInt(1), FromInt(2), -1},
		{"Float < Float", FromFloat(1.0), FromFloat(2.0), -1},
		{"Decimal < Decimal", mustDecimal("1.5"), mustDecimal("10"), -1},
		{"Decimal scale", mustDecimal("1.0"), mustDecimal("1.00"), 0},

		// Bool Comparison
		{"false < true", FromBool(false), FromBool(true), -1},
		{"true == true", FromBool(true), FromBool(true), 0},

		// Array Comparison
		{"Empty Array == Empty Array", FromSlice(nil), FromSlice(nil), 0},
		{"Short Array < Long Array", FromSlice([]*Node{FromInt(1)}), FromSlice([]*Node{FromInt(1), FromInt(2)}), -1},
		{"Array Element Comparison", FromSlice([]*Node{FromInt(1)}), FromSlice([]*Node{FromInt(2)}), -1},

		// Object Comparison
		{"Empty Object == Empty Object", FromKeyVals(nil), FromKeyVals(nil), 0},
		{"Short Object < Long Object",
			FromKeyVals([]KeyVal{{Key: "a", Val: FromInt(1)}}),
			FromKeyVals([]KeyVal{{Key: "a", Val: FromInt(1)}, {Key: "b", Val: FromInt(2)}}),
			-1},
		{"Object Key Comparison",
			FromKeyVals([]KeyVal{{Key: "a", Val: FromInt(1)}}),
			FromKeyVals([]KeyVal{{Key: "b", Val: FromInt(1)}}),
			-1},
		{"Object Value Comparison",
			FromKeyVals([]KeyVal{{Key: "a", Val: FromInt(1)}}),
			FromKeyVals([]KeyVal{{Key: "a", Val: FromInt(2)}}),
			-1},
		{"Object Field Order",
			FromKeyVals([]KeyVal{{Key: "a", Val: FromInt(1)}, {Key: "b", Val: FromInt(1)}}),
			FromKeyVals([]KeyVal{{Key: "b", Val: FromInt(1)}, {Key: "a", Val: FromInt(1)}}),
			-1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.expected {
				t.Errorf("Compare() = %v, want %v", got, tt.expected)
			}
			// Test symmetry
			if got := Compare(tt.b, tt.a); got != -tt.expected {
				t.Errorf("Compare(b, a) = %v, want %v", got, -tt.expected)
			}
		})
	}
}

func TestHashConsistentWithEqual(t *testing.T) {
	pairs := []struct {
		name string
		a, b *Node
	}{
		{"decimal scale", mustDecimal("2.50"), mustDecimal("2.5")},
		{"negative zero", FromFloat(0), FromFloat(negZero())},
		{"nil null", nil, Null()},
		{"nested", FromKeyVals([]KeyVal{{Key: "x", Val: FromSlice([]*Node{FromString("a")})}}),
			FromKeyVals([]KeyVal{{Key: "x", Val: FromSlice([]*Node{FromString("a")})}})},
	}
	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			if !Equal(p.a, p.b) {
				t.Fatalf("expected equal")
			}
			if p.a.Hash() != p.b.Hash() {
				t.Errorf("hash mismatch")
			}
			if p.a.Key() != p.b.Key() {
				t.Errorf("key mismatch")
			}
		})
	}
	if FromInt32(5).Key() == FromInt(5).Key() {
		t.Errorf("int32 and int64 keys must differ")
	}
	if FromString("ab").Key() == FromSlice([]*Node{FromString("a"), FromString("b")}).Key() {
		t.Errorf("string and array keys must differ")
	}
}

func TestClone(t *testing.T) {
	orig := FromKeyVals([]KeyVal{
		{Key: "n", Val: FromInt(1)},
		{Key: "tags", Val: FromSlice([]*Node{FromString("a")})},
	})
	c := orig.Clone()
	if !Equal(orig, c) {
		t.Fatalf("clone differs")
	}
	*Get(c, "n").Int64 = 2
	Get(c, "tags").Values[0].String = "b"
	if *Get(orig, "n").Int64 != 1 || Get(orig, "tags").Values[0].String != "a" {
		t.Errorf("clone shares state with original")
	}
}
