package ir

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sub returns cur - orig computed in the representation shared by both
// operands. Operands of different representations yield
// ErrIncompatibleNumber; nothing is coerced.
func Sub(cur, orig *Node) (*Node, error) {
	return arith(cur, orig, -1)
}

// Add returns a + b computed in the representation shared by both
// operands.
func Add(a, b *Node) (*Node, error) {
	return arith(a, b, 1)
}

func arith(a, b *Node, sign int) (*Node, error) {
	ka, kb := a.NumberKind(), b.NumberKind()
	if ka == NotNumber || kb == NotNumber {
		return nil, fmt.Errorf("%w: %s and %s", ErrNotNumber, typeOf(a), typeOf(b))
	}
	if ka != kb {
		return nil, fmt.Errorf("%w: %s and %s", ErrIncompatibleNumber, ka, kb)
	}
	switch ka {
	case Int32Number:
		r := int64(*a.Int32) + int64(sign)*int64(*b.Int32)
		if r < math.MinInt32 || r > math.MaxInt32 {
			return nil, fmt.Errorf("%w: int32 %d %s %d", ErrOverflow, *a.Int32, signText(sign), *b.Int32)
		}
		return FromInt32(int32(r)), nil
	case Int64Number:
		x, y := *a.Int64, *b.Int64
		r := x + y
		over := (y > 0 && r < x) || (y < 0 && r > x)
		if sign < 0 {
			r = x - y
			over = (y > 0 && r > x) || (y < 0 && r < x)
		}
		if over {
			return nil, fmt.Errorf("%w: int64 %d %s %d", ErrOverflow, x, signText(sign), y)
		}
		return FromInt(r), nil
	case DoubleNumber:
		if sign < 0 {
			return FromFloat(*a.Float64 - *b.Float64), nil
		}
		return FromFloat(*a.Float64 + *b.Float64), nil
	}
	return decimalArith(a.Number, b.Number, sign)
}

func signText(sign int) string {
	if sign < 0 {
		return "-"
	}
	return "+"
}

func decimalArith(a, b string, sign int) (*Node, error) {
	ia, ea, err := decimalParts(a)
	if err != nil {
		return nil, err
	}
	ib, eb, err := decimalParts(b)
	if err != nil {
		return nil, err
	}
	ia, ib, exp := alignExp(ia, ea, ib, eb)
	res := new(big.Int)
	if sign < 0 {
		res.Sub(ia, ib)
	} else {
		res.Add(ia, ib)
	}
	d, ok := primitive.ParseDecimal128FromBigInt(res, exp)
	if !ok {
		return nil, fmt.Errorf("decimal result out of range: %sE%d", res, exp)
	}
	return FromDecimal(d), nil
}

func decimalParts(s string) (*big.Int, int, error) {
	d, err := primitive.ParseDecimal128(s)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	bi, exp, err := d.BigInt()
	if err != nil {
		return nil, 0, fmt.Errorf("decimal %q: %w", s, err)
	}
	return bi, exp, nil
}

// normDecimal returns a representation of s in which numerically equal
// decimals are identical.
func normDecimal(s string) string {
	bi, exp, err := decimalParts(s)
	if err != nil {
		return s
	}
	if bi.Sign() == 0 {
		return "0"
	}
	ten := big.NewInt(10)
	q, r := new(big.Int), new(big.Int)
	for {
		q.QuoRem(bi, ten, r)
		if r.Sign() != 0 {
			break
		}
		bi = new(big.Int).Set(q)
		exp++
	}
	return bi.String() + "E" + strconv.Itoa(exp)
}

func typeOf(y *Node) string {
	if y == nil {
		return "<nil>"
	}
	return y.Type.String()
}
