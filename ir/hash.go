package ir

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Hash returns a 64-bit hash of the node. Nodes which are Equal have
// the same hash.
func (n *Node) Hash() uint64 {
	buf := bytes.NewBuffer(nil)
	writeCanonical(buf, n)
	return xxhash.Sum64(buf.Bytes())
}

// Key returns a canonical string encoding of n. Two nodes have the same
// key if and only if they are Equal.
func (n *Node) Key() string {
	buf := bytes.NewBuffer(nil)
	writeCanonical(buf, n)
	return buf.String()
}

func writeCanonical(buf *bytes.Buffer, n *Node) {
	var b [8]byte
	if n == nil {
		n = null
	}
	buf.WriteByte(byte(n.Type))

	switch n.Type {
	case NullType:
	case BoolType:
		if n.Bool {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case NumberType:
		kind := n.NumberKind()
		buf.WriteByte(byte(kind))
		switch kind {
		case Int32Number:
			binary.LittleEndian.PutUint32(b[:4], uint32(*n.Int32))
			buf.Write(b[:4])
		case Int64Number:
			binary.LittleEndian.PutUint64(b[:], uint64(*n.Int64))
			buf.Write(b[:])
		case DoubleNumber:
			f := *n.Float64
			switch {
			case f == 0:
				f = 0
			case math.IsNaN(f):
				f = math.NaN()
			}
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
			buf.Write(b[:])
		default:
			writeString(buf, normDecimal(n.Number))
		}
	case StringType, ObjectIDType:
		writeString(buf, n.String)
	case DateTimeType:
		binary.LittleEndian.PutUint64(b[:], uint64(*n.Int64))
		buf.Write(b[:])
	case ArrayType:
		binary.LittleEndian.PutUint64(b[:], uint64(len(n.Values)))
		buf.Write(b[:])
		for _, v := range n.Values {
			writeCanonical(buf, v)
		}
	case ObjectType:
		binary.LittleEndian.PutUint64(b[:], uint64(len(n.Fields)))
		buf.Write(b[:])
		for i, field := range n.Fields {
			writeString(buf, field.String)
			writeCanonical(buf, n.Values[i])
		}
	}
}

func writeString(buf *bytes.Buffer, s string) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(len(s)))
	buf.Write(b[:])
	buf.WriteString(s)
}
