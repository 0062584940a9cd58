// Package ir provides the document value tree used for change detection.
//
// # Overview
//
// Every entity snapshot is represented as a tree of *Node. The tree is a
// recursive tagged union: values are placed in fields depending on the
// node type. The tree carries no parent links, so subtrees may be shared
// between snapshots as long as neither is mutated. Snapshots taken by
// the dirty tracker are always clones.
//
// # Node Types
//
//   - NullType: null value
//   - BoolType: boolean
//   - NumberType: numeric value in one of four representations
//   - StringType: string value
//   - ObjectIDType: document store object id, hex encoded in String
//   - DateTimeType: milliseconds since the epoch in Int64
//   - ArrayType: ordered list of nodes
//   - ObjectType: ordered fields and values
//
// ## Objects
//
// For ObjectType nodes, Fields[i] is the name for the value at Values[i].
// Fields are string typed nodes. Field order is significant for
// comparison.
//
// ## Numbers
//
// Number values carry exactly one representation:
//   - Int32: 32-bit signed integer
//   - Int64: 64-bit signed integer
//   - Float64: 64-bit IEEE float
//   - Number: decimal text parseable as a 128-bit decimal
//
// NumberKind reports which one is in use. Representations are never
// coerced: Compare orders them by kind first and Sub fails with
// ErrIncompatibleNumber when operand kinds differ.
//
// # Comparison and Hashing
//
//	equal := ir.Equal(a, b)
//	key := node.Key()   // canonical encoding, equal iff Equal
//	h := node.Hash()    // xxhash of Key
//
// # BSON
//
// ToBSON and FromBSON convert between nodes and the values used by the
// mongo driver (bson.D, bson.A and driver primitives).
package ir
