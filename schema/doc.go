// Package schema describes the document shape of tracked entity types.
//
// A Type lists the fields of an entity, the update policy declared for
// each field, the nested type of object fields and the item type of
// identity keyed collections. Types are registered in a Registry, which
// validates them and rejects nested delta types that refer to
// themselves.
//
// # Policies
//
//   - Replace: the field is written whole when it changes (the default)
//   - Incremental: numeric fields are written as an increment
//   - SetCollection: arrays written as item additions and removals
//   - IdentityCollection: arrays of objects matched by identity
//
// # Instances
//
// Field values are read from an instance either through the accessor
// functions of a Field (Go values, see package gomap) or, when the
// instance is an *ir.Node, directly from the document. Types loaded from
// YAML files carry no accessors and only work with documents.
//
// Example schema file:
//
//	types:
//	- name: Order
//	  delta: true
//	  identity: _id
//	  fields:
//	  - name: _id
//	  - name: total
//	    policy: inc
//	  - name: lines
//	    policy: keyed
//	    item: Line
//	- name: Line
//	  delta: true
//	  identity: sku
//	  fields:
//	  - name: sku
//	  - name: qty
//	    policy: inc
package schema
