// Package dirty tracks which fields of an entity changed since it was
// loaded.
//
// A Tracker snapshots every declared field of an instance when it is
// created. Current values are read again on every query, so mutations of
// the instance, including replacing a nested object, are observed.
// Trackers for nested delta objects are created for fields holding a
// non-null value at capture time.
//
// Null transitions are decided before any per-field comparison:
//
//	original  current   dirty
//	null      null      no
//	value     null      yes
//	null      value     yes
//	value     value     per policy
//
// Per policy, delta fields are dirty if a nested member is dirty, set
// collections if the set difference is non-empty, identity collections
// if an item was added, removed or changed, and any other field if the
// values are not Equal.
package dirty
