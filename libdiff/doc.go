// Package libdiff computes patches from dirty trackers.
//
// # Usage
//
//	tr, err := dirty.New(resolver, orderType, order)
//	...mutate order...
//	patch, err := libdiff.Build(tr)
//	if patch.Replace {
//		// write patch.Replacement whole
//	}
//	for _, op := range patch.Ops {
//		...
//	}
//
// A patch of a delta type is a flat list of operations on field paths.
// Items of identity collections are addressed with array filter
// placeholders, and the predicate bound to each placeholder is listed in
// Patch.Filters. A patch of a non delta type is either empty or a whole
// document replacement.
//
// Building a patch performs no I/O and does not modify the tracker.
//
// # Related Packages
//
//   - github.com/signadot/docdelta/dirty - change detection
//   - github.com/signadot/docdelta/update - splitting operations into update documents
package libdiff
