// Package update groups patch operations into atomic update commands
// and renders them as MongoDB update documents.
package update

import (
	"github.com/signadot/docdelta/debug"
	"github.com/signadot/docdelta/ir/fpath"
	"github.com/signadot/docdelta/libdiff"
)

// Batch is a set of operations with pairwise non-conflicting paths,
// sent as one update statement.
type Batch struct {
	Ops []*libdiff.Op
	// Filters lists the array filter placeholders used by Ops, in order
	// of first use.
	Filters []string
}

// Split assigns every operation to the first batch holding no
// operation with a conflicting path, starting a new batch when there is
// none. The number of batches is not minimal for every input order.
func Split(ops []*libdiff.Op) []*Batch {
	var batches []*Batch
	for _, op := range ops {
		var i int
		batches, i = place(batches, op)
		if debug.Split() {
			debug.Logf("split: %s -> batch %d", op, i+1)
		}
	}
	return batches
}

// place adds op to the first batch it does not conflict with and
// returns the index of that batch.
func place(batches []*Batch, op *libdiff.Op) ([]*Batch, int) {
	for i, b := range batches {
		if !b.conflicts(op) {
			b.add(op)
			return batches, i
		}
	}
	b := &Batch{}
	b.add(op)
	return append(batches, b), len(batches)
}

func (b *Batch) conflicts(op *libdiff.Op) bool {
	for _, other := range b.Ops {
		if fpath.Conflicts(other.Path, op.Path) {
			return true
		}
	}
	return false
}

func (b *Batch) add(op *libdiff.Op) {
	b.Ops = append(b.Ops, op)
	for _, name := range op.Filters() {
		if !b.hasFilter(name) {
			b.Filters = append(b.Filters, name)
		}
	}
}

func (b *Batch) hasFilter(name string) bool {
	for _, f := range b.Filters {
		if f == name {
			return true
		}
	}
	return false
}
