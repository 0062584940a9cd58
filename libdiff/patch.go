package libdiff

import (
	"strconv"

	"github.com/signadot/docdelta/ir"
)

// Patch is the result of a patch build.
type Patch struct {
	// Replace is set when the whole document must be replaced by
	// Replacement.
	Replace     bool
	Replacement *ir.Node

	Ops     []*Op
	Filters []*Filter
}

// Empty reports whether applying the patch changes nothing.
func (p *Patch) Empty() bool {
	return !p.Replace && len(p.Ops) == 0
}

// Filter returns the filter bound to the placeholder name, or nil.
func (p *Patch) Filter(name string) *Filter {
	for _, f := range p.Filters {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Filter is the predicate bound to an array filter placeholder: it
// matches the items of ItemType whose Field equals Value.
type Filter struct {
	Name     string
	ItemType string
	Field    string
	Value    *ir.Node
}

// Key returns the key of the filter condition, "<name>.<field>".
func (f *Filter) Key() string {
	return f.Name + "." + f.Field
}

// Allocator hands out placeholder names for one patch build: af1, af2,
// and so on.
type Allocator struct {
	n       int
	filters []*Filter
}

func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next allocates a fresh placeholder bound to the given predicate.
func (a *Allocator) Next(itemType, field string, value *ir.Node) *Filter {
	a.n++
	f := &Filter{
		Name:     "af" + strconv.Itoa(a.n),
		ItemType: itemType,
		Field:    field,
		Value:    value.Clone(),
	}
	a.filters = append(a.filters, f)
	return f
}

// Filters returns the filters allocated so far, in allocation order.
func (a *Allocator) Filters() []*Filter {
	return a.filters
}
