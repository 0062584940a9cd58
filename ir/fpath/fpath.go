// Package fpath provides dot-delimited document field paths.
//
// A path is a sequence of segments. A segment is either a field name or
// an array filter placeholder, rendered "$[name]", which scopes the rest
// of the path to the array elements matched by the named filter:
//
//	items.$[af1].qty
package fpath

import (
	"errors"
	"fmt"
	"strings"
)

var ErrSyntax = errors.New("invalid field path")

// Segment is one element of a Path.
type Segment struct {
	Name   string
	Filter bool // Name is an array filter placeholder
}

func (s Segment) String() string {
	if s.Filter {
		return "$[" + s.Name + "]"
	}
	return s.Name
}

type Path []Segment

// Field returns the single segment path naming a field.
func Field(name string) Path {
	return Path{{Name: name}}
}

// Filter returns the single segment path of an array filter placeholder.
func Filter(name string) Path {
	return Path{{Name: name, Filter: true}}
}

// Join concatenates paths into a new path.
func Join(ps ...Path) Path {
	n := 0
	for _, p := range ps {
		n += len(p)
	}
	res := make(Path, 0, n)
	for _, p := range ps {
		res = append(res, p...)
	}
	return res
}

// Child returns p extended by the field name.
func (p Path) Child(name string) Path {
	return Join(p, Field(name))
}

func (p Path) String() string {
	var buf strings.Builder
	for i, seg := range p {
		if i > 0 {
			buf.WriteByte('.')
		}
		buf.WriteString(seg.String())
	}
	return buf.String()
}

// Parse parses the dotted representation of a path.
func Parse(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrSyntax)
	}
	parts := strings.Split(s, ".")
	res := make(Path, len(parts))
	for i, part := range parts {
		switch {
		case part == "":
			return nil, fmt.Errorf("%w: empty segment in %q", ErrSyntax, s)
		case strings.HasPrefix(part, "$["):
			if !strings.HasSuffix(part, "]") || len(part) < 4 {
				return nil, fmt.Errorf("%w: bad placeholder %q", ErrSyntax, part)
			}
			res[i] = Segment{Name: part[2 : len(part)-1], Filter: true}
		case strings.HasPrefix(part, "$"):
			return nil, fmt.Errorf("%w: unsupported operator segment %q", ErrSyntax, part)
		default:
			res[i] = Segment{Name: part}
		}
	}
	return res, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// HasPrefix reports whether q is a segment-wise prefix of p. Every
// path has the empty path and itself as prefixes.
func (p Path) HasPrefix(q Path) bool {
	if len(q) > len(p) {
		return false
	}
	for i := range q {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Equal reports whether p and q have the same segments.
func (p Path) Equal(q Path) bool {
	return len(p) == len(q) && p.HasPrefix(q)
}

// Conflicts reports whether a single update may not touch both a and b:
// the paths are equal or one is a prefix of the other.
func Conflicts(a, b Path) bool {
	return a.HasPrefix(b) || b.HasPrefix(a)
}

// Filters returns the names of the placeholders in p, in order.
func (p Path) Filters() []string {
	var res []string
	for _, seg := range p {
		if seg.Filter {
			res = append(res, seg.Name)
		}
	}
	return res
}
