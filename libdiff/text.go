package libdiff

import (
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

type LineKind int

const (
	LineEqual LineKind = iota
	LineInsert
	LineDelete
)

// Line is one line of a text diff.
type Line struct {
	Kind LineKind
	Text string
}

// DiffLines computes a line oriented diff of two texts, such as the
// encoded documents of a whole replacement.
func DiffLines(from, to string) []Line {
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)
	var res []Line
	for _, d := range diffs {
		kind := LineEqual
		switch d.Type {
		case diffpatch.DiffInsert:
			kind = LineInsert
		case diffpatch.DiffDelete:
			kind = LineDelete
		}
		for _, ln := range strings.SplitAfter(d.Text, "\n") {
			if ln == "" {
				continue
			}
			res = append(res, Line{Kind: kind, Text: strings.TrimSuffix(ln, "\n")})
		}
	}
	return res
}
