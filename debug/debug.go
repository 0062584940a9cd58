// Package debug gates verbose tracing behind environment variables.
//
//	DELTA_DEBUG_TRACK  tracker construction and dirty checks
//	DELTA_DEBUG_PATCH  patch operations as they are built
//	DELTA_DEBUG_SPLIT  batch assignment of operations
//	DELTA_DEBUG_STORE  commands sent to storage
package debug

import (
	"fmt"
	"os"
	"strconv"

	"github.com/signadot/docdelta/encode"
	"github.com/signadot/docdelta/ir"
)

type debug struct {
	Track bool
	Patch bool
	Split bool
	Store bool
}

var d *debug

func init() {
	d = &debug{}
	d.Track = boolEnv("DELTA_DEBUG_TRACK")
	d.Patch = boolEnv("DELTA_DEBUG_PATCH")
	d.Split = boolEnv("DELTA_DEBUG_SPLIT")
	d.Store = boolEnv("DELTA_DEBUG_STORE")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Track() bool {
	return d.Track
}
func Patch() bool {
	return d.Patch
}
func Split() bool {
	return d.Split
}
func Store() bool {
	return d.Store
}

// Logf writes a line to standard error. *ir.Node arguments are rendered
// as extended JSON.
func Logf(format string, args ...any) {
	for i, arg := range args {
		if n, ok := arg.(*ir.Node); ok {
			args[i] = nodeText{n}
		}
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

type nodeText struct {
	n *ir.Node
}

func (t nodeText) String() string {
	s, err := encode.Value(t.n)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return s
}
