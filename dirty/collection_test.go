package dirty

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/policy"
	"github.com/signadot/docdelta/schema"
)

func strs(ss ...string) *ir.Node {
	vals := make([]*ir.Node, len(ss))
	for i, s := range ss {
		vals[i] = ir.FromString(s)
	}
	return ir.FromSlice(vals)
}

func texts(ns []*ir.Node) []string {
	var res []string
	for _, n := range ns {
		res = append(res, n.String)
	}
	return res
}

func TestSetDiff(t *testing.T) {
	tests := []struct {
		name           string
		orig, cur      *ir.Node
		added, removed []string
	}{
		{"example", strs("Apples", "Oranges"), strs("Oranges", "Pears"), []string{"Pears"}, []string{"Apples"}},
		{"same", strs("a", "b"), strs("b", "a"), nil, nil},
		{"dedup", strs("a"), strs("a", "b", "b"), []string{"b"}, nil},
		{"empty", strs(), strs("x"), []string{"x"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			added, removed, err := SetDiff(tt.orig, tt.cur)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.added, texts(added)); diff != "" {
				t.Errorf("added (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.removed, texts(removed)); diff != "" {
				t.Errorf("removed (-want +got):\n%s", diff)
			}
		})
	}
	if _, _, err := SetDiff(ir.FromString("a"), strs()); !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape, got %v", err)
	}
}

func itemPolicy(t *testing.T) *policy.TypePolicy {
	t.Helper()
	ty := &schema.Type{Name: "I", Delta: true, Identity: "id", Fields: []*schema.Field{{Name: "id"}, {Name: "v"}}}
	tp, err := policy.NewResolver().Resolve(ty)
	if err != nil {
		t.Fatal(err)
	}
	return tp
}

func it(id, v string) *ir.Node {
	return ir.FromKeyVals([]ir.KeyVal{{Key: "id", Val: ir.FromString(id)}, {Key: "v", Val: ir.FromString(v)}})
}

func TestKeyed(t *testing.T) {
	tp := itemPolicy(t)
	orig := ir.FromSlice([]*ir.Node{it("a", "1"), it("b", "1"), it("c", "1")})
	cur := ir.FromSlice([]*ir.Node{it("d", "1"), it("c", "2"), it("a", "1")})
	kd, err := Keyed(tp, orig, cur)
	if err != nil {
		t.Fatal(err)
	}
	var added []string
	for _, a := range kd.Added {
		added = append(added, ir.Get(a, "id").String)
	}
	if diff := cmp.Diff([]string{"d"}, added); diff != "" {
		t.Errorf("added (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b"}, texts(kd.Removed)); diff != "" {
		t.Errorf("removed (-want +got):\n%s", diff)
	}
	var kept []string
	var dirty []bool
	for _, p := range kd.Kept {
		kept = append(kept, p.Identity.String)
		d, err := p.IsDirty()
		if err != nil {
			t.Fatal(err)
		}
		dirty = append(dirty, d)
	}
	if diff := cmp.Diff([]string{"a", "c"}, kept); diff != "" {
		t.Errorf("kept (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{false, true}, dirty); diff != "" {
		t.Errorf("dirty (-want +got):\n%s", diff)
	}
}

func TestKeyedErrors(t *testing.T) {
	tp := itemPolicy(t)
	noID := ir.FromKeyVals([]ir.KeyVal{{Key: "v", Val: ir.FromString("x")}})
	tests := []struct {
		name string
		cur  *ir.Node
		err  error
	}{
		{"missing identity", ir.FromSlice([]*ir.Node{noID}), ErrIdentity},
		{"duplicate identity", ir.FromSlice([]*ir.Node{it("a", "1"), it("a", "2")}), ErrIdentity},
		{"scalar item", ir.FromSlice([]*ir.Node{ir.FromInt(1)}), ErrShape},
		{"not array", ir.FromString("x"), ErrShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Keyed(tp, ir.FromSlice(nil), tt.cur)
			if !errors.Is(err, tt.err) {
				t.Errorf("got %v, want %v", err, tt.err)
			}
		})
	}
}
