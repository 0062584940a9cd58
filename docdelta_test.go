package docdelta

import (
	"testing"

	"github.com/signadot/docdelta/dirty"
	"github.com/signadot/docdelta/encode"
	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/parse"
	"github.com/signadot/docdelta/policy"
	"github.com/signadot/docdelta/schema"
	"github.com/signadot/docdelta/store"
)

const testSchema = `
types:
- name: Order
  delta: true
  identity: _id
  fields:
  - name: _id
  - name: name
  - name: count
    policy: inc
  - name: tags
    policy: set
  - name: sub
    type: Sub
  - name: lines
    policy: keyed
    item: Line
  - name: notes
    policy: keyed
    item: Note
- name: Sub
  delta: true
  fields:
  - name: value
- name: Line
  delta: true
  identity: sku
  fields:
  - name: sku
  - name: qty
    policy: inc
  - name: parts
    policy: keyed
    item: Part
- name: Part
  delta: true
  identity: pid
  fields:
  - name: pid
  - name: label
- name: Note
  identity: nid
  fields:
  - name: nid
  - name: text
- name: Blob
  identity: _id
  fields:
  - name: _id
  - name: data
`

const base = `{
  "_id": "o1",
  "name": "first",
  "count": 5,
  "tags": ["Apples", "Oranges"],
  "sub": {"value": "A"},
  "lines": [
    {"sku": "a", "qty": 1, "parts": [{"pid": "p1", "label": "x"}]},
    {"sku": "b", "qty": 2, "parts": []}
  ],
  "notes": [{"nid": 1, "text": "hello"}]
}`

func lookup(t *testing.T, name string) *schema.Type {
	t.Helper()
	types, err := schema.Load([]byte(testSchema))
	if err != nil {
		t.Fatal(err)
	}
	reg := schema.NewRegistry()
	if err := reg.Register(types...); err != nil {
		t.Fatal(err)
	}
	ty, err := reg.Lookup(name)
	if err != nil {
		t.Fatal(err)
	}
	return ty
}

func doc(t *testing.T, s string) *ir.Node {
	t.Helper()
	n, err := parse.Parse([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	return n
}

// TestDiffApply checks that applying the commands computed between two
// documents to the first one yields the second.
func TestDiffApply(t *testing.T) {
	tests := []struct {
		name     string
		cur      string
		commands int
	}{
		{
			name:     "unchanged",
			cur:      base,
			commands: 0,
		},
		{
			name: "scalars",
			cur: `{"_id": "o1", "name": "second", "count": 17, "tags": ["Apples", "Oranges"], "sub": {"value": "A"},
				"lines": [{"sku": "a", "qty": 1, "parts": [{"pid": "p1", "label": "x"}]}, {"sku": "b", "qty": 2, "parts": []}],
				"notes": [{"nid": 1, "text": "hello"}]}`,
			commands: 1,
		},
		{
			name: "sets and sub objects",
			cur: `{"_id": "o1", "name": "first", "count": 5, "tags": ["Oranges", "Pears"], "sub": null,
				"lines": [{"sku": "a", "qty": 1, "parts": [{"pid": "p1", "label": "x"}]}, {"sku": "b", "qty": 2, "parts": []}],
				"notes": [{"nid": 1, "text": "hello"}]}`,
			commands: 2,
		},
		{
			name: "collections",
			cur: `{"_id": "o1", "name": "first", "count": 5, "tags": ["Apples", "Oranges"], "sub": {"value": "B"},
				"lines": [
					{"sku": "a", "qty": 4, "parts": [{"pid": "p1", "label": "y"}, {"pid": "p2", "label": "z"}]},
					{"sku": "c", "qty": 1, "parts": []}
				],
				"notes": [{"nid": 1, "text": "bye"}]}`,
			// push and pull of lines, then line a, then its part
			commands: 4,
		},
	}
	ty := lookup(t, "Order")
	r := policy.NewResolver()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			orig, cur := doc(t, base), doc(t, tc.cur)
			cmds, err := Diff(r, ty, orig, cur)
			if err != nil {
				t.Fatal(err)
			}
			if len(cmds) != tc.commands {
				for _, c := range cmds {
					t.Log(c)
				}
				t.Errorf("expected %d commands, got %d", tc.commands, len(cmds))
			}
			for _, c := range cmds {
				if _, ok := c.(*store.UpdateOne); !ok {
					t.Errorf("expected update commands, got %s", c)
				}
			}
			got, err := Apply(orig, cmds)
			if err != nil {
				t.Fatal(err)
			}
			if !ir.Equal(got, cur) {
				t.Errorf("applied document differs:\n%s\nwant\n%s", encode.MustString(got), encode.MustString(cur))
			}
		})
	}
}

func TestBuildPatchReplace(t *testing.T) {
	ty := lookup(t, "Blob")
	r := policy.NewResolver()
	orig := doc(t, `{"_id": 1, "data": "a"}`)
	cur := doc(t, `{"_id": 1, "data": "b"}`)
	tp, err := r.Resolve(ty)
	if err != nil {
		t.Fatal(err)
	}
	tr, err := dirty.FromDocuments(tp, orig, cur)
	if err != nil {
		t.Fatal(err)
	}
	isReplace, repl, ops, filters, err := BuildPatch(tr)
	if err != nil {
		t.Fatal(err)
	}
	if !isReplace || !ir.Equal(repl, cur) || ops != nil || filters != nil {
		t.Errorf("expected whole replacement, got %v %v %v", isReplace, ops, filters)
	}

	cmds, err := Diff(r, ty, orig, cur)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 1 {
		t.Fatalf("expected one command, got %d", len(cmds))
	}
	if _, ok := cmds[0].(*store.ReplaceOne); !ok {
		t.Fatalf("expected replace, got %s", cmds[0])
	}
	got, err := Apply(orig, cmds)
	if err != nil {
		t.Fatal(err)
	}
	if !ir.Equal(got, cur) {
		t.Errorf("replacement differs")
	}
}
