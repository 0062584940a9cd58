package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/signadot/docdelta/encode"
	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/parse"
	"github.com/signadot/docdelta/store/memstore"
)

const shopSchema = `
types:
- name: Order
  delta: true
  identity: _id
  fields:
  - name: _id
  - name: status
  - name: count
    policy: inc
  - name: lines
    policy: keyed
    item: Line
- name: Line
  delta: true
  identity: sku
  fields:
  - name: sku
  - name: qty
    policy: inc
`

func testConfig(t *testing.T) *MainConfig {
	t.Helper()
	cfg := &MainConfig{
		Schema: writeFile(t, "shop.yaml", shopSchema),
		Type:   "Order",
		J:      true,
	}
	if err := cfg.load(); err != nil {
		t.Fatal(err)
	}
	cfg.File.Store.Kind = "memory"
	return cfg
}

func TestDiffApplyFiles(t *testing.T) {
	cfg := testConfig(t)
	from := writeFile(t, "from.json", `{"_id": "o1", "status": "new", "count": 1, "lines": [{"sku": "a", "qty": 1}]}`)
	to := writeFile(t, "to.json", `{"_id": "o1", "count": 3, "status": "paid", "lines": [{"sku": "a", "qty": 2}]}`)
	orig, cur, cmds, err := diffFiles(cfg, from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) == 0 {
		t.Fatal("expected commands")
	}
	res, err := applyChecked(orig, cur, cmds)
	if err != nil {
		t.Fatal(err)
	}
	if !ir.Equal(ir.Get(res, "count"), ir.FromInt32(3)) {
		t.Errorf("unexpected result %s", encode.MustString(res))
	}
	if _, err := applyChecked(orig, orig, cmds); !errors.Is(err, ErrMismatch) {
		t.Errorf("expected ErrMismatch, got %v", err)
	}

	buf := &bytes.Buffer{}
	cw := &cmdWriter{w: buf, opts: cfg.encOpts(), pal: cfg.palette(buf), filters: true, orig: orig}
	if err := cw.write(cmds); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"# 1/", "update", `"$inc"`, "arrayFilters", "filter"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in output:\n%s", want, buf)
		}
	}
}

func TestSyncFiles(t *testing.T) {
	mcfg := testConfig(t)
	st := memstore.New()
	ctx := context.Background()
	run := func(t *testing.T, dryRun bool, content string) string {
		t.Helper()
		cfg := &SyncConfig{MainConfig: mcfg, DryRun: dryRun}
		buf := &bytes.Buffer{}
		p := writeFile(t, "o1.json", content)
		if err := syncFiles(ctx, cfg, st, buf, []string{p}); err != nil {
			t.Fatal(err)
		}
		return buf.String()
	}
	stored := func(t *testing.T) *ir.Node {
		t.Helper()
		docs := st.Documents(mcfg.File.Store.Collection)
		if len(docs) != 1 {
			t.Fatalf("expected 1 document, got %d", len(docs))
		}
		return docs[0]
	}

	const v1 = `{"_id": "o1", "status": "new", "count": 1, "lines": []}`
	const v2 = `{"_id": "o1", "status": "paid", "count": 2, "lines": [{"sku": "a", "qty": 1}]}`

	if out := run(t, false, v1); !strings.Contains(out, ": insert") {
		t.Errorf("expected insert, got %q", out)
	}
	if out := run(t, true, v2); !strings.Contains(out, ": 1 commands") || !strings.Contains(out, "$set") {
		t.Errorf("expected dry run commands, got %q", out)
	}
	want1, err := parse.Parse([]byte(v1))
	if err != nil {
		t.Fatal(err)
	}
	if !ir.Equal(stored(t), want1) {
		t.Errorf("dry run wrote %s", encode.MustString(stored(t)))
	}
	run(t, false, v2)
	want2, err := parse.Parse([]byte(v2))
	if err != nil {
		t.Fatal(err)
	}
	if !ir.Equal(stored(t), want2) {
		t.Errorf("got %s", encode.MustString(stored(t)))
	}
	if out := run(t, false, v2); !strings.Contains(out, ": unchanged") {
		t.Errorf("expected unchanged, got %q", out)
	}
}

func TestSyncFilesRepeatedInsert(t *testing.T) {
	cfg := &SyncConfig{MainConfig: testConfig(t)}
	st := memstore.New()
	first := writeFile(t, "first.json", `{"_id": "o2", "status": "new", "count": 1, "lines": []}`)
	second := writeFile(t, "second.json", `{"_id": "o2", "status": "paid", "count": 1, "lines": []}`)
	buf := &bytes.Buffer{}
	if err := syncFiles(context.Background(), cfg, st, buf, []string{first, second}); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), ": insert"); n != 2 {
		t.Errorf("expected 2 insert lines, got %q", buf)
	}
	docs := st.Documents(cfg.File.Store.Collection)
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if got := ir.Get(docs[0], "status"); !ir.Equal(got, ir.FromString("paid")) {
		t.Errorf("expected the later file to win, got %s", encode.MustString(docs[0]))
	}
}
