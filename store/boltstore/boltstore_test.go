package boltstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/ir/fpath"
	"github.com/signadot/docdelta/libdiff"
	"github.com/signadot/docdelta/store"
	"github.com/signadot/docdelta/update"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "docs.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func order(id int32, name string) *ir.Node {
	dec, _ := primitive.ParseDecimal128("1.50")
	return ir.FromKeyVals([]ir.KeyVal{
		{Key: "_id", Val: ir.FromInt32(id)},
		{Key: "name", Val: ir.FromString(name)},
		{Key: "price", Val: ir.FromDecimal(dec)},
		{Key: "weight", Val: ir.FromFloat(2.5)},
		{Key: "tags", Val: ir.FromSlice(nil)},
		{Key: "note", Val: ir.Null()},
	})
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	c := s.Collection("orders")
	want := order(1, "a")
	if err := c.InsertMany(ctx, &store.Insert{Identity: "_id", Documents: []*ir.Node{want}}); err != nil {
		t.Fatal(err)
	}
	got, err := c.FindOne(ctx, "_id", ir.FromInt32(1))
	if err != nil {
		t.Fatal(err)
	}
	if !ir.Equal(want, got) {
		t.Errorf("document changed by storage")
	}
	if _, err := c.FindOne(ctx, "_id", ir.FromInt(1)); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("int64 identity must not match int32, got %v", err)
	}
	err = c.InsertMany(ctx, &store.Insert{Identity: "_id", Documents: []*ir.Node{order(1, "b")}})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	err = c.InsertMany(ctx, &store.Insert{Identity: "_id", Documents: []*ir.Node{ir.FromKeyVals(nil)}})
	if !errors.Is(err, ErrNoIdentity) {
		t.Errorf("expected ErrNoIdentity, got %v", err)
	}
}

func TestWrites(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	c := s.Collection("orders")
	if err := c.InsertMany(ctx, &store.Insert{Identity: "_id", Documents: []*ir.Node{order(1, "a"), order(2, "b")}}); err != nil {
		t.Fatal(err)
	}
	ok, err := c.UpdateOne(ctx, &store.UpdateOne{
		Identity: "_id",
		ID:       ir.FromInt32(1),
		Batch: &update.Batch{Ops: []*libdiff.Op{
			{Path: fpath.Field("tags"), Kind: libdiff.SetAdd, Values: []*ir.Node{ir.FromString("x")}},
		}},
	})
	if err != nil || !ok {
		t.Fatalf("update: %v %v", ok, err)
	}
	got, _ := c.FindOne(ctx, "_id", ir.FromInt32(1))
	if tags := ir.Get(got, "tags"); len(tags.Values) != 1 {
		t.Errorf("expected one tag")
	}

	ok, err = c.ReplaceOne(ctx, &store.ReplaceOne{Identity: "_id", ID: ir.FromInt32(2), Document: order(3, "c")})
	if err != nil || !ok {
		t.Fatalf("replace: %v %v", ok, err)
	}
	if _, err := c.FindOne(ctx, "_id", ir.FromInt32(3)); err != nil {
		t.Errorf("replaced document not found under new identity: %v", err)
	}

	n, err := c.DeleteMany(ctx, &store.Delete{Identity: "_id", IDs: []*ir.Node{ir.FromInt32(1), ir.FromInt32(2)}})
	if err != nil || n != 1 {
		t.Errorf("delete: %d %v", n, err)
	}
	docs, err := s.Documents("orders")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Errorf("expected 1 document, got %d", len(docs))
	}
}

func TestTx(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Collection("orders").InsertMany(ctx, &store.Insert{Identity: "_id", Documents: []*ir.Node{order(1, "a")}}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Abort(ctx); err != nil {
		t.Fatal(err)
	}
	if docs, _ := s.Documents("orders"); len(docs) != 0 {
		t.Errorf("aborted write visible")
	}

	tx, err = s.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Collection("orders").InsertMany(ctx, &store.Insert{Identity: "_id", Documents: []*ir.Node{order(1, "a")}}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); !errors.Is(err, store.ErrTxDone) {
		t.Errorf("expected ErrTxDone, got %v", err)
	}
	if docs, _ := s.Documents("orders"); len(docs) != 1 {
		t.Errorf("committed write not visible")
	}
}
