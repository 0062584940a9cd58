package mongostore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/ir/fpath"
	"github.com/signadot/docdelta/libdiff"
	"github.com/signadot/docdelta/store"
	"github.com/signadot/docdelta/update"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestFilters(t *testing.T) {
	f, err := idFilter("_id", ir.FromString("a"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(bson.D{{Key: "_id", Value: "a"}}, f); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	f, err = inFilter("sku", []*ir.Node{ir.FromInt32(1), ir.FromInt32(2)})
	if err != nil {
		t.Fatal(err)
	}
	want := bson.D{{Key: "sku", Value: bson.D{{Key: "$in", Value: bson.A{int32(1), int32(2)}}}}}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestUpdateArgs(t *testing.T) {
	ops := []*libdiff.Op{
		{Path: fpath.MustParse("lines.$[af1].qty"), Kind: libdiff.Increment, Value: ir.FromInt32(2)},
	}
	cmd := &store.UpdateOne{
		Identity: "_id",
		ID:       ir.FromInt32(1),
		Batch:    update.Split(ops)[0],
		Filters: []*libdiff.Filter{
			{Name: "af1", Field: "sku", Value: ir.FromString("a")},
			{Name: "af2", Field: "sku", Value: ir.FromString("b")},
		},
	}
	upd, opts, err := updateArgs(cmd)
	if err != nil {
		t.Fatal(err)
	}
	wantUpd := bson.D{{Key: "$inc", Value: bson.D{{Key: "lines.$[af1].qty", Value: int32(2)}}}}
	if diff := cmp.Diff(wantUpd, upd); diff != "" {
		t.Errorf("update (-want +got):\n%s", diff)
	}
	if opts.ArrayFilters == nil {
		t.Fatal("expected array filters")
	}
	wantAF := []any{bson.D{{Key: "af1.sku", Value: "a"}}}
	if diff := cmp.Diff(wantAF, opts.ArrayFilters.Filters); diff != "" {
		t.Errorf("array filters (-want +got):\n%s", diff)
	}

	cmd.Batch = &update.Batch{Ops: []*libdiff.Op{{Path: fpath.Field("name"), Kind: libdiff.Set, Value: ir.FromString("x")}}}
	_, opts, err = updateArgs(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if opts.ArrayFilters != nil {
		t.Errorf("unexpected array filters")
	}
}

func TestRetryableCommit(t *testing.T) {
	labeled := mongo.CommandError{Code: 50, Labels: []string{unknownCommitResult}}
	if !retryableCommit(fmt.Errorf("commit: %w", labeled)) {
		t.Errorf("expected retryable")
	}
	if retryableCommit(mongo.CommandError{Code: 112, Labels: []string{"TransientTransactionError"}}) {
		t.Errorf("expected not retryable")
	}
	if retryableCommit(errors.New("other")) {
		t.Errorf("expected not retryable")
	}
}
