package gomap

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/schema"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type customer struct {
	_    schema.Tag `delta:"type=Customer,delta"`
	Name string     `bson:"name"`
	Tier int32      `bson:"tier"`
}

type line struct {
	_   schema.Tag `delta:"type=Line,delta"`
	SKU string     `bson:"sku" delta:"id"`
	Qty int64      `bson:"qty" delta:"inc"`
}

type order struct {
	_        schema.Tag         `delta:"type=Order,delta"`
	ID       primitive.ObjectID `bson:"_id"`
	Total    int64              `bson:"total" delta:"inc"`
	Tags     []string           `bson:"tags" delta:"set"`
	Customer *customer          `bson:"customer"`
	Lines    []line             `bson:"lines" delta:"keyed"`
	Note     string             `bson:"note" delta:"-"`
	Skipped  string             `bson:"-"`
	Plain    address            `bson:"plain"`
}

type address struct {
	City string
}

func TestDescribe(t *testing.T) {
	reg := schema.NewRegistry()
	ty, err := Describe(reg, &order{})
	if err != nil {
		t.Fatal(err)
	}
	if ty.Name != "Order" || !ty.Delta || ty.Identity != "_id" {
		t.Errorf("unexpected type header %s %v %q", ty.Name, ty.Delta, ty.Identity)
	}
	type fieldDesc struct {
		Name   string
		Policy schema.Policy
		Type   string
		Item   string
	}
	var got []fieldDesc
	for _, f := range ty.Fields {
		fd := fieldDesc{Name: f.Name, Policy: f.Policy}
		if f.Type != nil {
			fd.Type = f.Type.Name
		}
		if f.Item != nil {
			fd.Item = f.Item.Name
		}
		got = append(got, fd)
	}
	want := []fieldDesc{
		{Name: "_id"},
		{Name: "total", Policy: schema.Incremental},
		{Name: "tags", Policy: schema.SetCollection},
		{Name: "customer", Type: "Customer"},
		{Name: "lines", Policy: schema.IdentityCollection, Item: "Line"},
		{Name: "plain", Type: "address"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fields (-want +got):\n%s", diff)
	}
	line, err := reg.Lookup("Line")
	if err != nil {
		t.Fatal(err)
	}
	if line.Identity != "sku" {
		t.Errorf("line identity %q", line.Identity)
	}
	// describing again reuses the registered types
	again, err := Describe(reg, order{})
	if err != nil {
		t.Fatal(err)
	}
	if again != ty {
		t.Errorf("expected registered type to be reused")
	}
}

func TestDescribeErrors(t *testing.T) {
	type badOpt struct {
		A int `delta:"bogus"`
	}
	type badKeyed struct {
		A []string `delta:"keyed"`
	}
	reg := schema.NewRegistry()
	var se *SchemaError
	if _, err := Describe(reg, badOpt{}); !errors.As(err, &se) {
		t.Errorf("expected SchemaError, got %v", err)
	}
	if _, err := Describe(reg, badKeyed{}); !errors.As(err, &se) {
		t.Errorf("expected SchemaError, got %v", err)
	}
	if _, err := Describe(reg, 3); !errors.Is(err, ErrNotStruct) {
		t.Errorf("expected ErrNotStruct, got %v", err)
	}
}

func TestFieldValues(t *testing.T) {
	reg := schema.NewRegistry()
	ty := MustDescribe(reg, &order{})
	o := &order{
		Total: 5,
		Tags:  []string{"a"},
		Lines: []line{{SKU: "x", Qty: 2}},
	}
	cust, err := ty.Field("customer").Value(o)
	if err != nil {
		t.Fatal(err)
	}
	if !cust.IsNull() {
		t.Errorf("nil pointer should be null")
	}
	if raw := ty.Field("customer").Raw(o); raw != nil {
		t.Errorf("nil pointer raw value should be nil, got %v", raw)
	}
	total, err := ty.Field("total").Value(o)
	if err != nil {
		t.Fatal(err)
	}
	if !ir.Equal(total, ir.FromInt(5)) {
		t.Errorf("total = %s", total.Key())
	}
	lines, err := ty.Field("lines").Value(o)
	if err != nil {
		t.Fatal(err)
	}
	want := ir.FromSlice([]*ir.Node{ir.FromKeyVals([]ir.KeyVal{
		{Key: "sku", Val: ir.FromString("x")},
		{Key: "qty", Val: ir.FromInt(2)},
	})})
	if !ir.Equal(lines, want) {
		t.Errorf("lines mismatch")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	o := &order{
		ID:       primitive.NewObjectID(),
		Total:    10,
		Tags:     []string{"a", "b"},
		Customer: &customer{Name: "ann", Tier: 2},
		Lines:    []line{{SKU: "x", Qty: 1}},
		Plain:    address{City: "Oslo"},
	}
	doc, err := ToDocument(o)
	if err != nil {
		t.Fatal(err)
	}
	if got := ir.Get(ir.Get(doc, "customer"), "tier").NumberKind(); got != ir.Int32Number {
		t.Errorf("tier kind %s", got)
	}
	var back order
	if err := FromDocument(doc, &back); err != nil {
		t.Fatal(err)
	}
	opts := cmp.AllowUnexported(order{}, customer{}, line{})
	if diff := cmp.Diff(o, &back, opts); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
	if err := FromDocument(ir.FromInt(1), &back); err == nil {
		t.Errorf("expected error decoding a number")
	}
}

func TestParseStructTag(t *testing.T) {
	got, err := ParseStructTag("type=Order, delta,name='a b'")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"type": "Order", "delta": "", "name": "a b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if _, err := ParseStructTag("name='open"); err == nil {
		t.Errorf("expected error for unterminated quote")
	}
}
