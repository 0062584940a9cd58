package gomap

import (
	"fmt"
	"reflect"
	"time"

	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/schema"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	tagType = reflect.TypeFor[schema.Tag]()
	// struct types encoded as scalars
	scalarStructs = map[reflect.Type]bool{
		reflect.TypeFor[time.Time]():            true,
		reflect.TypeFor[primitive.Decimal128](): true,
		reflect.TypeFor[primitive.Timestamp]():  true,
		reflect.TypeFor[primitive.Binary]():     true,
		reflect.TypeFor[ir.Node]():              true,
	}
)

// Describe derives the descriptor of the struct type of prototype, and
// of every struct type reachable from its fields, and registers them in
// reg. Types already registered under the same name are reused.
func Describe(reg *schema.Registry, prototype any) (*schema.Type, error) {
	rt := reflect.TypeOf(prototype)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T", ErrNotStruct, prototype)
	}
	d := &describer{reg: reg, seen: make(map[reflect.Type]*schema.Type)}
	t, err := d.describe(rt)
	if err != nil {
		return nil, err
	}
	if err := reg.Register(d.types...); err != nil {
		return nil, err
	}
	return t, nil
}

// MustDescribe is like Describe but panics on error.
func MustDescribe(reg *schema.Registry, prototype any) *schema.Type {
	t, err := Describe(reg, prototype)
	if err != nil {
		panic(err)
	}
	return t
}

type describer struct {
	reg   *schema.Registry
	seen  map[reflect.Type]*schema.Type
	types []*schema.Type
}

func (d *describer) describe(rt reflect.Type) (*schema.Type, error) {
	if t, ok := d.seen[rt]; ok {
		return t, nil
	}
	name, delta, err := typeOptions(rt)
	if err != nil {
		return nil, err
	}
	if t, err := d.reg.Lookup(name); err == nil {
		d.seen[rt] = t
		return t, nil
	}
	t := &schema.Type{Name: name, Delta: delta}
	d.seen[rt] = t
	d.types = append(d.types, t)

	explicitID := false
	for i := range rt.NumField() {
		sf := rt.Field(i)
		if sf.Type == tagType || !sf.IsExported() {
			continue
		}
		bt, err := bsoncodec.DefaultStructTagParser.ParseStructTags(sf)
		if err != nil {
			return nil, &SchemaError{TypeName: name, Field: sf.Name, Message: "bad bson tag", Err: err}
		}
		if bt.Skip {
			continue
		}
		if bt.Inline {
			return nil, &SchemaError{TypeName: name, Field: sf.Name, Message: "inline fields are not supported"}
		}
		opts, err := ParseStructTag(sf.Tag.Get("delta"))
		if err != nil {
			return nil, &SchemaError{TypeName: name, Field: sf.Name, Message: "bad delta tag", Err: err}
		}
		if _, ok := opts["-"]; ok {
			continue
		}
		f := &schema.Field{Name: bt.Name}
		for k := range opts {
			switch k {
			case "inc":
				f.Policy = schema.Incremental
			case "set":
				f.Policy = schema.SetCollection
			case "keyed":
				f.Policy = schema.IdentityCollection
			case "id":
				t.Identity = f.Name
				explicitID = true
			default:
				return nil, &SchemaError{TypeName: name, Field: sf.Name, Message: fmt.Sprintf("unknown delta option %q", k)}
			}
		}
		if f.Name == "_id" && !explicitID {
			t.Identity = f.Name
		}
		base := deref(sf.Type)
		if isObject(base) {
			if f.Type, err = d.describe(base); err != nil {
				return nil, err
			}
		}
		if f.Policy == schema.IdentityCollection {
			if base.Kind() != reflect.Slice && base.Kind() != reflect.Array {
				return nil, &SchemaError{TypeName: name, Field: sf.Name, Message: "keyed field must be a slice"}
			}
			elem := deref(base.Elem())
			if !isObject(elem) {
				return nil, &SchemaError{TypeName: name, Field: sf.Name, Message: "keyed items must be structs"}
			}
			if f.Item, err = d.describe(elem); err != nil {
				return nil, err
			}
		}
		index := sf.Index
		f.Get = func(instance any) any {
			return fieldValue(instance, index)
		}
		f.Encode = EncodeValue
		t.Fields = append(t.Fields, f)
	}
	return t, nil
}

// typeOptions reads the schema.Tag marker of a struct type.
func typeOptions(rt reflect.Type) (name string, delta bool, err error) {
	name = rt.Name()
	for i := range rt.NumField() {
		sf := rt.Field(i)
		if sf.Type != tagType {
			continue
		}
		opts, err := ParseStructTag(sf.Tag.Get("delta"))
		if err != nil {
			return "", false, &SchemaError{TypeName: rt.Name(), Message: "bad type tag", Err: err}
		}
		if n, ok := opts["type"]; ok && n != "" {
			name = n
		}
		_, delta = opts["delta"]
	}
	if name == "" {
		return "", false, &SchemaError{Message: fmt.Sprintf("anonymous struct %s needs a type name", rt)}
	}
	return name, delta, nil
}

func deref(rt reflect.Type) reflect.Type {
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt
}

func isObject(rt reflect.Type) bool {
	return rt.Kind() == reflect.Struct && !scalarStructs[rt]
}

// fieldValue reads the field at index of a struct or pointer to struct.
// Nil pointers, slices, maps and interfaces yield nil.
func fieldValue(instance any, index []int) any {
	rv := reflect.ValueOf(instance)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	fv, err := rv.FieldByIndexErr(index)
	if err != nil {
		return nil
	}
	switch fv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		if fv.IsNil() {
			return nil
		}
	}
	return fv.Interface()
}
