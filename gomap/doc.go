// Package gomap derives schema descriptors from Go struct types and maps
// Go values to and from documents.
//
// # Usage
//
//	type Order struct {
//	    _        schema.Tag `delta:"type=Order,delta"`
//	    ID       primitive.ObjectID `bson:"_id"`
//	    Total    int64              `bson:"total" delta:"inc"`
//	    Tags     []string           `bson:"tags" delta:"set"`
//	    Customer *Customer          `bson:"customer"`
//	    Lines    []Line             `bson:"lines" delta:"keyed"`
//	}
//
//	reg := schema.NewRegistry()
//	ty, err := gomap.Describe(reg, &Order{})
//
// Document field names follow the bson struct tags, with the same
// defaults as the mongo driver. The delta tag carries the update policy
// of a field (inc, set, keyed), marks the identity field (id) or
// excludes a field from tracking (-). A field named _id is the identity
// field unless another field is marked.
//
// Values are converted with the bson codec of the mongo driver, so a
// document produced here matches what the driver stores.
package gomap
