package main

import (
	"context"
	"fmt"

	"github.com/signadot/docdelta/store"
	"github.com/signadot/docdelta/store/boltstore"
	"github.com/signadot/docdelta/store/memstore"
	"github.com/signadot/docdelta/store/mongostore"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// openStore opens the configured store. The returned function releases
// it.
func openStore(ctx context.Context, sc StoreConfig) (store.Store, func(), error) {
	log := theLog.With("store", sc.Kind)
	switch sc.Kind {
	case "bolt":
		st, err := boltstore.Open(sc.Path, log)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {
			if err := st.Close(); err != nil {
				log.Error("close", "error", err)
			}
		}, nil
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(sc.URI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect %s: %w", sc.URI, err)
		}
		return mongostore.New(client.Database(sc.Database), log), func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error("disconnect", "error", err)
			}
		}, nil
	case "memory":
		return memstore.New(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", sc.Kind)
	}
}
