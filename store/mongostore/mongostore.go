// Package mongostore adapts a MongoDB database to the store
// interfaces.
//
// Update commands are sent as updateOne with the array filters their
// batch uses. Transactions run in a client session; a commit failing
// with the UnknownTransactionCommitResult label is retried.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/signadot/docdelta/debug"
	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const unknownCommitResult = "UnknownTransactionCommitResult"

type Store struct {
	db  *mongo.Database
	log *slog.Logger
	// NewBackOff returns the commit retry policy.
	NewBackOff func() backoff.BackOff
}

// New returns a store over db. If logger is nil, slog.Default() is
// used.
func New(db *mongo.Database, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:         db,
		log:        logger.With("component", "mongostore", "database", db.Name()),
		NewBackOff: defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 50 * time.Millisecond
	eb.MaxElapsedTime = 5 * time.Second
	return backoff.WithMaxRetries(eb, 5)
}

func (s *Store) Collection(name string) store.Collection {
	return &collection{coll: s.db.Collection(name), ctx: plainCtx}
}

func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	sess, err := s.db.Client().StartSession()
	if err != nil {
		return nil, err
	}
	if err := sess.StartTransaction(); err != nil {
		sess.EndSession(ctx)
		return nil, err
	}
	return &tx{s: s, sess: sess}, nil
}

type tx struct {
	mu   sync.Mutex
	s    *Store
	sess mongo.Session
	done bool
}

func (t *tx) Collection(name string) store.Collection {
	return &collection{coll: t.s.db.Collection(name), ctx: t.sessionCtx}
}

func (t *tx) sessionCtx(ctx context.Context) (context.Context, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil, store.ErrTxDone
	}
	return mongo.NewSessionContext(ctx, t.sess), nil
}

func (t *tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return store.ErrTxDone
	}
	t.done = true
	defer t.sess.EndSession(ctx)
	attempt := 0
	op := func() error {
		attempt++
		err := t.sess.CommitTransaction(ctx)
		if err == nil {
			return nil
		}
		if !retryableCommit(err) {
			return backoff.Permanent(err)
		}
		t.s.log.Warn("retrying commit", "attempt", attempt, "error", err)
		return err
	}
	return backoff.Retry(op, backoff.WithContext(t.s.NewBackOff(), ctx))
}

func (t *tx) Abort(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return store.ErrTxDone
	}
	t.done = true
	defer t.sess.EndSession(ctx)
	return t.sess.AbortTransaction(ctx)
}

func retryableCommit(err error) bool {
	var le mongo.LabeledError
	return errors.As(err, &le) && le.HasErrorLabel(unknownCommitResult)
}

func plainCtx(ctx context.Context) (context.Context, error) {
	return ctx, nil
}

type collection struct {
	coll *mongo.Collection
	ctx  func(context.Context) (context.Context, error)
}

func (c *collection) Name() string { return c.coll.Name() }

func (c *collection) InsertMany(ctx context.Context, cmd *store.Insert) error {
	ctx, err := c.ctx(ctx)
	if err != nil {
		return err
	}
	if len(cmd.Documents) == 0 {
		return nil
	}
	docs := make([]any, len(cmd.Documents))
	for i, d := range cmd.Documents {
		if docs[i], err = ir.ToBSON(d); err != nil {
			return err
		}
	}
	_, err = c.coll.InsertMany(ctx, docs)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %w", store.ErrDuplicate, err)
	}
	return err
}

func (c *collection) DeleteMany(ctx context.Context, cmd *store.Delete) (int, error) {
	ctx, err := c.ctx(ctx)
	if err != nil {
		return 0, err
	}
	filter, err := inFilter(cmd.Identity, cmd.IDs)
	if err != nil {
		return 0, err
	}
	res, err := c.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

func (c *collection) UpdateOne(ctx context.Context, cmd *store.UpdateOne) (bool, error) {
	ctx, err := c.ctx(ctx)
	if err != nil {
		return false, err
	}
	filter, err := idFilter(cmd.Identity, cmd.ID)
	if err != nil {
		return false, err
	}
	upd, opts, err := updateArgs(cmd)
	if err != nil {
		return false, err
	}
	if debug.Store() {
		debug.Logf("mongostore %s: updateOne %v %v", c.coll.Name(), filter, upd)
	}
	res, err := c.coll.UpdateOne(ctx, filter, upd, opts)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (c *collection) ReplaceOne(ctx context.Context, cmd *store.ReplaceOne) (bool, error) {
	ctx, err := c.ctx(ctx)
	if err != nil {
		return false, err
	}
	filter, err := idFilter(cmd.Identity, cmd.ID)
	if err != nil {
		return false, err
	}
	doc, err := ir.ToBSON(cmd.Document)
	if err != nil {
		return false, err
	}
	res, err := c.coll.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (c *collection) FindOne(ctx context.Context, identity string, id *ir.Node) (*ir.Node, error) {
	ctx, err := c.ctx(ctx)
	if err != nil {
		return nil, err
	}
	filter, err := idFilter(identity, id)
	if err != nil {
		return nil, err
	}
	var d bson.D
	err = c.coll.FindOne(ctx, filter).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s=%s", store.ErrNotFound, identity, store.IDString(id))
	}
	if err != nil {
		return nil, err
	}
	return ir.FromBSON(d)
}

func idFilter(identity string, id *ir.Node) (bson.D, error) {
	v, err := ir.ToBSON(id)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: identity, Value: v}}, nil
}

func inFilter(identity string, ids []*ir.Node) (bson.D, error) {
	vs := make(bson.A, len(ids))
	for i, id := range ids {
		v, err := ir.ToBSON(id)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return bson.D{{Key: identity, Value: bson.D{{Key: "$in", Value: vs}}}}, nil
}

func updateArgs(cmd *store.UpdateOne) (bson.D, *options.UpdateOptions, error) {
	upd, err := cmd.Update()
	if err != nil {
		return nil, nil, err
	}
	opts := options.Update()
	afs, err := cmd.ArrayFilters()
	if err != nil {
		return nil, nil, err
	}
	if len(afs) > 0 {
		opts.SetArrayFilters(options.ArrayFilters{Filters: afs})
	}
	return upd, opts, nil
}
