// Package uow coordinates the repositories of one workflow and
// persists all their changes in a single commit.
//
//	u := uow.New(st)
//	orders, _ := uow.Register[Order](u, "orders", orderType, nil)
//	o, _ := orders.Get(ctx, ir.FromString("o1"))
//	o.Total += 3
//	err := u.Commit(ctx)
//
// Commit computes the changes of every repository before writing, so a
// patch error leaves the store untouched. With transactions enabled
// (the default) all writes go through one store transaction.
package uow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/signadot/docdelta/policy"
	"github.com/signadot/docdelta/store"
)

var (
	ErrCommitted           = errors.New("unit of work already committed")
	ErrDuplicateRepository = errors.New("collection already has a repository")
)

type options struct {
	noTx     bool
	log      *slog.Logger
	metrics  *Metrics
	resolver *policy.Resolver
}

type Option func(*options)

// WithoutTransactions writes each collection directly.
func WithoutTransactions() Option {
	return func(o *options) { o.noTx = true }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithResolver shares a policy resolver between units of work.
func WithResolver(r *policy.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

type repository interface {
	collection() string
	prepare() (*store.Changes, error)
}

// UnitOfWork is not safe for concurrent use.
type UnitOfWork struct {
	id        string
	store     store.Store
	opts      options
	log       *slog.Logger
	repos     []repository
	committed bool
}

func New(st store.Store, opts ...Option) *UnitOfWork {
	u := &UnitOfWork{id: uuid.NewString(), store: st}
	for _, opt := range opts {
		opt(&u.opts)
	}
	if u.opts.resolver == nil {
		u.opts.resolver = policy.NewResolver()
	}
	log := u.opts.log
	if log == nil {
		log = slog.Default()
	}
	u.log = log.With("component", "uow", "uow", u.id)
	return u
}

func (u *UnitOfWork) ID() string {
	return u.id
}

type prepared struct {
	coll    string
	changes *store.Changes
}

// Commit persists the changes of all repositories. A unit of work
// commits successfully at most once; later calls return ErrCommitted.
func (u *UnitOfWork) Commit(ctx context.Context) (err error) {
	if u.committed {
		return ErrCommitted
	}
	start := time.Now()
	defer func() {
		u.observe(err, time.Since(start))
	}()

	var prep []prepared
	var errs *multierror.Error
	for _, r := range u.repos {
		ch, err := r.prepare()
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", r.collection(), err))
			continue
		}
		if !ch.Empty() {
			prep = append(prep, prepared{coll: r.collection(), changes: ch})
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		u.log.Warn("prepare failed", "error", err)
		return err
	}
	if len(prep) == 0 {
		u.log.Debug("nothing to commit")
		u.committed = true
		return nil
	}

	if u.opts.noTx {
		for _, p := range prep {
			if err := store.Apply(ctx, u.store.Collection(p.coll), p.changes); err != nil {
				return err
			}
		}
	} else if err := u.commitTx(ctx, prep); err != nil {
		return err
	}
	u.committed = true
	u.count(prep)
	u.log.Debug("committed", "collections", len(prep), "duration", time.Since(start))
	return nil
}

func (u *UnitOfWork) commitTx(ctx context.Context, prep []prepared) error {
	tx, err := u.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, p := range prep {
		if err := store.Apply(ctx, tx.Collection(p.coll), p.changes); err != nil {
			res := multierror.Append(nil, err)
			if abortErr := tx.Abort(ctx); abortErr != nil {
				res = multierror.Append(res, fmt.Errorf("abort: %w", abortErr))
			}
			u.log.Warn("transaction aborted", "error", res)
			return res.ErrorOrNil()
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (u *UnitOfWork) observe(err error, d time.Duration) {
	m := u.opts.metrics
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Commits.WithLabelValues(result).Inc()
	m.Duration.WithLabelValues(result).Observe(d.Seconds())
}

func (u *UnitOfWork) count(prep []prepared) {
	m := u.opts.metrics
	if m == nil {
		return
	}
	for _, p := range prep {
		for _, cmd := range p.changes.Commands() {
			m.Commands.WithLabelValues(p.coll, cmd.Kind().String()).Inc()
			if upd, ok := cmd.(*store.UpdateOne); ok {
				m.Ops.WithLabelValues(p.coll).Add(float64(len(upd.Batch.Ops)))
			}
		}
	}
}
