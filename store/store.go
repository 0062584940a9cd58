// Package store defines the storage capability the change tracker
// writes through: write commands, collections and transactions.
//
// Implementations live in the subpackages memstore (in memory),
// boltstore (bbolt file) and mongostore (MongoDB).
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/signadot/docdelta/debug"
	"github.com/signadot/docdelta/ir"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate identity")
	ErrNoMatch   = errors.New("update matched no document")
	ErrConflict  = errors.New("transaction conflict")
	ErrTxDone    = errors.New("transaction already finished")
	ErrPath      = errors.New("cannot apply update at path")
)

// Collection is a named set of documents addressed by an identity
// field.
type Collection interface {
	Name() string
	InsertMany(ctx context.Context, cmd *Insert) error
	// DeleteMany returns the number of deleted documents.
	DeleteMany(ctx context.Context, cmd *Delete) (int, error)
	// UpdateOne and ReplaceOne report whether a document matched.
	UpdateOne(ctx context.Context, cmd *UpdateOne) (bool, error)
	ReplaceOne(ctx context.Context, cmd *ReplaceOne) (bool, error)
	// FindOne returns ErrNotFound when no document has the identity.
	FindOne(ctx context.Context, identity string, id *ir.Node) (*ir.Node, error)
}

type Store interface {
	Collection(name string) Collection
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a transaction. Writes through its collections become visible
// on Commit. After Commit or Abort, both return ErrTxDone.
type Tx interface {
	Collection(name string) Collection
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
}

// Changes is the set of commands persisting one tracked collection.
type Changes struct {
	Inserts *Insert
	Deletes *Delete
	// Updates holds *UpdateOne and *ReplaceOne commands.
	Updates []Command
}

func (c *Changes) Empty() bool {
	return c.Inserts == nil && c.Deletes == nil && len(c.Updates) == 0
}

// Commands returns the commands in execution order: inserts, deletes,
// then updates.
func (c *Changes) Commands() []Command {
	var res []Command
	if c.Inserts != nil {
		res = append(res, c.Inserts)
	}
	if c.Deletes != nil {
		res = append(res, c.Deletes)
	}
	return append(res, c.Updates...)
}

// Apply runs the commands of changes against coll in order, stopping at
// the first error.
func Apply(ctx context.Context, coll Collection, changes *Changes) error {
	for _, cmd := range changes.Commands() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if debug.Store() {
			debug.Logf("store %s: %s", coll.Name(), cmd)
		}
		if err := Run(ctx, coll, cmd); err != nil {
			return fmt.Errorf("%s %s: %w", coll.Name(), cmd.Kind(), err)
		}
	}
	return nil
}

// Run executes a single command.
func Run(ctx context.Context, coll Collection, cmd Command) error {
	switch c := cmd.(type) {
	case *Insert:
		return coll.InsertMany(ctx, c)
	case *Delete:
		_, err := coll.DeleteMany(ctx, c)
		return err
	case *UpdateOne:
		ok, err := coll.UpdateOne(ctx, c)
		if err == nil && !ok {
			err = fmt.Errorf("%w: %s", ErrNoMatch, text(c.ID))
		}
		return err
	case *ReplaceOne:
		ok, err := coll.ReplaceOne(ctx, c)
		if err == nil && !ok {
			err = fmt.Errorf("%w: %s", ErrNoMatch, text(c.ID))
		}
		return err
	}
	return fmt.Errorf("unknown command %T", cmd)
}
