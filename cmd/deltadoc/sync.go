package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/scott-cotton/cli"
	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/parse"
	"github.com/signadot/docdelta/store"
	"github.com/signadot/docdelta/track"
	"github.com/signadot/docdelta/uow"
)

func syncDocs(cfg *SyncConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Sync.Parse(cc, args)
	if err != nil {
		cfg.Sync.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: sync requires at least 1 file", cli.ErrUsage)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	st, closeStore, err := openStore(ctx, cfg.File.Store)
	if err != nil {
		return err
	}
	defer closeStore()
	return syncFiles(ctx, cfg, st, cc.Out, args)
}

func syncFiles(ctx context.Context, cfg *SyncConfig, st store.Store, w io.Writer, files []string) error {
	typ, err := cfg.docType()
	if err != nil {
		return err
	}
	if typ.Identity == "" {
		return fmt.Errorf("type %s has no identity field", typ.Name)
	}
	opts := []uow.Option{uow.WithLogger(theLog)}
	if !cfg.File.Store.Transactions {
		opts = append(opts, uow.WithoutTransactions())
	}
	u := uow.New(st, opts...)
	repo, err := uow.Register[ir.Node](u, cfg.File.Store.Collection, typ, nil)
	if err != nil {
		return err
	}
	// documents inserted by this run, by identity; a later file with
	// the same identity replaces the pending insert
	added := map[string]*ir.Node{}
	for _, file := range files {
		doc, err := parse.ParseFile(file, cfg.parseOpts()...)
		if err != nil {
			return fmt.Errorf("error decoding %s: %w", file, err)
		}
		id := ir.Get(doc, typ.Identity)
		if id.IsNull() {
			return fmt.Errorf("%s: no %s field", file, typ.Identity)
		}
		if pending, ok := added[id.Key()]; ok {
			doc.CloneTo(pending)
			fmt.Fprintf(w, "%s: insert\n", file)
			continue
		}
		stored, err := repo.Get(ctx, id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			if err := repo.Add(doc); err != nil {
				return err
			}
			added[id.Key()] = doc
			fmt.Fprintf(w, "%s: insert\n", file)
		case err != nil:
			return fmt.Errorf("%s: %w", file, err)
		default:
			doc.CloneTo(stored)
			cmds, err := track.Commands(repo.Tracked().Get(stored).Tracker())
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			if len(cmds) == 0 {
				fmt.Fprintf(w, "%s: unchanged\n", file)
			} else {
				fmt.Fprintf(w, "%s: %d commands\n", file, len(cmds))
			}
		}
	}
	if cfg.DryRun {
		changes, err := track.Changes(repo.Tracked())
		if err != nil {
			return err
		}
		cw := &cmdWriter{w: w, opts: cfg.encOpts(), pal: cfg.palette(w), filters: true}
		return cw.write(changes.Commands())
	}
	if err := u.Commit(ctx); err != nil {
		return err
	}
	theLog.Info("committed", "unit", u.ID(), "files", len(files))
	return nil
}
