package main

import (
	"errors"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/scott-cotton/cli"
	"github.com/signadot/docdelta"
	"github.com/signadot/docdelta/encode"
	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/store"
	"go.mongodb.org/mongo-driver/bson"
)

var ErrMismatch = errors.New("patched document differs from target")

func apply(cfg *ApplyConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Apply.Parse(cc, args)
	if err != nil {
		cfg.Apply.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: apply requires 2 args, got %v", cli.ErrUsage, args)
	}
	orig, cur, cmds, err := diffFiles(cfg.MainConfig, args[0], args[1])
	if err != nil {
		return err
	}
	res, err := applyChecked(orig, cur, cmds)
	if err != nil {
		return err
	}
	theLog.Debug("applied", "commands", len(cmds))
	if cfg.Check {
		return nil
	}
	return encode.Encode(res, cc.Out, cfg.encOpts()...)
}

// applyChecked applies cmds to orig and verifies the result equals cur
// up to object field order, as the server appends fields created by
// $set.
func applyChecked(orig, cur *ir.Node, cmds []store.Command) (*ir.Node, error) {
	res, err := docdelta.Apply(orig, cmds)
	if err != nil {
		return nil, err
	}
	same, err := sameDocument(res, cur)
	if err != nil {
		return nil, err
	}
	if !same {
		return nil, ErrMismatch
	}
	return res, nil
}

func sameDocument(a, b *ir.Node) (bool, error) {
	da, err := canonicalJSON(a)
	if err != nil {
		return false, err
	}
	db, err := canonicalJSON(b)
	if err != nil {
		return false, err
	}
	return jsonpatch.Equal(da, db), nil
}

func canonicalJSON(n *ir.Node) ([]byte, error) {
	v, err := ir.ToBSON(n)
	if err != nil {
		return nil, err
	}
	return bson.MarshalExtJSON(v, true, false)
}
