package main

import (
	"fmt"

	"github.com/scott-cotton/cli"
	"github.com/signadot/docdelta"
	"github.com/signadot/docdelta/ir"
	"github.com/signadot/docdelta/parse"
	"github.com/signadot/docdelta/policy"
	"github.com/signadot/docdelta/store"
)

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		cfg.Diff.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff requires 2 args, got %v", cli.ErrUsage, args)
	}
	orig, _, cmds, err := diffFiles(cfg.MainConfig, args[0], args[1])
	if err != nil {
		return err
	}
	if len(cmds) == 0 {
		return nil
	}
	cw := &cmdWriter{
		w:       cc.Out,
		opts:    cfg.encOpts(),
		pal:     cfg.palette(cc.Out),
		filters: cfg.Filter,
		orig:    orig,
	}
	if err := cw.write(cmds); err != nil {
		return err
	}
	return cli.ExitCodeErr(1)
}

// diffFiles reads two documents and computes the commands between
// them.
func diffFiles(cfg *MainConfig, from, to string) (orig, cur *ir.Node, cmds []store.Command, err error) {
	typ, err := cfg.docType()
	if err != nil {
		return nil, nil, nil, err
	}
	orig, err = parse.ParseFile(from, cfg.parseOpts()...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error decoding %s: %w", from, err)
	}
	cur, err = parse.ParseFile(to, cfg.parseOpts()...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error decoding %s: %w", to, err)
	}
	cmds, err = docdelta.Diff(policy.NewResolver(), typ, orig, cur)
	if err != nil {
		return nil, nil, nil, err
	}
	return orig, cur, cmds, nil
}
