package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts := append(sOpts, &cli.Opt{
		Name:        "o",
		Description: "output file (default stdout)",
		Type:        cli.NamedFuncOpt(cfg.outOpt, "(filepath)"),
	})
	return cli.NewCommandAt(&cfg.Main, "deltadoc").
		WithSynopsis("deltadoc [opts] command [opts]").
		WithDescription("deltadoc computes and applies field level document updates.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return deltadocMain(cfg, cc, args)
		}).
		WithSubs(
			DiffCommand(cfg),
			ApplyCommand(cfg),
			SyncCommand(cfg))
}

func DiffCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DiffConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("diff").
		WithAliases("d").
		WithOpts(opts...).
		WithSynopsis("diff original current").
		WithDescription("print the update commands turning original into current").
		WithRun(func(cc *cli.Context, args []string) error {
			return diff(cfg, cc, args)
		})
	cfg.Diff = cmd
	return cmd
}

func ApplyCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ApplyConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("apply").
		WithAliases("a").
		WithOpts(opts...).
		WithSynopsis("apply original current").
		WithDescription("apply the update commands to original and print the result").
		WithRun(func(cc *cli.Context, args []string) error {
			return apply(cfg, cc, args)
		})
	cfg.Apply = cmd
	return cmd
}

func SyncCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &SyncConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("sync").
		WithAliases("s").
		WithOpts(opts...).
		WithSynopsis("sync [-n] files").
		WithDescription("write documents to the configured store, updating stored ones field by field").
		WithRun(func(cc *cli.Context, args []string) error {
			return syncDocs(cfg, cc, args)
		})
	cfg.Sync = cmd
	return cmd
}
