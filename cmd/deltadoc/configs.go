package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
	"github.com/signadot/docdelta/encode"
	"github.com/signadot/docdelta/format"
	"github.com/signadot/docdelta/parse"
	"github.com/signadot/docdelta/schema"
)

type MainConfig struct {
	ConfigFile string `cli:"name=config desc='configuration file'"`
	Schema     string `cli:"name=schema desc='schema file'"`
	Type       string `cli:"name=type desc='document type name'"`

	J         bool `cli:"name=j aliases=json desc='do i/o in json'"`
	Y         bool `cli:"name=y aliases=yaml desc='do i/o in yaml'"`
	Color     bool `cli:"name=color desc='output with color'"`
	Canonical bool `cli:"name=canonical desc='write canonical extended json'"`

	Out      string
	CloseOut func() error

	// File is the loaded configuration with flags applied.
	File *Config

	Main *cli.Command
}

// load reads the configuration file, if any, and applies the flags.
func (cfg *MainConfig) load() error {
	file := DefaultConfig()
	if cfg.ConfigFile != "" {
		f, err := LoadConfig(cfg.ConfigFile)
		if err != nil {
			return err
		}
		file = f
	}
	if cfg.Schema != "" {
		file.Schema = cfg.Schema
	}
	if cfg.Type != "" {
		file.Type = cfg.Type
	}
	switch {
	case cfg.J && cfg.Y:
		return fmt.Errorf("%w: must specify at most one of -j[son] -y[aml]", cli.ErrUsage)
	case cfg.J:
		file.Format = format.JSONFormat
	case cfg.Y:
		file.Format = format.YAMLFormat
	}
	cfg.File = file
	return nil
}

func (cfg *MainConfig) parseOpts() []parse.ParseOption {
	return []parse.ParseOption{parse.ParseFormat(cfg.File.Format)}
}

func (cfg *MainConfig) encOpts() []encode.EncodeOption {
	return []encode.EncodeOption{
		encode.EncodeFormat(cfg.File.Format.Output()),
		encode.EncodeCanonical(cfg.Canonical),
	}
}

// colors reports whether output to w is colored: when asked for, or
// when w is a terminal.
func (cfg *MainConfig) colors(w io.Writer) bool {
	if cfg.Color {
		return true
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func (cfg *MainConfig) palette(w io.Writer) *palette {
	p := &palette{
		add:    color.New(color.FgGreen),
		del:    color.New(color.FgRed),
		header: color.New(color.FgCyan, color.Bold),
	}
	on := cfg.colors(w)
	for _, c := range []*color.Color{p.add, p.del, p.header} {
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

type palette struct {
	add, del, header *color.Color
}

// docType loads the schema and looks up the configured type.
func (cfg *MainConfig) docType() (*schema.Type, error) {
	if cfg.File.Schema == "" || cfg.File.Type == "" {
		return nil, fmt.Errorf("%w: a schema file and a type name are required", cli.ErrUsage)
	}
	types, err := schema.LoadFile(cfg.File.Schema)
	if err != nil {
		return nil, err
	}
	reg := schema.NewRegistry()
	if err := reg.Register(types...); err != nil {
		return nil, err
	}
	return reg.Lookup(cfg.File.Type)
}

type DiffConfig struct {
	*MainConfig
	Filter bool `cli:"name=filter desc='include the identity filter of each command'"`

	Diff *cli.Command
}

type ApplyConfig struct {
	*MainConfig
	Check bool `cli:"name=check desc='only verify the patch reproduces the target'"`

	Apply *cli.Command
}

type SyncConfig struct {
	*MainConfig
	DryRun bool `cli:"name=n desc='print the commands without writing'"`

	Sync *cli.Command
}
