package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/signadot/docdelta/format"
)

// Config is the content of a deltadoc configuration file. Command line
// flags override it.
//
//	schema: schema.yaml
//	type: Order
//	store:
//	  kind: mongo
//	  uri: mongodb://localhost:27017
//	  database: shop
//	  collection: orders
type Config struct {
	Schema string        `yaml:"schema"`
	Type   string        `yaml:"type"`
	Format format.Format `yaml:"format"`
	Store  StoreConfig   `yaml:"store"`
}

type StoreConfig struct {
	// Kind is bolt, mongo or memory.
	Kind         string `yaml:"kind"`
	Path         string `yaml:"path"`
	URI          string `yaml:"uri"`
	Database     string `yaml:"database"`
	Collection   string `yaml:"collection"`
	Transactions bool   `yaml:"transactions"`
}

func DefaultConfig() *Config {
	return &Config{
		Format: format.AutoFormat,
		Store: StoreConfig{
			Kind:         "bolt",
			Path:         "deltadoc.db",
			Database:     "deltadoc",
			Collection:   "documents",
			Transactions: true,
		},
	}
}

// LoadConfig reads the file at path over the defaults.
func LoadConfig(path string) (*Config, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.UnmarshalWithOptions(d, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	switch cfg.Store.Kind {
	case "bolt", "mongo", "memory":
	default:
		return nil, fmt.Errorf("config %s: unknown store kind %q", path, cfg.Store.Kind)
	}
	return cfg, nil
}
