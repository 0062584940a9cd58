package schema

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

type fileDoc struct {
	Types []fileType `yaml:"types"`
}

type fileType struct {
	Name     string      `yaml:"name"`
	Delta    bool        `yaml:"delta"`
	Identity string      `yaml:"identity"`
	Fields   []fileField `yaml:"fields"`
}

type fileField struct {
	Name   string `yaml:"name"`
	Policy string `yaml:"policy"`
	Type   string `yaml:"type"`
	Item   string `yaml:"item"`
}

// LoadFile reads a YAML schema file, see Load.
func LoadFile(path string) ([]*Type, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	types, err := Load(d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return types, nil
}

// Load parses YAML schema documents. Type references are resolved
// within the document. The resulting types have no accessors and work
// with document instances only.
func Load(d []byte) ([]*Type, error) {
	doc := &fileDoc{}
	if err := yaml.UnmarshalWithOptions(d, doc, yaml.Strict()); err != nil {
		return nil, err
	}
	byName := make(map[string]*Type, len(doc.Types))
	res := make([]*Type, len(doc.Types))
	for i := range doc.Types {
		ft := &doc.Types[i]
		if _, ok := byName[ft.Name]; ok {
			return nil, fmt.Errorf("%w: %q declared twice", ErrDuplicate, ft.Name)
		}
		t := &Type{Name: ft.Name, Delta: ft.Delta, Identity: ft.Identity}
		byName[ft.Name] = t
		res[i] = t
	}
	ref := func(name string) (*Type, error) {
		if name == "" {
			return nil, nil
		}
		t, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return t, nil
	}
	for i := range doc.Types {
		ft := &doc.Types[i]
		t := res[i]
		for _, ff := range ft.Fields {
			p, err := ParsePolicy(ff.Policy)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", ft.Name, ff.Name, err)
			}
			f := &Field{Name: ff.Name, Policy: p}
			if f.Type, err = ref(ff.Type); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", ft.Name, ff.Name, err)
			}
			if f.Item, err = ref(ff.Item); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", ft.Name, ff.Name, err)
			}
			t.Fields = append(t.Fields, f)
		}
	}
	return res, nil
}
