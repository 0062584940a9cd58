// Package format names the text formats documents are read and written
// in and detects them.
package format

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

type Format int

const (
	// AutoFormat reads by file extension or content and writes JSON.
	AutoFormat Format = iota
	YAMLFormat
	JSONFormat
)

var ErrBadFormat = errors.New("bad format")

var names = [...]string{
	AutoFormat: "auto",
	YAMLFormat: "yaml",
	JSONFormat: "json",
}

// ParseFormat accepts a format name or its first letter. The empty
// string is AutoFormat.
func ParseFormat(v string) (Format, error) {
	if v == "" {
		return AutoFormat, nil
	}
	for f, name := range names {
		if v == name || v == name[:1] {
			return Format(f), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrBadFormat, v)
}

// Detect reports JSONFormat when the first non-space byte of d opens an
// object and YAMLFormat otherwise.
func Detect(d []byte) Format {
	d = bytes.TrimPrefix(d, []byte("\xef\xbb\xbf"))
	d = bytes.TrimLeft(d, " \t\r\n")
	if len(d) != 0 && d[0] == '{' {
		return JSONFormat
	}
	return YAMLFormat
}

// ForFile resolves AutoFormat for the content d read from path: the
// extension decides when it is known, the content otherwise.
func (f Format) ForFile(path string, d []byte) Format {
	if f != AutoFormat {
		return f
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSONFormat
	case ".yaml", ".yml":
		return YAMLFormat
	}
	return Detect(d)
}

// Output is the format written for f.
func (f Format) Output() Format {
	if f == AutoFormat {
		return JSONFormat
	}
	return f
}

func (f Format) String() string {
	d, err := f.MarshalText()
	if err != nil {
		return err.Error()
	}
	return string(d)
}

func (f Format) MarshalText() ([]byte, error) {
	if f < 0 || int(f) >= len(names) {
		return nil, fmt.Errorf("%w: %d", ErrBadFormat, int(f))
	}
	return []byte(names[f]), nil
}

func (f *Format) UnmarshalText(d []byte) error {
	pf, err := ParseFormat(string(d))
	if err != nil {
		return err
	}
	*f = pf
	return nil
}
