package format

import (
	"errors"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":     AutoFormat,
		"auto": AutoFormat,
		"y":    YAMLFormat,
		"yaml": YAMLFormat,
		"j":    JSONFormat,
		"json": JSONFormat,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if got != want {
			t.Errorf("%q: got %s want %s", in, got, want)
		}
	}
	if _, err := ParseFormat("tony"); !errors.Is(err, ErrBadFormat) {
		t.Errorf("expected ErrBadFormat, got %v", err)
	}
	if _, err := Format(7).MarshalText(); !errors.Is(err, ErrBadFormat) {
		t.Errorf("expected ErrBadFormat, got %v", err)
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		path   string
		data   string
		want   Format
	}{
		{"explicit", YAMLFormat, "a.json", "{}", YAMLFormat},
		{"json extension", AutoFormat, "a.JSON", "a: 1", JSONFormat},
		{"yml extension", AutoFormat, "a.yml", "{}", YAMLFormat},
		{"json content", AutoFormat, "-", "\n  {\"a\": 1}", JSONFormat},
		{"bom", AutoFormat, "doc", "\xef\xbb\xbf{}", JSONFormat},
		{"yaml content", AutoFormat, "doc", "a: 1\n", YAMLFormat},
		{"empty", AutoFormat, "doc", "", YAMLFormat},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.format.ForFile(tc.path, []byte(tc.data)); got != tc.want {
				t.Errorf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestOutput(t *testing.T) {
	if AutoFormat.Output() != JSONFormat || YAMLFormat.Output() != YAMLFormat {
		t.Error("unexpected output formats")
	}
}
