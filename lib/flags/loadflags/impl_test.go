package loadflags

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func newFlagSet() (*flag.FlagSet, *string, *string) {
	flagSet := flag.NewFlagSet("test", flag.ContinueOnError)
	onFail := flagSet.String("ON_FAIL", "original", "")
	root := flagSet.String("SECONDARY_ROOT_RESOLUTION", "LABEL=rootfs", "")
	return flagSet, onFail, root
}

func TestLoadString(t *testing.T) {
	flagSet, onFail, root := newFlagSet()
	err := LoadString(`# comment
ON_FAIL=console
SECONDARY_ROOT_RESOLUTION="PARTUUID=abcd-02"
UNKNOWN_KEY=ignored
`, flagSet)
	if err != nil {
		t.Fatal(err)
	}
	if *onFail != "console" {
		t.Errorf("ON_FAIL: %s", *onFail)
	}
	if *root != "PARTUUID=abcd-02" {
		t.Errorf("SECONDARY_ROOT_RESOLUTION: %s", *root)
	}
}

func TestLoadMissingFile(t *testing.T) {
	flagSet, onFail, _ := newFlagSet()
	err := LoadFile(filepath.Join(t.TempDir(), "missing.conf"), flagSet)
	if err != nil {
		t.Fatal(err)
	}
	if *onFail != "original" {
		t.Errorf("default changed: %s", *onFail)
	}
}

func TestLoadBadValue(t *testing.T) {
	flagSet := flag.NewFlagSet("test", flag.ContinueOnError)
	flagSet.Duration("RW_WAIT", 0, "")
	filename := filepath.Join(t.TempDir(), "bad.conf")
	if err := os.WriteFile(filename, []byte("RW_WAIT=soon\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadFile(filename, flagSet); err == nil {
		t.Fatal("no error for bad duration")
	}
}

func TestUnquote(t *testing.T) {
	tests := map[string]string{
		`"a b"`: "a b",
		`'x'`:   "x",
		`"`:     `"`,
		` v `:   "v",
		`"mix'`: `"mix'`,
	}
	for input, expected := range tests {
		if output := unquote(input); output != expected {
			t.Errorf("unquote(%s): %s != %s", input, output, expected)
		}
	}
}
