package loadflags

import (
	"flag"
)

// LoadFile will read name=value assignments from filename and apply them to
// the flags in flagSet. Names are matched exactly against flag names; lines
// naming no known flag are ignored. Values may be enclosed in single or
// double quotes. A missing file is not an error. Every valid assignment is
// applied even if another is rejected; the first rejection is returned.
func LoadFile(filename string, flagSet *flag.FlagSet) error {
	return loadFile(filename, flagSet)
}

// LoadString is similar to LoadFile, reading assignments from data.
func LoadString(data string, flagSet *flag.FlagSet) error {
	return loadString(data, flagSet)
}
