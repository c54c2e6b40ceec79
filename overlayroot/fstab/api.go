package fstab

type SpecifierKind uint

const (
	KindPath SpecifierKind = iota
	KindLabel
	KindUUID
	KindPartUUID
	KindPseudo // A non-device source such as "proc" or "tmpfs".
)

// Specifier identifies a file-system by device path, label, UUID or
// partition UUID. The zero value is invalid.
type Specifier struct {
	Kind  SpecifierKind
	Value string
}

// Entry is one mount line of a table.
type Entry struct {
	Source     Specifier
	MountPoint string
	Type       string
	Options    string
	Dump       int
	Pass       int
}

// Table is a parsed boot configuration table. The original text is retained
// so that it may be rewritten without disturbing unrelated lines.
type Table struct {
	lines []tableLine
}

// ParseSpecifier parses a source field such as "LABEL=rootfs",
// "UUID=...", "PARTUUID=..." or "/dev/mmcblk0p2".
func ParseSpecifier(source string) (Specifier, error) {
	return parseSpecifier(source)
}

// MustParseSpecifier is like ParseSpecifier but panics on error. It is
// intended for compiled-in defaults and tests.
func MustParseSpecifier(source string) Specifier {
	spec, err := parseSpecifier(source)
	if err != nil {
		panic(err)
	}
	return spec
}

// DevicePath returns the path under which udev exposes the file-system
// named by s. For path specifiers this is the path itself.
func (s Specifier) DevicePath() string {
	return s.devicePath()
}

func (s Specifier) IsZero() bool {
	return s.Value == ""
}

// String returns the specifier in source field form.
func (s Specifier) String() string {
	return s.string()
}

func (k SpecifierKind) String() string {
	return k.string()
}

// Parse will parse the contents of a table. Malformed lines are kept
// verbatim but are not visible through Lookup.
func Parse(data []byte) (*Table, error) {
	return parse(data)
}

// Entries returns the valid mount entries in order.
func (t *Table) Entries() []Entry {
	return t.entries()
}

// Lookup returns the last entry for mountPoint, or nil if there is none.
func (t *Table) Lookup(mountPoint string) *Entry {
	return t.lookup(mountPoint)
}

// Without returns the table text with every entry for mountPoint removed and
// the comment lines appended (each is prefixed with "# ").
func (t *Table) Without(mountPoint string, comments ...string) []byte {
	return t.without(mountPoint, comments)
}
