package fstab

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"unicode/utf8"
)

const labelAllowed = `#+-.:=@_abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789`

var kindTags = map[SpecifierKind]string{
	KindLabel:    "LABEL",
	KindUUID:     "UUID",
	KindPartUUID: "PARTUUID",
}

var kindDirectories = map[SpecifierKind]string{
	KindLabel:    "/dev/disk/by-label",
	KindUUID:     "/dev/disk/by-uuid",
	KindPartUUID: "/dev/disk/by-partuuid",
}

type tableLine struct {
	text  string
	entry *Entry
}

func parseSpecifier(source string) (Specifier, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Specifier{}, errors.New("empty specifier")
	}
	if strings.HasPrefix(source, "/") {
		return Specifier{Kind: KindPath, Value: path.Clean(source)}, nil
	}
	tag, value, found := strings.Cut(source, "=")
	if !found {
		return Specifier{}, fmt.Errorf("unsupported specifier: %s", source)
	}
	value = strings.Trim(value, `"`)
	if value == "" {
		return Specifier{}, fmt.Errorf("empty value in specifier: %s", source)
	}
	for kind, name := range kindTags {
		if strings.EqualFold(tag, name) {
			return Specifier{Kind: kind, Value: value}, nil
		}
	}
	return Specifier{}, fmt.Errorf("unsupported specifier tag: %s", tag)
}

func encodeLabel(label string) string {
	buffer := &strings.Builder{}
	for _, r := range label {
		switch {
		case utf8.RuneLen(r) > 1:
			buffer.WriteRune(r)
		case !strings.ContainsRune(labelAllowed, r):
			fmt.Fprintf(buffer, `\x%02x`, r)
		default:
			buffer.WriteRune(r)
		}
	}
	return buffer.String()
}

func (s Specifier) devicePath() string {
	switch s.Kind {
	case KindPath, KindPseudo:
		return s.Value
	case KindLabel:
		return path.Join(kindDirectories[s.Kind], encodeLabel(s.Value))
	case KindUUID, KindPartUUID:
		return path.Join(kindDirectories[s.Kind], strings.ToLower(s.Value))
	}
	return ""
}

func (s Specifier) string() string {
	if s.Kind == KindPath || s.Kind == KindPseudo {
		return s.Value
	}
	return kindTags[s.Kind] + "=" + s.Value
}

func (k SpecifierKind) string() string {
	switch k {
	case KindPath:
		return "PATH"
	case KindPseudo:
		return "PSEUDO"
	}
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	return "UNKNOWN(" + strconv.FormatUint(uint64(k), 10) + ")"
}

func parseEntry(line string) (*Entry, error) {
	if index := strings.IndexByte(line, '#'); index >= 0 {
		line = line[:index]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	if len(fields) < 3 {
		return nil, fmt.Errorf("too few fields: %d", len(fields))
	}
	spec, err := parseSpecifier(unescape(fields[0]))
	if err != nil {
		if strings.ContainsRune(fields[0], '=') {
			return nil, err
		}
		spec = Specifier{Kind: KindPseudo, Value: fields[0]}
	}
	entry := &Entry{
		Source:     spec,
		MountPoint: path.Clean(unescape(fields[1])),
		Type:       fields[2],
		Options:    "defaults",
	}
	if len(fields) > 3 {
		entry.Options = fields[3]
	}
	if len(fields) > 4 {
		if entry.Dump, err = strconv.Atoi(fields[4]); err != nil {
			return nil, err
		}
	}
	if len(fields) > 5 {
		if entry.Pass, err = strconv.Atoi(fields[5]); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

// unescape decodes the octal escapes (\040 for space) used in tables.
func unescape(field string) string {
	if !strings.Contains(field, `\`) {
		return field
	}
	buffer := &strings.Builder{}
	for index := 0; index < len(field); index++ {
		if field[index] == '\\' && index+4 <= len(field) {
			if value, err := strconv.ParseUint(field[index+1:index+4], 8, 8); err == nil {
				buffer.WriteByte(byte(value))
				index += 3
				continue
			}
		}
		buffer.WriteByte(field[index])
	}
	return buffer.String()
}

func parse(data []byte) (*Table, error) {
	table := &Table{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		text := scanner.Text()
		entry, _ := parseEntry(text)
		table.lines = append(table.lines, tableLine{text: text, entry: entry})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

func (t *Table) entries() []Entry {
	entries := make([]Entry, 0, len(t.lines))
	for _, line := range t.lines {
		if line.entry != nil {
			entries = append(entries, *line.entry)
		}
	}
	return entries
}

func (t *Table) lookup(mountPoint string) *Entry {
	mountPoint = path.Clean(mountPoint)
	var found *Entry
	for _, line := range t.lines {
		if line.entry != nil && line.entry.MountPoint == mountPoint {
			found = line.entry
		}
	}
	if found == nil {
		return nil
	}
	entry := *found
	return &entry
}

func (t *Table) without(mountPoint string, comments []string) []byte {
	mountPoint = path.Clean(mountPoint)
	buffer := &bytes.Buffer{}
	for _, line := range t.lines {
		if line.entry != nil && line.entry.MountPoint == mountPoint {
			continue
		}
		buffer.WriteString(line.text)
		buffer.WriteByte('\n')
	}
	for _, comment := range comments {
		buffer.WriteString("# ")
		buffer.WriteString(comment)
		buffer.WriteByte('\n')
	}
	return buffer.Bytes()
}
