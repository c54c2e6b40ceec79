package mounts

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	procMounts = "/proc/self/mounts"
)

func getMountTable() (*MountTable, error) {
	file, err := os.Open(procMounts)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readMountTable(file)
}

func readMountTable(reader io.Reader) (*MountTable, error) {
	scanner := bufio.NewScanner(reader)
	table := &MountTable{}
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 1 {
			continue
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("only read %d values from %s",
				len(fields), scanner.Text())
		}
		table.Entries = append(table.Entries, &MountEntry{
			Device:     unescape(fields[0]),
			MountPoint: unescape(fields[1]),
			Type:       fields[2],
			Options:    fields[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// unescape decodes the octal escapes (such as "\040" for space) used by the
// kernel in mount tables.
func unescape(field string) string {
	if !strings.Contains(field, `\`) {
		return field
	}
	var builder strings.Builder
	for index := 0; index < len(field); index++ {
		if field[index] == '\\' && index+4 <= len(field) {
			if value, err := strconv.ParseUint(field[index+1:index+4], 8,
				8); err == nil {
				builder.WriteByte(byte(value))
				index += 3
				continue
			}
		}
		builder.WriteByte(field[index])
	}
	return builder.String()
}

func (mt *MountTable) lookup(mountPoint string) *MountEntry {
	mountPoint = filepath.Clean(mountPoint)
	var lastMatch *MountEntry
	for _, entry := range mt.Entries {
		if entry.MountPoint == mountPoint {
			lastMatch = entry
		}
	}
	return lastMatch
}
