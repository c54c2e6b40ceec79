package mounts

import (
	"io"
)

type MountEntry struct {
	Device     string
	MountPoint string
	Type       string
	Options    string
}

type MountTable struct {
	Entries []*MountEntry
}

// GetMountTable reads the mount table of the calling process.
func GetMountTable() (*MountTable, error) {
	return getMountTable()
}

// ReadMountTable reads a mount table in /proc/mounts format from reader.
func ReadMountTable(reader io.Reader) (*MountTable, error) {
	return readMountTable(reader)
}

// Lookup returns the last (top-most) entry mounted exactly at mountPoint, or
// nil if nothing is mounted there.
func (mt *MountTable) Lookup(mountPoint string) *MountEntry {
	return mt.lookup(mountPoint)
}
