package mbr

import (
	"io"
)

// LinuxPartitionType is the MBR system ID for a native Linux file-system.
const LinuxPartitionType = 0x83

type Mbr struct {
	raw [512]byte
}

// Decode will read and decode the MBR from reader. If there is no MBR
// signature, nil is returned along with no error.
func Decode(reader io.ReaderAt) (*Mbr, error) {
	return decode(reader)
}

// CountPartitions returns the number of used primary partition slots.
func (mbr *Mbr) CountPartitions() uint {
	return mbr.countPartitions()
}

// GetNumPartitions returns the number of primary partition slots.
func (mbr *Mbr) GetNumPartitions() uint {
	return 4
}

// GetPartitionType returns the system ID of the specified partition. Unused
// slots have type 0.
func (mbr *Mbr) GetPartitionType(index uint) byte {
	return mbr.getPartitionType(index)
}

// LastPartition returns the index of the last used partition slot and true,
// or false if there are no partitions.
func (mbr *Mbr) LastPartition() (uint, bool) {
	return mbr.lastPartition()
}
