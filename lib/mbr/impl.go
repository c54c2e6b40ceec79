package mbr

import (
	"io"
)

const partitionTableOffset = 0x1BE

func decode(reader io.ReaderAt) (*Mbr, error) {
	var mbr Mbr
	if _, err := reader.ReadAt(mbr.raw[:], 0); err != nil {
		return nil, err
	}
	if mbr.raw[0x1FE] == 0x55 && mbr.raw[0x1FF] == 0xAA {
		return &mbr, nil
	}
	return nil, nil
}

func (mbr *Mbr) countPartitions() uint {
	var count uint
	for index := uint(0); index < mbr.GetNumPartitions(); index++ {
		if mbr.getPartitionType(index) != 0 {
			count++
		}
	}
	return count
}

func (mbr *Mbr) getPartitionType(index uint) byte {
	if index >= mbr.GetNumPartitions() {
		return 0
	}
	return mbr.raw[partitionTableOffset+0x10*index+4]
}

func (mbr *Mbr) lastPartition() (uint, bool) {
	for index := mbr.GetNumPartitions(); index > 0; index-- {
		if mbr.getPartitionType(index-1) != 0 {
			return index - 1, true
		}
	}
	return 0, false
}
