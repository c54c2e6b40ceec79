package mbr

import (
	"bytes"
	"testing"
)

func makeRaw(types ...byte) []byte {
	raw := make([]byte, 512)
	raw[0x1FE] = 0x55
	raw[0x1FF] = 0xAA
	for index, partType := range types {
		entry := partitionTableOffset + 0x10*index
		raw[entry+4] = partType
		raw[entry+8] = 0x00 // Start sector 2048.
		raw[entry+9] = 0x08
		raw[entry+12] = 0x00 // 4096 sectors.
		raw[entry+13] = 0x10
	}
	return raw
}

func TestDecodeNoSignature(t *testing.T) {
	mbr, err := Decode(bytes.NewReader(make([]byte, 512)))
	if err != nil {
		t.Fatal(err)
	}
	if mbr != nil {
		t.Fatal("decoded MBR without signature")
	}
}

func TestDecodeShort(t *testing.T) {
	if _, err := Decode(bytes.NewReader(make([]byte, 100))); err == nil {
		t.Fatal("no error for short read")
	}
}

func TestPartitions(t *testing.T) {
	tests := []struct {
		types    []byte
		count    uint
		lastType byte
	}{
		{nil, 0, 0},
		{[]byte{LinuxPartitionType}, 1, LinuxPartitionType},
		{[]byte{0x0c, LinuxPartitionType}, 2, LinuxPartitionType},
		{[]byte{LinuxPartitionType, 0, 0x07}, 2, 0x07},
		{[]byte{0xee}, 1, 0xee},
	}
	for _, test := range tests {
		mbr, err := Decode(bytes.NewReader(makeRaw(test.types...)))
		if err != nil {
			t.Fatal(err)
		}
		if count := mbr.CountPartitions(); count != test.count {
			t.Errorf("%v: count: %d != %d", test.types, count, test.count)
		}
		index, ok := mbr.LastPartition()
		if test.count == 0 {
			if ok {
				t.Errorf("%v: found last partition: %d", test.types, index)
			}
			continue
		}
		if partType := mbr.GetPartitionType(index); partType != test.lastType {
			t.Errorf("%v: last type: %#x != %#x",
				test.types, partType, test.lastType)
		}
	}
}
