package storage

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/Cloud-Foundations/overlayroot/lib/errors"
	"github.com/Cloud-Foundations/overlayroot/lib/log/testlogger"
	"github.com/Cloud-Foundations/overlayroot/lib/mbr"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/outcome"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/sysops"
)

var testPolicy = Policy{
	FsType:        "ext4",
	TypeID:        mbr.LinuxPartitionType,
	Label:         "root-rw",
	AllowReformat: true,
}

func newReporter(t *testing.T) *outcome.Reporter {
	return outcome.NewReporter(testlogger.New(t), true)
}

func TestAlreadyValidIsUntouched(t *testing.T) {
	ops := sysops.NewFake()
	ops.AddDisk("/dev/sda", sysops.FakePartition{
		TypeID: mbr.LinuxPartitionType,
		FsType: "ext4",
		Files:  map[string]string{"/upper/keep": "data"},
	})
	status, o := EnsureSinglePartition(ops, "/dev/sda", testPolicy,
		newReporter(t))
	if status != StatusValid || o.Failures != 0 || o.Warnings != 0 {
		t.Fatalf("status=%s outcome=%+v", status, o)
	}
	if ops.Called("partition /dev/sda") || ops.Called("format /dev/sda1") {
		t.Errorf("destructive action on valid device: %v", ops.Calls())
	}
	if data, _ := ops.DeviceFile("/dev/sda1", "/upper/keep"); string(data) != "data" {
		t.Error("data lost")
	}
}

func TestTwoPartitionsRecovered(t *testing.T) {
	ops := sysops.NewFake()
	ops.AddDisk("/dev/sda",
		sysops.FakePartition{TypeID: 0x0c, FsType: "vfat"},
		sysops.FakePartition{TypeID: mbr.LinuxPartitionType, FsType: "ext4"})
	status, o := EnsureSinglePartition(ops, "/dev/sda", testPolicy,
		newReporter(t))
	if status != StatusRecovered {
		t.Fatalf("status=%s outcome=%+v", status, o)
	}
	if o.Failures != 0 || o.Warnings != 1 {
		t.Errorf("unexpected outcome: %+v", o)
	}
	var mismatch *errors.PartitionMismatchError
	if !stderrors.As(o.Errors[0], &mismatch) || mismatch.Partitions != 2 {
		t.Errorf("unexpected error: %v", o.Errors[0])
	}
	partition := ops.CallIndex("partition /dev/sda")
	format := ops.CallIndex("format /dev/sda1")
	if partition < 0 || format < partition {
		t.Errorf("unexpected calls: %v", ops.Calls())
	}
	if fsType := ops.DeviceFsType("/dev/sda1"); fsType != "ext4" {
		t.Errorf("fs type: %s", fsType)
	}
	if ops.Exists("/dev/sda2") {
		t.Error("second partition remains")
	}
	err := ops.Mount(sysops.MountPlan{Source: "/dev/sda1", Target: "/mnt",
		Type: "ext4"})
	if err != nil {
		t.Errorf("mount after recovery: %s", err)
	}
}

func TestWrongFilesystemRecovered(t *testing.T) {
	ops := sysops.NewFake()
	ops.AddDisk("/dev/sdb", sysops.FakePartition{TypeID: 0x0c, FsType: "vfat"})
	status, _ := EnsureSinglePartition(ops, "/dev/sdb", testPolicy,
		newReporter(t))
	if status != StatusRecovered || !ops.Called("partition /dev/sdb") {
		t.Errorf("status=%s calls=%v", status, ops.Calls())
	}
}

func TestRecoveryDisallowed(t *testing.T) {
	ops := sysops.NewFake()
	ops.AddDisk("/dev/sda")
	policy := testPolicy
	policy.AllowReformat = false
	status, o := EnsureSinglePartition(ops, "/dev/sda", policy, newReporter(t))
	if status != StatusInvalid || o.Failed() || o.Warnings != 1 {
		t.Errorf("status=%s outcome=%+v", status, o)
	}
	if ops.Called("partition /dev/sda") {
		t.Error("partitioned despite policy")
	}
}

func TestFormatFailureRecorded(t *testing.T) {
	ops := sysops.NewFake()
	ops.AddDisk("/dev/sda")
	ops.FailOn("format /dev/sda1", stderrors.New("mkfs.ext4 failed"))
	status, o := EnsureSinglePartition(ops, "/dev/sda", testPolicy,
		newReporter(t))
	if status != StatusInvalid {
		t.Fatalf("status after format failure: %s", status)
	}
	if o.Failures != 1 {
		t.Fatalf("unexpected outcome: %+v", o)
	}
	var formatErr *errors.FormatError
	if !stderrors.As(o.Errors[len(o.Errors)-1], &formatErr) {
		t.Errorf("unexpected error: %v", o.Errors)
	}
}

func TestFindCandidate(t *testing.T) {
	ops := sysops.NewFake()
	ops.AddDisk("/dev/sda")
	ops.AddDisk("/dev/sdb")
	ops.SetAppearsAfter("/dev/sda", -1)
	device, ok := FindCandidate(ops, []string{"/dev/sda", "/dev/sdb"}, "",
		10*time.Second, 2*time.Second)
	if !ok || device != "/dev/sdb" {
		t.Errorf("got: %s %v", device, ok)
	}
	if ops.Elapsed() != 10*time.Second {
		t.Errorf("elapsed: %s", ops.Elapsed())
	}
	device, ok = FindCandidate(ops, []string{"/dev/sdb"}, "/dev/sdb",
		time.Second, time.Second)
	if ok {
		t.Errorf("root disk selected: %s", device)
	}
}

func TestFindCandidateSkipsLinkedRootDisk(t *testing.T) {
	ops := sysops.NewFake()
	ops.AddDisk("/dev/sda",
		sysops.FakePartition{TypeID: 0x0c, FsType: "vfat"},
		sysops.FakePartition{TypeID: mbr.LinuxPartitionType, FsType: "ext4"})
	ops.AddDisk("/dev/sdb")
	ops.AddLink("/dev/disk/by-path/usb-0", "/dev/sda")
	device, ok := FindCandidate(ops,
		[]string{"/dev/disk/by-path/usb-0", "/dev/sdb"}, "/dev/sda",
		time.Second, time.Second)
	if !ok || device != "/dev/sdb" {
		t.Errorf("got: %s %v", device, ok)
	}
}

func TestHolds(t *testing.T) {
	tests := []struct {
		disk, device string
		holds        bool
	}{
		{"/dev/sda", "/dev/sda1", true},
		{"/dev/sda", "/dev/sda", true},
		{"/dev/sda", "/dev/sdab1", false},
		{"/dev/mmcblk0", "/dev/mmcblk0p2", true},
		{"/dev/mmcblk0", "/dev/mmcblk1p2", false},
		{"/dev/sdb", "/dev/disk/by-label/rootfs", false},
	}
	for _, test := range tests {
		if got := Holds(test.disk, test.device); got != test.holds {
			t.Errorf("Holds(%s, %s)=%v", test.disk, test.device, got)
		}
	}
}
