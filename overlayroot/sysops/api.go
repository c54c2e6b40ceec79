// Package sysops is the only way the boot pipeline touches the machine. The
// OS type issues real system calls and commands; the Fake type simulates
// devices, file-systems and mounts in memory for tests.
package sysops

import (
	"time"

	"github.com/Cloud-Foundations/overlayroot/lib/log"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/fstab"
)

// MountPlan describes one mount. It is built once and consumed by one call
// to Mount.
type MountPlan struct {
	Source   string
	Target   string
	Type     string
	Options  string // Comma separated, as found in the boot table.
	ReadOnly bool   // Forces read-only, whatever Options say.
}

// PartitionLayout is what was observed on a raw device.
type PartitionLayout struct {
	Count      uint   // Used primary partition slots.
	LastTypeID uint8  // Partition type of the last partition.
	LastPath   string // Device node of the last partition.
	LastFsType string // File-system found in the last partition, if any.
}

// BlockDevice is a device node after symbolic links have been followed.
type BlockDevice struct {
	Path string // Canonical device node, such as /dev/sda2.
	Disk string // Whole disk holding Path. Equal to Path for a whole disk.
}

type SystemOps interface {
	AppendFile(pathname string, data []byte) error
	AwaitDevice(pathname string, timeout time.Duration) bool
	Exists(pathname string) bool
	FindFilesystem(spec fstab.Specifier) (string, error)
	Format(device, fsType, label string) error
	InspectDevice(pathname string) (*BlockDevice, error)
	MakeDir(pathname string) error
	Mount(plan MountPlan) error
	MoveMount(source, target string) error
	Partition(device string, typeID uint8) (string, error)
	PivotRoot(newRoot, putOld string) error
	ReadFile(pathname string) ([]byte, error)
	ReadPartitionLayout(device string) (*PartitionLayout, error)
	Unmount(target string, detach bool) error
	WriteFile(pathname string, data []byte) error
}

// OS implements SystemOps with system calls and external commands.
type OS struct {
	logger        log.DebugLogger
	partitionWait time.Duration
}

// New creates an OS. Commands and system calls are logged at debug level 0.
func New(logger log.DebugLogger) *OS {
	return &OS{logger: logger, partitionWait: 5 * time.Second}
}

// SplitOptions converts a boot table option string into mount flags (the
// wsyscall.MS_* constants) and the file-system specific data string.
// Options which only matter to userspace tools are dropped.
func SplitOptions(options string) (uintptr, string) {
	return splitOptions(options)
}

func (p MountPlan) String() string {
	return p.string()
}
