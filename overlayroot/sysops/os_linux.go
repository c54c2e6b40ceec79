//go:build linux
// +build linux

package sysops

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Cloud-Foundations/overlayroot/lib/fsutil"
	"github.com/Cloud-Foundations/overlayroot/lib/fsutil/mounts"
	"github.com/Cloud-Foundations/overlayroot/lib/mbr"
	"github.com/Cloud-Foundations/overlayroot/lib/wsyscall"
	"github.com/Cloud-Foundations/overlayroot/overlayroot/fstab"
)

const sysClassBlock = "/sys/class/block"

func (o *OS) AppendFile(pathname string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(pathname), fsutil.DirPerms); err != nil {
		return err
	}
	file, err := os.OpenFile(pathname, os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		fsutil.PublicFilePerms)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (o *OS) AwaitDevice(pathname string, timeout time.Duration) bool {
	return fsutil.WaitForDevice(pathname, timeout, o.logger)
}

func (o *OS) Exists(pathname string) bool {
	_, err := os.Stat(pathname)
	return err == nil
}

// FindFilesystem asks blkid for the device carrying the tag. If blkid has no
// answer the udev link is returned, which may appear later.
func (o *OS) FindFilesystem(spec fstab.Specifier) (string, error) {
	switch spec.Kind {
	case fstab.KindPath:
		return spec.Value, nil
	case fstab.KindPseudo:
		return "", fmt.Errorf("%s is not a block device", spec.Value)
	}
	output, err := o.runOutput("blkid", "-l", "-o", "device", "-t",
		spec.String())
	if err == nil {
		if device := strings.TrimSpace(string(output)); device != "" {
			return device, nil
		}
	}
	return spec.DevicePath(), nil
}

func (o *OS) Format(device, fsType, label string) error {
	args := []string{"-F"}
	if fsType == "vfat" || fsType == "fat" {
		args = []string{}
		if label != "" {
			args = append(args, "-n", label)
		}
	} else if label != "" {
		args = append(args, "-L", label)
	}
	args = append(args, device)
	return o.run("mkfs."+fsType, nil, args...)
}

// InspectDevice follows symbolic links (such as /dev/disk/by-uuid/...) and
// finds the parent disk of a partition through sysfs.
func (o *OS) InspectDevice(pathname string) (*BlockDevice, error) {
	canonical, err := filepath.EvalSymlinks(pathname)
	if err != nil {
		return nil, err
	}
	device := &BlockDevice{Path: canonical, Disk: canonical}
	sysPath, err := filepath.EvalSymlinks(
		filepath.Join(sysClassBlock, filepath.Base(canonical)))
	if err != nil {
		return nil, fmt.Errorf("%s is not a block device: %s", canonical, err)
	}
	if _, err := os.Stat(filepath.Join(sysPath, "partition")); err == nil {
		device.Disk = filepath.Join("/dev", filepath.Base(filepath.Dir(sysPath)))
	}
	return device, nil
}

func (o *OS) MakeDir(pathname string) error {
	return os.MkdirAll(pathname, fsutil.DirPerms)
}

func (o *OS) Mount(plan MountPlan) error {
	flags, data := splitOptions(plan.Options)
	if plan.ReadOnly {
		flags |= wsyscall.MS_RDONLY
	}
	o.logger.Debugf(0, "mount %s\n", plan)
	return wsyscall.Mount(plan.Source, plan.Target, plan.Type, flags, data)
}

// MoveMount moves a mount and checks the mount table to confirm that it
// arrived.
func (o *OS) MoveMount(source, target string) error {
	o.logger.Debugf(0, "move mount %s to %s\n", source, target)
	if err := wsyscall.MoveMount(source, target); err != nil {
		return err
	}
	table, err := mounts.GetMountTable()
	if err != nil {
		return err
	}
	if table.Lookup(target) == nil {
		return fmt.Errorf("nothing mounted on %s after move", target)
	}
	return nil
}

// Partition replaces the partition table of device with a single primary
// partition spanning the device and waits for the partition node.
func (o *OS) Partition(device string, typeID uint8) (string, error) {
	script := fmt.Sprintf("label: dos\n,,%x\n", typeID)
	err := o.run("sfdisk", strings.NewReader(script), "--wipe", "always",
		"--wipe-partitions", "always", device)
	if err != nil {
		return "", err
	}
	if err := o.run("partprobe", nil, device); err != nil {
		o.logger.Debugf(0, "%s\n", err)
	}
	partition := partitionName(device, 1)
	if !fsutil.WaitForDevice(partition, o.partitionWait, o.logger) {
		return "", fmt.Errorf("partition %s did not appear", partition)
	}
	return partition, nil
}

// PivotRoot makes newRoot the root and changes to it.
func (o *OS) PivotRoot(newRoot, putOld string) error {
	o.logger.Debugf(0, "pivot_root %s %s\n", newRoot, putOld)
	if err := wsyscall.PivotRoot(newRoot, putOld); err != nil {
		return err
	}
	return wsyscall.Chdir("/")
}

func (o *OS) ReadFile(pathname string) ([]byte, error) {
	return os.ReadFile(pathname)
}

func (o *OS) ReadPartitionLayout(device string) (*PartitionLayout, error) {
	file, err := os.Open(device)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	partitionTable, err := mbr.Decode(file)
	if err != nil {
		return nil, err
	}
	if partitionTable == nil {
		return &PartitionLayout{}, nil
	}
	layout := &PartitionLayout{Count: partitionTable.CountPartitions()}
	last, ok := partitionTable.LastPartition()
	if !ok {
		return layout, nil
	}
	layout.LastTypeID = partitionTable.GetPartitionType(last)
	layout.LastPath = partitionName(device, int(last)+1)
	output, err := o.runOutput("blkid", "-o", "value", "-s", "TYPE",
		layout.LastPath)
	if err == nil {
		layout.LastFsType = strings.TrimSpace(string(output))
	}
	return layout, nil
}

func (o *OS) Unmount(target string, detach bool) error {
	var flags int
	if detach {
		flags = wsyscall.MNT_DETACH
	}
	o.logger.Debugf(0, "unmount %s\n", target)
	return wsyscall.Unmount(target, flags)
}

func (o *OS) WriteFile(pathname string, data []byte) error {
	return os.WriteFile(pathname, data, fsutil.PublicFilePerms)
}

func partitionName(devpath string, partitionNumber int) string {
	devLeafName := filepath.Base(devpath)
	partitionName := "p" + strconv.Itoa(partitionNumber)
	_, err := os.Stat(filepath.Join(sysClassBlock, devLeafName,
		devLeafName+partitionName))
	if err == nil {
		return devpath + partitionName
	}
	if last := devLeafName[len(devLeafName)-1]; last >= '0' && last <= '9' {
		return devpath + partitionName
	}
	return devpath + strconv.Itoa(partitionNumber)
}

func (o *OS) run(name string, stdin *strings.Reader, args ...string) error {
	_, err := o.command(name, stdin, true, args...)
	return err
}

func (o *OS) runOutput(name string, args ...string) ([]byte, error) {
	return o.command(name, nil, false, args...)
}

func (o *OS) command(name string, stdin *strings.Reader, combined bool,
	args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(path, args...)
	cmd.WaitDelay = time.Second
	if stdin != nil {
		cmd.Stdin = stdin
	}
	o.logger.Debugf(0, "running: %s %s\n", name, strings.Join(args, " "))
	var output []byte
	if combined {
		output, err = cmd.CombinedOutput()
	} else {
		stderr := &bytes.Buffer{}
		cmd.Stderr = stderr
		output, err = cmd.Output()
		if err != nil {
			output = stderr.Bytes()
		}
	}
	if err != nil {
		if err == exec.ErrWaitDelay {
			return output, nil
		}
		return nil, fmt.Errorf("error running: %s: %s, output: %s",
			name, err, output)
	}
	return output, nil
}
