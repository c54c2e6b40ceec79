//go:build !linux
// +build !linux

package sysops

import (
	"errors"
	"os"
	"time"

	"github.com/Cloud-Foundations/overlayroot/overlayroot/fstab"
)

var errNotSupported = errors.New("not supported on this platform")

func (o *OS) AppendFile(pathname string, data []byte) error {
	return errNotSupported
}

func (o *OS) AwaitDevice(pathname string, timeout time.Duration) bool {
	return false
}

func (o *OS) Exists(pathname string) bool {
	_, err := os.Stat(pathname)
	return err == nil
}

func (o *OS) FindFilesystem(spec fstab.Specifier) (string, error) {
	return "", errNotSupported
}

func (o *OS) Format(device, fsType, label string) error {
	return errNotSupported
}

func (o *OS) InspectDevice(pathname string) (*BlockDevice, error) {
	return nil, errNotSupported
}

func (o *OS) MakeDir(pathname string) error {
	return errNotSupported
}

func (o *OS) Mount(plan MountPlan) error {
	return errNotSupported
}

func (o *OS) MoveMount(source, target string) error {
	return errNotSupported
}

func (o *OS) Partition(device string, typeID uint8) (string, error) {
	return "", errNotSupported
}

func (o *OS) PivotRoot(newRoot, putOld string) error {
	return errNotSupported
}

func (o *OS) ReadFile(pathname string) ([]byte, error) {
	return os.ReadFile(pathname)
}

func (o *OS) ReadPartitionLayout(device string) (*PartitionLayout, error) {
	return nil, errNotSupported
}

func (o *OS) Unmount(target string, detach bool) error {
	return errNotSupported
}

func (o *OS) WriteFile(pathname string, data []byte) error {
	return errNotSupported
}
