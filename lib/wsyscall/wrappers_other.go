//go:build !linux
// +build !linux

package wsyscall

import (
	"errors"
	"syscall"
)

var errNotSupported = errors.New("not supported on this platform")

func chdir(path string) error {
	return syscall.Chdir(path)
}

func exec(argv0 string, argv []string, envv []string) error {
	return errNotSupported
}

func mount(source string, target string, fstype string, flags uintptr,
	data string) error {
	return errNotSupported
}

func pivotRoot(newRoot string, putOld string) error {
	return errNotSupported
}

func sync() error {
	return nil
}

func unmount(target string, flags int) error {
	return errNotSupported
}
