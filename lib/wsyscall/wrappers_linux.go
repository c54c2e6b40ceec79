package wsyscall

import (
	"golang.org/x/sys/unix"
)

var mountFlagTable = []struct {
	flag      uintptr
	linuxFlag uintptr
}{
	{MS_BIND, unix.MS_BIND},
	{MS_RDONLY, unix.MS_RDONLY},
	{MS_MOVE, unix.MS_MOVE},
	{MS_NOATIME, unix.MS_NOATIME},
	{MS_NODEV, unix.MS_NODEV},
	{MS_NODIRATIME, unix.MS_NODIRATIME},
	{MS_NOEXEC, unix.MS_NOEXEC},
	{MS_NOSUID, unix.MS_NOSUID},
	{MS_RELATIME, unix.MS_RELATIME},
	{MS_SYNCHRONOUS, unix.MS_SYNCHRONOUS},
}

func chdir(path string) error {
	return unix.Chdir(path)
}

func exec(argv0 string, argv []string, envv []string) error {
	return unix.Exec(argv0, argv, envv)
}

func mount(source string, target string, fstype string, flags uintptr,
	data string) error {
	var linuxFlags uintptr
	for _, entry := range mountFlagTable {
		if flags&entry.flag != 0 {
			linuxFlags |= entry.linuxFlag
		}
	}
	return unix.Mount(source, target, fstype, linuxFlags, data)
}

func pivotRoot(newRoot string, putOld string) error {
	return unix.PivotRoot(newRoot, putOld)
}

func sync() error {
	unix.Sync()
	return nil
}

func unmount(target string, flags int) error {
	var linuxFlags int
	if flags&MNT_DETACH != 0 {
		linuxFlags |= unix.MNT_DETACH
	}
	if flags&MNT_FORCE != 0 {
		linuxFlags |= unix.MNT_FORCE
	}
	return unix.Unmount(target, linuxFlags)
}
