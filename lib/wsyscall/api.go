package wsyscall

const (
	MS_BIND = 1 << iota
	MS_RDONLY
	MS_MOVE
	MS_NOATIME
	MS_NODEV
	MS_NODIRATIME
	MS_NOEXEC
	MS_NOSUID
	MS_RELATIME
	MS_SYNCHRONOUS
)

const (
	MNT_DETACH = 1 << iota
	MNT_FORCE
)

// Chdir changes the working directory of the process.
func Chdir(path string) error {
	return chdir(path)
}

// Exec replaces the current process image. It only returns on error.
func Exec(argv0 string, argv []string, envv []string) error {
	return exec(argv0, argv, envv)
}

// Mount is a portable wrapper for the mount(2) system call. The flags are the
// MS_* constants defined in this package.
func Mount(source string, target string, fstype string, flags uintptr,
	data string) error {
	return mount(source, target, fstype, flags, data)
}

// MoveMount atomically moves the mount at source to target.
func MoveMount(source string, target string) error {
	return mount(source, target, "", MS_MOVE, "")
}

// PivotRoot moves the root file-system of the calling process to putOld and
// makes newRoot the new root file-system.
func PivotRoot(newRoot string, putOld string) error {
	return pivotRoot(newRoot, putOld)
}

// Sync commits file-system caches to disk.
func Sync() error {
	return sync()
}

// Unmount is a portable wrapper for the umount2(2) system call. The flags are
// the MNT_* constants defined in this package.
func Unmount(target string, flags int) error {
	return unmount(target, flags)
}
