package fsutil

import (
	"syscall"
	"time"

	"github.com/Cloud-Foundations/overlayroot/lib/log"
)

const (
	DirPerms = syscall.S_IRWXU | syscall.S_IRGRP | syscall.S_IXGRP |
		syscall.S_IROTH | syscall.S_IXOTH
	PrivateFilePerms = syscall.S_IRUSR | syscall.S_IWUSR
	PublicFilePerms  = PrivateFilePerms | syscall.S_IRGRP | syscall.S_IROTH
)

// WaitForDevice waits up to timeout for pathname to exist. Existence is
// checked once per second, and also whenever an entry in the parent directory
// changes, so that the wait ends as soon as the device appears. It returns
// true if pathname exists. It never blocks longer than timeout.
func WaitForDevice(pathname string, timeout time.Duration,
	logger log.DebugLogger) bool {
	return waitForDevice(pathname, timeout, logger)
}
