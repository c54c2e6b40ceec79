//go:build !linux
// +build !linux

package fsutil

import (
	"github.com/Cloud-Foundations/overlayroot/lib/log"
)

func watchDirectory(dirname string, logger log.DebugLogger) (
	<-chan struct{}, func()) {
	return nil, nil
}
