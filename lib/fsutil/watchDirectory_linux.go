package fsutil

import (
	"github.com/Cloud-Foundations/overlayroot/lib/log"
	"github.com/fsnotify/fsnotify"
)

// watchDirectory returns a channel which receives a value whenever an entry in
// dirname is created or changed, and a function to stop watching. A nil
// channel is returned if the directory cannot be watched (for example because
// it does not exist yet).
func watchDirectory(dirname string, logger log.DebugLogger) (
	<-chan struct{}, func()) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Debugf(1, "error creating watcher: %s\n", err)
		return nil, nil
	}
	if err := watcher.Add(dirname); err != nil {
		logger.Debugf(1, "error adding watch for: %s: %s\n", dirname, err)
		watcher.Close()
		return nil, nil
	}
	channel := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				select {
				case channel <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Debugf(1, "error with watcher: %s\n", err)
			}
		}
	}()
	return channel, func() {
		watcher.Close()
		<-done
	}
}
