package fsutil

import (
	"os"
	"path/filepath"
	"time"

	"github.com/Cloud-Foundations/overlayroot/lib/log"
	"github.com/Cloud-Foundations/overlayroot/lib/retry"
)

var pollInterval = time.Second

type notifySleeper struct {
	events   <-chan struct{}
	interval time.Duration
}

func waitForDevice(pathname string, timeout time.Duration,
	logger log.DebugLogger) bool {
	exists := func() bool {
		_, err := os.Stat(pathname)
		return err == nil
	}
	if exists() {
		return true
	}
	if timeout <= 0 {
		return false
	}
	sleeper := &notifySleeper{interval: pollInterval}
	events, stop := watchDirectory(filepath.Dir(pathname), logger)
	if events != nil {
		sleeper.events = events
		defer stop()
	}
	startTime := time.Now()
	err := retry.Retry(exists, retry.Params{
		RetryTimeout: timeout,
		Sleeper:      sleeper,
	})
	if err != nil {
		logger.Debugf(0, "%s not present after %s\n", pathname, timeout)
		return false
	}
	logger.Debugf(0, "%s present after %s\n", pathname, time.Since(startTime))
	return true
}

func (s *notifySleeper) Sleep(remaining time.Duration) {
	interval := s.interval
	if remaining >= 0 && remaining < interval {
		interval = remaining
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-s.events:
	}
}
