package retry

import (
	"errors"
	"time"
)

var (
	ErrTimedOut       = errors.New("timed out")
	ErrTooManyRetries = errors.New("too many retries")
)

type Params struct {
	MaxRetries   uint64        // Default: unlimited.
	RetryTimeout time.Duration // Default: unlimited.
	Sleeper      Sleeper       // Default: 100 milliseconds.
}

// Sleeper is called between attempts. It is given the time remaining before
// the retry timeout expires, or a negative value if there is no timeout.
type Sleeper interface {
	Sleep(remaining time.Duration)
}

// Retry will run the specified function until it returns true or retry limits
// are exceeded. It returns ErrTimedOut or ErrTooManyRetries if retry limits
// are exceeded.
func Retry(fn func() bool, params Params) error {
	return retry(fn, params)
}

// NewIntervalSleeper returns a Sleeper which sleeps for interval, or for the
// remaining time if that is shorter.
func NewIntervalSleeper(interval time.Duration) Sleeper {
	return &intervalSleeper{interval: interval, sleep: time.Sleep}
}
