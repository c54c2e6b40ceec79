package retry

import (
	"time"
)

var defaultSleeper = NewIntervalSleeper(100 * time.Millisecond)

type intervalSleeper struct {
	interval time.Duration
	sleep    func(time.Duration)
}

func retry(fn func() bool, params Params) error {
	params.prepare()
	stopTime := time.Now().Add(params.RetryTimeout)
	var tryCount uint64
	for {
		tryCount++
		if fn() {
			return nil
		}
		remaining := time.Duration(-1)
		if params.RetryTimeout > 0 {
			remaining = time.Until(stopTime)
			if remaining <= 0 {
				return ErrTimedOut
			}
		}
		if params.MaxRetries > 0 && tryCount >= params.MaxRetries {
			return ErrTooManyRetries
		}
		params.Sleeper.Sleep(remaining)
	}
}

func (p *Params) prepare() {
	if p.Sleeper == nil {
		p.Sleeper = defaultSleeper
	}
}

func (s *intervalSleeper) Sleep(remaining time.Duration) {
	interval := s.interval
	if remaining >= 0 && remaining < interval {
		interval = remaining
	}
	s.sleep(interval)
}
