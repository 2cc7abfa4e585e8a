package pqgen

import (
	"time"

	"golang.org/x/sys/unix"
)

// NoTimeout makes WaitSelect wait as long as the generator needs.
const NoTimeout = time.Duration(-1)

// WaitSelect pumps gen to completion, polling fd according to each wait
// request. A request carrying its own descriptor overrides fd for that
// suspension.
//
// A non-negative timeout is a wall-clock bound measured from this call; if
// it elapses before the generator finishes, WaitSelect fails with
// *TimeoutError (a timeout of zero allows at most one poll). Errors raised
// by the generator itself propagate unchanged. One driver per generator
// instance: abandoning the call leaves the generator resumable.
func WaitSelect(gen Generator, fd int, timeout time.Duration) error {
	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}

	ready := ReadyNone
	for {
		wr, err := gen.Resume(ready)
		if err != nil {
			return err
		}
		if wr == nil {
			return nil
		}

		pollFd := fd
		if wr.Fd >= 0 {
			pollFd = wr.Fd
		}

		var events int16
		if wr.Want&WantRead != 0 {
			events |= unix.POLLIN
		}
		if wr.Want&WantWrite != 0 {
			events |= unix.POLLOUT
		}

		ready, err = pollOnce(pollFd, events, deadline, wr.Timeout, timeout)
		if err != nil {
			return err
		}
	}
}

func pollOnce(fd int, events int16, deadline time.Time, hint, timeout time.Duration) (Ready, error) {
	for {
		interval := -1 // block until ready
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining < 0 {
				remaining = 0
			}
			interval = int(remaining.Milliseconds())
			// Round a sub-millisecond remainder up so the loop sleeps
			// instead of spinning on zero-interval polls.
			if interval == 0 && remaining > 0 {
				interval = 1
			}
		}
		if hint > 0 {
			hintMs := int(hint.Milliseconds())
			if hintMs == 0 {
				hintMs = 1
			}
			if interval < 0 || hintMs < interval {
				interval = hintMs
			}
		}

		fds := []unix.PollFd{{Fd: int32(fd), Events: events}}
		n, err := unix.Poll(fds, interval)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return ReadyNone, err
		}

		if n == 0 {
			if !deadline.IsZero() && !time.Now().Before(deadline) {
				return ReadyNone, &TimeoutError{After: timeout}
			}
			if hint > 0 {
				// The generator asked to be woken after its hint interval.
				return ReadyNone, nil
			}
			continue
		}

		var ready Ready
		if fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			ready |= ReadyRead
		}
		if fds[0].Revents&unix.POLLOUT != 0 {
			ready |= ReadyWrite
		}
		return ready, nil
	}
}
