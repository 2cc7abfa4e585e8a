package pqgen

import (
	"fmt"
	"time"
)

// ConnectError reports a failed connection attempt, carrying the
// connection object's diagnostic text.
type ConnectError struct {
	Message string
	err     error
}

func (e *ConnectError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("connection failed: %s", e.err)
	}
	return fmt.Sprintf("connection failed: %s", e.Message)
}

func (e *ConnectError) Unwrap() error { return e.err }

// TimeoutError reports that a WaitSelect deadline elapsed before the
// generator completed. It is recoverable; the caller may retry or abandon
// the generator.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout expired after %v", e.After)
}

func (e *TimeoutError) Timeout() bool { return true }
