// Package pqgen contains the suspend/resume state machines that drive a
// PostgreSQL connection through connect, execute, send, fetch and pipeline
// phases without blocking on network latency.
//
// A generator is advanced by exactly one driver at a time. Each call to
// Resume runs the machine until it either finishes or needs the socket:
// a non-nil *WaitRequest asks the driver to poll for readiness, a nil
// request with nil error means the machine is done, and a non-nil error
// means it failed. Cancellation is simply ceasing to call Resume; any
// partially flushed output is resumable from where it left off, so the
// connection stays usable for the next operation.
//
// The connection itself is external. The package only sees it through the
// Conn interface, which mirrors the non-blocking subset of libpq: the
// machines never touch the network directly.
package pqgen

import (
	"time"
)

// ConnStatus is the connection lifecycle state reported by a Conn.
type ConnStatus int32

const (
	ConnStatusOK ConnStatus = iota
	ConnStatusBad
	ConnStatusConnecting
)

// Polling is a Conn's answer during connection establishment, in the
// manner of PQconnectPoll.
type Polling int32

const (
	PollingFailed Polling = iota
	PollingReading
	PollingWriting
	PollingOK
)

// ResultStatus values match libpq's ExecStatusType.
type ResultStatus int32

const (
	EmptyQuery ResultStatus = iota
	CommandOK
	TuplesOK
	CopyOut
	CopyIn
	BadResponse
	NonfatalError
	FatalError
	CopyBoth
	SingleTuple
	PipelineSync
	PipelineAborted
)

func (s ResultStatus) String() string {
	switch s {
	case EmptyQuery:
		return "EMPTY_QUERY"
	case CommandOK:
		return "COMMAND_OK"
	case TuplesOK:
		return "TUPLES_OK"
	case CopyOut:
		return "COPY_OUT"
	case CopyIn:
		return "COPY_IN"
	case BadResponse:
		return "BAD_RESPONSE"
	case NonfatalError:
		return "NONFATAL_ERROR"
	case FatalError:
		return "FATAL_ERROR"
	case CopyBoth:
		return "COPY_BOTH"
	case SingleTuple:
		return "SINGLE_TUPLE"
	case PipelineSync:
		return "PIPELINE_SYNC"
	case PipelineAborted:
		return "PIPELINE_ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Conn is the external connection object the generators drive. It exposes
// the non-blocking send/receive primitives of a libpq-style connection
// handle and a pollable file descriptor. A Conn is exclusively owned by
// one generator's execution at a time.
type Conn interface {
	// Socket returns the descriptor to poll. It may change between calls
	// while a connection attempt is in progress.
	Socket() (int, error)

	Status() ConnStatus

	// ConnectPoll advances a non-blocking connection attempt.
	ConnectPoll() Polling

	// Flush attempts to send any queued output. done is false when the
	// socket buffer is full and more remains to send.
	Flush() (done bool, err error)

	// ConsumeInput reads available data from the socket into the
	// connection's buffers.
	ConsumeInput() error

	// IsBusy reports whether GetResult would have to wait for more input.
	IsBusy() bool

	// GetResult returns the next available result, or nil when the current
	// query's results are fully consumed.
	GetResult() Result

	// ErrorMessage returns the connection's latest diagnostic text.
	ErrorMessage() string
}

// Result is one query result produced by the connection object. Row and
// field data is owned by the result; Value returns nil for SQL NULL.
type Result interface {
	Status() ResultStatus
	NTuples() int
	NFields() int
	FieldName(col int) string
	FieldOID(col int) uint32
	FieldFormat(col int) int16
	Value(row, col int) []byte
	ErrorMessage() string
}

// Want is the file descriptor interest yielded by a generator.
type Want int

const (
	WantRead Want = 1 << iota
	WantWrite
)

// Ready is the readiness signal a generator is resumed with. Zero means
// the request's poll interval elapsed without readiness.
type Ready int

const (
	ReadyNone  Ready = 0
	ReadyRead  Ready = 1
	ReadyWrite Ready = 2
)

// WaitRequest is a generator's yield value: what to poll for before the
// next Resume.
type WaitRequest struct {
	Want Want

	// Fd overrides the driver's descriptor when non-negative. Connection
	// establishment needs this because the descriptor may change between
	// attempts.
	Fd int

	// Timeout is an optional poll interval hint. Zero means no hint. When
	// it elapses the driver resumes the generator with ReadyNone instead
	// of failing.
	Timeout time.Duration
}

// Generator is the suspend/resume contract consumed by WaitSelect.
type Generator interface {
	Resume(ready Ready) (*WaitRequest, error)
}

func waitFor(want Want) *WaitRequest {
	return &WaitRequest{Want: want, Fd: -1}
}
