package pqgen_test

import (
	"github.com/pqstep/pqstep/pqgen"
)

// scriptConn is an in-memory pqgen.Conn with scripted flush and busy
// behavior. GetResult pops entries; a nil entry is a response boundary.
type scriptConn struct {
	status pqgen.ConnStatus

	flushScript  []bool // successive Flush return values; exhausted = true
	flushCalls   int
	flushErr     error
	consumeCalls int
	busyConsumes int // IsBusy until this many ConsumeInput calls
	consumeErr   error

	results []popEntry
	errMsg  string
}

type popEntry struct {
	res pqgen.Result
}

func (c *scriptConn) push(res pqgen.Result) {
	c.results = append(c.results, popEntry{res: res})
}

func (c *scriptConn) pushBoundary() {
	c.results = append(c.results, popEntry{})
}

func (c *scriptConn) Socket() (int, error)      { return 0, nil }
func (c *scriptConn) Status() pqgen.ConnStatus  { return c.status }
func (c *scriptConn) ConnectPoll() pqgen.Polling { return pqgen.PollingOK }

func (c *scriptConn) Flush() (bool, error) {
	if c.flushErr != nil {
		return false, c.flushErr
	}
	c.flushCalls++
	if c.flushCalls <= len(c.flushScript) {
		return c.flushScript[c.flushCalls-1], nil
	}
	return true, nil
}

func (c *scriptConn) ConsumeInput() error {
	if c.consumeErr != nil {
		return c.consumeErr
	}
	c.consumeCalls++
	return nil
}

func (c *scriptConn) IsBusy() bool {
	return c.consumeCalls < c.busyConsumes
}

func (c *scriptConn) GetResult() pqgen.Result {
	if len(c.results) == 0 {
		return nil
	}
	entry := c.results[0]
	c.results = c.results[1:]
	return entry.res
}

func (c *scriptConn) ErrorMessage() string { return c.errMsg }

// stubResult carries only a status.
type stubResult struct {
	status pqgen.ResultStatus
	name   string
}

func (r *stubResult) Status() pqgen.ResultStatus { return r.status }
func (r *stubResult) NTuples() int               { return 0 }
func (r *stubResult) NFields() int               { return 0 }
func (r *stubResult) FieldName(int) string       { return "" }
func (r *stubResult) FieldOID(int) uint32        { return 0 }
func (r *stubResult) FieldFormat(int) int16      { return 0 }
func (r *stubResult) Value(int, int) []byte      { return nil }
func (r *stubResult) ErrorMessage() string       { return "" }

// pump drives a generator to completion without a socket, translating
// wait requests directly into readiness.
func pump(gen pqgen.Generator) error {
	ready := pqgen.ReadyNone
	for i := 0; i < 1000; i++ {
		wr, err := gen.Resume(ready)
		if err != nil {
			return err
		}
		if wr == nil {
			return nil
		}
		ready = 0
		if wr.Want&pqgen.WantRead != 0 {
			ready |= pqgen.ReadyRead
		}
		if wr.Want&pqgen.WantWrite != 0 {
			ready |= pqgen.ReadyWrite
		}
	}
	panic("generator did not finish")
}
