package pqgen_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pqstep/pqstep/pqgen"
)

// waitGen suspends with scripted wait requests and records how it was
// resumed.
type waitGen struct {
	requests []*pqgen.WaitRequest
	resumes  []pqgen.Ready
}

func (g *waitGen) Resume(ready pqgen.Ready) (*pqgen.WaitRequest, error) {
	g.resumes = append(g.resumes, ready)
	if len(g.requests) == 0 {
		return nil, nil
	}
	wr := g.requests[0]
	g.requests = g.requests[1:]
	return wr, nil
}

func testPipe(t *testing.T) (r, w *os.File) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		r.Close()
		w.Close()
	})
	return r, w
}

func TestWaitSelectZeroTimeoutExpires(t *testing.T) {
	r, _ := testPipe(t)

	gen := &waitGen{requests: []*pqgen.WaitRequest{
		{Want: pqgen.WantRead, Fd: -1},
	}}

	err := pqgen.WaitSelect(gen, int(r.Fd()), 0)

	var te *pqgen.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Timeout())
}

func TestWaitSelectReadReadiness(t *testing.T) {
	r, w := testPipe(t)
	_, err := w.Write([]byte("x"))
	require.NoError(t, err)

	gen := &waitGen{requests: []*pqgen.WaitRequest{
		{Want: pqgen.WantRead, Fd: -1},
	}}

	require.NoError(t, pqgen.WaitSelect(gen, int(r.Fd()), time.Second))
	require.Len(t, gen.resumes, 2)
	assert.Equal(t, pqgen.ReadyNone, gen.resumes[0])
	assert.Equal(t, pqgen.ReadyRead, gen.resumes[1]&pqgen.ReadyRead)
}

func TestWaitSelectWriteReadiness(t *testing.T) {
	_, w := testPipe(t)

	gen := &waitGen{requests: []*pqgen.WaitRequest{
		{Want: pqgen.WantWrite, Fd: -1},
	}}

	require.NoError(t, pqgen.WaitSelect(gen, int(w.Fd()), time.Second))
	require.Len(t, gen.resumes, 2)
	assert.Equal(t, pqgen.ReadyWrite, gen.resumes[1]&pqgen.ReadyWrite)
}

func TestWaitSelectFdOverride(t *testing.T) {
	quiet, _ := testPipe(t)
	_, noisy := testPipe(t)

	// The request's own descriptor wins over the driver's.
	gen := &waitGen{requests: []*pqgen.WaitRequest{
		{Want: pqgen.WantWrite, Fd: int(noisy.Fd())},
	}}

	require.NoError(t, pqgen.WaitSelect(gen, int(quiet.Fd()), time.Second))
}

func TestWaitSelectPollIntervalHint(t *testing.T) {
	r, _ := testPipe(t)

	// Nothing arrives; the hint wakes the generator with ReadyNone
	// instead of failing.
	gen := &waitGen{requests: []*pqgen.WaitRequest{
		{Want: pqgen.WantRead, Fd: -1, Timeout: 5 * time.Millisecond},
	}}

	require.NoError(t, pqgen.WaitSelect(gen, int(r.Fd()), pqgen.NoTimeout))
	require.Len(t, gen.resumes, 2)
	assert.Equal(t, pqgen.ReadyNone, gen.resumes[1])
}

func TestWaitSelectNoSuspension(t *testing.T) {
	gen := &waitGen{}
	require.NoError(t, pqgen.WaitSelect(gen, -1, pqgen.NoTimeout))
	assert.Equal(t, []pqgen.Ready{pqgen.ReadyNone}, gen.resumes)
}

func TestWaitSelectSubMillisecondTimeout(t *testing.T) {
	r, _ := testPipe(t)

	// A remainder under one millisecond must still sleep rather than spin
	// on zero-interval polls until the deadline passes.
	gen := &waitGen{requests: []*pqgen.WaitRequest{
		{Want: pqgen.WantRead, Fd: -1},
	}}

	start := time.Now()
	err := pqgen.WaitSelect(gen, int(r.Fd()), 500*time.Microsecond)
	elapsed := time.Since(start)

	var te *pqgen.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Less(t, elapsed, time.Second)
}

func TestWaitSelectSubMillisecondHint(t *testing.T) {
	r, _ := testPipe(t)

	gen := &waitGen{requests: []*pqgen.WaitRequest{
		{Want: pqgen.WantRead, Fd: -1, Timeout: 200 * time.Microsecond},
	}}

	require.NoError(t, pqgen.WaitSelect(gen, int(r.Fd()), pqgen.NoTimeout))
	require.Len(t, gen.resumes, 2)
	assert.Equal(t, pqgen.ReadyNone, gen.resumes[1])
}

func TestWaitSelectDeadlineWhileBlocked(t *testing.T) {
	r, _ := testPipe(t)

	gen := &waitGen{requests: []*pqgen.WaitRequest{
		{Want: pqgen.WantRead, Fd: -1},
	}}

	start := time.Now()
	err := pqgen.WaitSelect(gen, int(r.Fd()), 20*time.Millisecond)
	elapsed := time.Since(start)

	var te *pqgen.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 20*time.Millisecond, te.After)
	assert.Less(t, elapsed, 5*time.Second)
}
