package pqgen

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// PipelineCommand is one queued unit of pipeline work: a closure that
// dispatches wire bytes on the connection (a query, a flush request, a
// sync). Commands are consumed exactly once, in order.
type PipelineCommand func() error

// PipelineQueue is a FIFO of pending pipeline commands.
type PipelineQueue struct {
	cmds []PipelineCommand
}

func (q *PipelineQueue) Enqueue(cmd PipelineCommand) {
	q.cmds = append(q.cmds, cmd)
}

func (q *PipelineQueue) Len() int {
	return len(q.cmds)
}

func (q *PipelineQueue) pop() (PipelineCommand, bool) {
	if len(q.cmds) == 0 {
		return nil, false
	}
	cmd := q.cmds[0]
	q.cmds[0] = nil
	q.cmds = q.cmds[1:]
	return cmd, true
}

// PipelineCommunicate processes a queue of pipeline commands, interleaving
// "send next command" with "drain available results" so the pipeline's
// flow-control buffering cannot head-of-line block either direction.
//
// Result group i of Results corresponds exactly to command i: a command's
// results run until the connection reports the response boundary, and a
// sync command's lone pipeline-sync result forms its own group.
type PipelineCommunicate struct {
	conn    Conn
	queue   *PipelineQueue
	sent    int
	results [][]Result
	current []Result
	flushed bool
	done    bool
}

func NewPipelineCommunicate(conn Conn, queue *PipelineQueue) *PipelineCommunicate {
	return &PipelineCommunicate{conn: conn, queue: queue}
}

// Results returns the per-command result groups once the generator is
// done, in command submission order.
func (p *PipelineCommunicate) Results() [][]Result { return p.results }

func (p *PipelineCommunicate) Resume(ready Ready) (*WaitRequest, error) {
	if p.done {
		return nil, nil
	}

	if ready&ReadyRead != 0 {
		if err := p.drainResults(); err != nil {
			return nil, err
		}
	}

	if ready&ReadyWrite != 0 || ready == ReadyNone {
		if err := p.sendCommands(); err != nil {
			return nil, err
		}
	}

	if p.flushed && p.queue.Len() == 0 && len(p.results) == p.sent {
		p.done = true
		return nil, nil
	}

	want := WantRead
	if !p.flushed || p.queue.Len() > 0 {
		want |= WantWrite
	}
	return waitFor(want), nil
}

func (p *PipelineCommunicate) drainResults() error {
	if err := p.conn.ConsumeInput(); err != nil {
		return err
	}

	for !p.conn.IsBusy() {
		res := p.conn.GetResult()
		if res == nil {
			// Response boundary. An empty current group means there was
			// nothing more to read yet.
			if len(p.current) == 0 {
				return nil
			}
			p.results = append(p.results, p.current)
			p.current = nil
			continue
		}

		if res.Status() == PipelineSync {
			if len(p.current) > 0 {
				p.results = append(p.results, p.current)
				p.current = nil
			}
			p.results = append(p.results, []Result{res})
			continue
		}

		p.current = append(p.current, res)
	}
	return nil
}

// sendCommands pops commands left-to-right, flushing as it goes, and stops
// when the socket buffer fills so the send sequence resumes where it left
// off rather than restarting.
func (p *PipelineCommunicate) sendCommands() error {
	done, err := p.conn.Flush()
	if err != nil {
		return err
	}
	if !done {
		p.flushed = false
		return nil
	}

	for {
		cmd, ok := p.queue.pop()
		if !ok {
			break
		}
		if err := cmd(); err != nil {
			return err
		}
		p.sent++

		done, err := p.conn.Flush()
		if err != nil {
			return err
		}
		if !done {
			p.flushed = false
			return nil
		}
	}

	p.flushed = true
	return nil
}

// The pipeline protocol requires server 14 or later. server_version may
// carry a vendor suffix such as "14.5 (Debian 14.5-1.pgdg110+1)".
var pipelineConstraint = mustConstraint(">= 14.0.0")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// PipelineSupported reports whether the server_version parameter names a
// server new enough for pipeline mode.
func PipelineSupported(serverVersion string) bool {
	fields := strings.Fields(serverVersion)
	if len(fields) == 0 {
		return false
	}
	v, err := semver.NewVersion(strings.TrimSuffix(fields[0], "beta"))
	if err != nil {
		return false
	}
	return pipelineConstraint.Check(v)
}
