package pqgen

// Send drains the connection's outbound buffer, suspending on writable-wait
// while the socket buffer is full. It also consumes input when the socket
// turns readable, so a server that responds before the request is fully
// flushed cannot deadlock both sides on full buffers.
type Send struct {
	conn Conn
	done bool
}

func NewSend(conn Conn) *Send {
	return &Send{conn: conn}
}

func (s *Send) Resume(ready Ready) (*WaitRequest, error) {
	if s.done {
		return nil, nil
	}

	if ready&ReadyRead != 0 {
		if err := s.conn.ConsumeInput(); err != nil {
			return nil, err
		}
	}

	done, err := s.conn.Flush()
	if err != nil {
		return nil, err
	}
	if !done {
		return waitFor(WantRead | WantWrite), nil
	}

	s.done = true
	return nil, nil
}

// Fetch produces at most one result: it waits until the connection is no
// longer busy and takes whatever GetResult returns, which may be nil when
// the response is exhausted.
type Fetch struct {
	conn Conn
	res  Result
	done bool
}

func NewFetch(conn Conn) *Fetch {
	return &Fetch{conn: conn}
}

// Result returns the fetched result once the generator is done. nil means
// no result was pending.
func (f *Fetch) Result() Result { return f.res }

func (f *Fetch) Resume(ready Ready) (*WaitRequest, error) {
	if f.done {
		return nil, nil
	}

	if ready&ReadyRead != 0 {
		if err := f.conn.ConsumeInput(); err != nil {
			return nil, err
		}
	}

	if f.conn.IsBusy() {
		return waitFor(WantRead), nil
	}

	f.res = f.conn.GetResult()
	f.done = true
	return nil, nil
}

// FetchMany drains every result the current response produces, suspending
// only while the connection is busy. It stops early on COPY and
// pipeline-sync results, which hand control to a different sub-protocol.
type FetchMany struct {
	conn    Conn
	fetch   *Fetch
	results []Result
	done    bool
}

func NewFetchMany(conn Conn) *FetchMany {
	return &FetchMany{conn: conn}
}

// Results returns the accumulated results once the generator is done.
func (f *FetchMany) Results() []Result { return f.results }

func (f *FetchMany) Resume(ready Ready) (*WaitRequest, error) {
	if f.done {
		return nil, nil
	}

	for {
		if f.fetch == nil {
			f.fetch = NewFetch(f.conn)
		}

		wr, err := f.fetch.Resume(ready)
		if err != nil {
			return nil, err
		}
		if wr != nil {
			return wr, nil
		}

		res := f.fetch.Result()
		f.fetch = nil
		ready = ReadyNone

		if res == nil {
			f.done = true
			return nil, nil
		}
		f.results = append(f.results, res)

		switch res.Status() {
		case CopyIn, CopyOut, CopyBoth, PipelineSync:
			f.done = true
			return nil, nil
		}
	}
}

// Execute flushes an already-dispatched query and then collects every
// result of the response, supporting multi-statement replies.
type Execute struct {
	send  *Send
	fetch *FetchMany
}

func NewExecute(conn Conn) *Execute {
	return &Execute{send: NewSend(conn), fetch: NewFetchMany(conn)}
}

// Results returns the accumulated results once the generator is done.
func (e *Execute) Results() []Result { return e.fetch.Results() }

func (e *Execute) Resume(ready Ready) (*WaitRequest, error) {
	if !e.send.done {
		wr, err := e.send.Resume(ready)
		if err != nil {
			return nil, err
		}
		if wr != nil {
			return wr, nil
		}
		ready = ReadyNone
	}
	return e.fetch.Resume(ready)
}
