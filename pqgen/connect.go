package pqgen

// StartFunc begins a non-blocking connection attempt for conninfo, in the
// manner of PQconnectStart. The returned Conn is polled to completion by
// the Connect generator.
type StartFunc func(conninfo string) (Conn, error)

// Connect drives the connection-establishment handshake. Construct with
// NewConnect, pump with WaitSelect, then take the connection from Conn.
type Connect struct {
	start    StartFunc
	conninfo string
	conn     Conn
	done     bool
}

func NewConnect(start StartFunc, conninfo string) *Connect {
	return &Connect{start: start, conninfo: conninfo}
}

// Conn returns the established connection once the generator is done.
func (c *Connect) Conn() Conn { return c.conn }

func (c *Connect) Resume(ready Ready) (*WaitRequest, error) {
	if c.done {
		return nil, nil
	}

	if c.conn == nil {
		conn, err := c.start(c.conninfo)
		if err != nil {
			return nil, &ConnectError{err: err}
		}
		c.conn = conn
	}

	if c.conn.Status() == ConnStatusBad {
		return nil, &ConnectError{Message: c.conn.ErrorMessage()}
	}

	switch c.conn.ConnectPoll() {
	case PollingOK:
		c.done = true
		return nil, nil
	case PollingReading:
		return c.waitOnSocket(WantRead)
	case PollingWriting:
		return c.waitOnSocket(WantWrite)
	default:
		return nil, &ConnectError{Message: c.conn.ErrorMessage()}
	}
}

// The descriptor is re-read on every suspension because the connection may
// switch sockets between attempts (e.g. multiple host fallbacks).
func (c *Connect) waitOnSocket(want Want) (*WaitRequest, error) {
	fd, err := c.conn.Socket()
	if err != nil {
		return nil, &ConnectError{Message: c.conn.ErrorMessage(), err: err}
	}
	return &WaitRequest{Want: want, Fd: fd}, nil
}
