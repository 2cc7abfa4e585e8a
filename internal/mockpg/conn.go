package mockpg

import (
	"fmt"
	"net"

	"github.com/jackc/pgproto3/v2"

	"github.com/pqstep/pqstep/pqgen"
)

// Conn is a pqgen.Conn over a real TCP socket speaking the simple query
// protocol. It is deliberately naive: the scripted server always answers
// promptly, so ConsumeInput may read to the end of a response once the
// socket is readable.
type Conn struct {
	netConn  net.Conn
	fd       int
	frontend *pgproto3.Frontend

	status      pqgen.ConnStatus
	sendBuf     []byte
	startupSent bool
	busy        bool
	results     []*Result
	cur         *Result
	errMsg      string
}

// Dial opens a socket to addr and leaves the connection in the
// Connecting state; ConnectPoll performs the handshake.
func Dial(addr string) (*Conn, error) {
	netConn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}

	fd := -1
	raw, err := netConn.(*net.TCPConn).SyscallConn()
	if err != nil {
		netConn.Close()
		return nil, err
	}
	if err := raw.Control(func(f uintptr) { fd = int(f) }); err != nil {
		netConn.Close()
		return nil, err
	}

	return &Conn{
		netConn:  netConn,
		fd:       fd,
		frontend: pgproto3.NewFrontend(pgproto3.NewChunkReader(netConn), netConn),
		status:   pqgen.ConnStatusConnecting,
	}, nil
}

// Start adapts Dial to the pqgen.StartFunc signature, treating the
// conninfo string as a plain host:port address.
func Start(conninfo string) (pqgen.Conn, error) {
	return Dial(conninfo)
}

// Close announces the shutdown with a Terminate message so a scripted
// server waiting for a clean close sees one, then closes the socket.
func (c *Conn) Close() error {
	if c.status == pqgen.ConnStatusOK {
		_, _ = c.netConn.Write((&pgproto3.Terminate{}).Encode(nil))
	}
	return c.netConn.Close()
}

func (c *Conn) Socket() (int, error) {
	if c.fd < 0 {
		return 0, fmt.Errorf("connection has no socket")
	}
	return c.fd, nil
}

func (c *Conn) Status() pqgen.ConnStatus { return c.status }

func (c *Conn) ConnectPoll() pqgen.Polling {
	if c.status != pqgen.ConnStatusConnecting {
		return pqgen.PollingOK
	}

	if !c.startupSent {
		startup := &pgproto3.StartupMessage{
			ProtocolVersion: pgproto3.ProtocolVersionNumber,
			Parameters:      map[string]string{"user": "mock"},
		}
		if _, err := c.netConn.Write(startup.Encode(nil)); err != nil {
			c.fail(err)
			return pqgen.PollingFailed
		}
		c.startupSent = true
		return pqgen.PollingReading
	}

	for {
		msg, err := c.frontend.Receive()
		if err != nil {
			c.fail(err)
			return pqgen.PollingFailed
		}
		switch m := msg.(type) {
		case *pgproto3.AuthenticationOk, *pgproto3.ParameterStatus, *pgproto3.BackendKeyData:
		case *pgproto3.ErrorResponse:
			c.fail(fmt.Errorf("server error: %s", m.Message))
			return pqgen.PollingFailed
		case *pgproto3.ReadyForQuery:
			c.status = pqgen.ConnStatusOK
			return pqgen.PollingOK
		default:
			c.fail(fmt.Errorf("unexpected startup message %T", msg))
			return pqgen.PollingFailed
		}
	}
}

// SendQuery queues a simple query. The bytes go out on the next Flush.
func (c *Conn) SendQuery(sql string) error {
	if c.status != pqgen.ConnStatusOK {
		return fmt.Errorf("connection is not ready")
	}
	if c.busy {
		return fmt.Errorf("a query is already in flight")
	}
	c.sendBuf = append(c.sendBuf, (&pgproto3.Query{String: sql}).Encode(nil)...)
	c.busy = true
	return nil
}

func (c *Conn) Flush() (bool, error) {
	if len(c.sendBuf) == 0 {
		return true, nil
	}
	if _, err := c.netConn.Write(c.sendBuf); err != nil {
		c.fail(err)
		return false, err
	}
	c.sendBuf = c.sendBuf[:0]
	return true, nil
}

func (c *Conn) ConsumeInput() error {
	if !c.busy {
		return nil
	}

	for {
		msg, err := c.frontend.Receive()
		if err != nil {
			c.fail(err)
			return err
		}

		switch m := msg.(type) {
		case *pgproto3.RowDescription:
			c.cur = &Result{status: pqgen.TuplesOK}
			for _, f := range m.Fields {
				c.cur.fieldNames = append(c.cur.fieldNames, string(f.Name))
				c.cur.fieldOIDs = append(c.cur.fieldOIDs, f.DataTypeOID)
				c.cur.fieldFormats = append(c.cur.fieldFormats, f.Format)
			}
		case *pgproto3.DataRow:
			// Receive reuses its buffers between messages.
			row := make([][]byte, len(m.Values))
			for i, v := range m.Values {
				if v == nil {
					continue
				}
				row[i] = make([]byte, len(v))
				copy(row[i], v)
			}
			c.cur.rows = append(c.cur.rows, row)
		case *pgproto3.CommandComplete:
			if c.cur == nil {
				c.cur = &Result{status: pqgen.CommandOK}
			}
			c.results = append(c.results, c.cur)
			c.cur = nil
		case *pgproto3.EmptyQueryResponse:
			c.results = append(c.results, &Result{status: pqgen.EmptyQuery})
		case *pgproto3.ErrorResponse:
			c.results = append(c.results, &Result{status: pqgen.FatalError, errMsg: m.Message})
			c.errMsg = m.Message
			c.cur = nil
		case *pgproto3.ReadyForQuery:
			c.busy = false
			return nil
		case *pgproto3.NoticeResponse, *pgproto3.ParameterStatus:
		default:
			err := fmt.Errorf("unexpected message %T", msg)
			c.fail(err)
			return err
		}
	}
}

func (c *Conn) IsBusy() bool { return c.busy }

func (c *Conn) GetResult() pqgen.Result {
	if len(c.results) == 0 {
		return nil
	}
	res := c.results[0]
	c.results = c.results[1:]
	return res
}

func (c *Conn) ErrorMessage() string { return c.errMsg }

func (c *Conn) fail(err error) {
	c.status = pqgen.ConnStatusBad
	c.errMsg = err.Error()
}

// Result is a materialized query result.
type Result struct {
	status       pqgen.ResultStatus
	fieldNames   []string
	fieldOIDs    []uint32
	fieldFormats []int16
	rows         [][][]byte
	errMsg       string
}

func (r *Result) Status() pqgen.ResultStatus { return r.status }
func (r *Result) NTuples() int               { return len(r.rows) }
func (r *Result) NFields() int               { return len(r.fieldNames) }
func (r *Result) FieldName(col int) string   { return r.fieldNames[col] }
func (r *Result) FieldOID(col int) uint32    { return r.fieldOIDs[col] }
func (r *Result) FieldFormat(col int) int16  { return r.fieldFormats[col] }
func (r *Result) ErrorMessage() string       { return r.errMsg }

func (r *Result) Value(row, col int) []byte {
	return r.rows[row][col]
}
