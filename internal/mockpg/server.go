// Package mockpg provides a scripted PostgreSQL server and a minimal
// real-socket connection for exercising the generator layer in tests.
package mockpg

import (
	"net"
	"time"

	"github.com/jackc/pgmock"
	"github.com/jackc/pgproto3/v2"
)

// Server accepts one connection on localhost and runs a pgmock script
// against it.
type Server struct {
	ln     net.Listener
	script *pgmock.Script
	errCh  chan error
}

func NewServer(script *pgmock.Script) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:")
	if err != nil {
		return nil, err
	}

	s := &Server{
		ln:     ln,
		script: script,
		errCh:  make(chan error, 1),
	}
	go s.serveOne()
	return s, nil
}

func (s *Server) Addr() string { return s.ln.Addr().String() }

// Err blocks until the script finishes and returns its error.
func (s *Server) Err() error { return <-s.errCh }

func (s *Server) Close() error { return s.ln.Close() }

func (s *Server) serveOne() {
	conn, err := s.ln.Accept()
	if err != nil {
		s.errCh <- err
		return
	}
	defer conn.Close()

	// A wedged script must not hang the test run.
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

	backend := pgproto3.NewBackend(pgproto3.NewChunkReader(conn), conn)
	s.errCh <- s.script.Run(backend)
}

// AcceptScript returns the handshake steps a Conn performs on connect.
func AcceptScript() []pgmock.Step {
	return pgmock.AcceptUnauthenticatedConnRequestSteps()
}

// QueryScript returns steps answering one simple query with the given
// row description, text-format rows, and command tag.
func QueryScript(sql string, fieldNames []string, fieldOIDs []uint32, rows [][][]byte, tag string) []pgmock.Step {
	desc := &pgproto3.RowDescription{}
	for i, name := range fieldNames {
		desc.Fields = append(desc.Fields, pgproto3.FieldDescription{
			Name:         []byte(name),
			DataTypeOID:  fieldOIDs[i],
			DataTypeSize: -1,
			TypeModifier: -1,
		})
	}

	steps := []pgmock.Step{
		pgmock.ExpectMessage(&pgproto3.Query{String: sql}),
		pgmock.SendMessage(desc),
	}
	for _, row := range rows {
		steps = append(steps, pgmock.SendMessage(&pgproto3.DataRow{Values: row}))
	}
	steps = append(steps,
		pgmock.SendMessage(&pgproto3.CommandComplete{CommandTag: []byte(tag)}),
		pgmock.SendMessage(&pgproto3.ReadyForQuery{TxStatus: 'I'}),
	)
	return steps
}

// TerminateScript waits for the client to disconnect.
func TerminateScript() []pgmock.Step {
	return []pgmock.Step{pgmock.WaitForClose()}
}
