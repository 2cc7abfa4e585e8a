package pqgen_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pqstep/pqstep/pqgen"
)

// connectConn scripts a connection handshake.
type connectConn struct {
	scriptConn
	polls []pqgen.Polling
	fd    int
}

func (c *connectConn) Socket() (int, error) { return c.fd, nil }

func (c *connectConn) ConnectPoll() pqgen.Polling {
	if len(c.polls) == 0 {
		return pqgen.PollingOK
	}
	p := c.polls[0]
	c.polls = c.polls[1:]
	return p
}

func TestConnect(t *testing.T) {
	conn := &connectConn{
		scriptConn: scriptConn{status: pqgen.ConnStatusConnecting},
		polls:      []pqgen.Polling{pqgen.PollingWriting, pqgen.PollingReading, pqgen.PollingOK},
		fd:         42,
	}
	start := func(conninfo string) (pqgen.Conn, error) {
		assert.Equal(t, "host=example port=5432", conninfo)
		return conn, nil
	}

	connect := pqgen.NewConnect(start, "host=example port=5432")

	wr, err := connect.Resume(pqgen.ReadyNone)
	require.NoError(t, err)
	require.NotNil(t, wr)
	assert.Equal(t, pqgen.WantWrite, wr.Want)
	assert.Equal(t, 42, wr.Fd)

	wr, err = connect.Resume(pqgen.ReadyWrite)
	require.NoError(t, err)
	require.NotNil(t, wr)
	assert.Equal(t, pqgen.WantRead, wr.Want)

	wr, err = connect.Resume(pqgen.ReadyRead)
	require.NoError(t, err)
	assert.Nil(t, wr)
	assert.Same(t, conn, connect.Conn().(*connectConn))
}

func TestConnectStartFailure(t *testing.T) {
	startErr := errors.New("no such host")
	start := func(string) (pqgen.Conn, error) { return nil, startErr }

	connect := pqgen.NewConnect(start, "")
	_, err := connect.Resume(pqgen.ReadyNone)

	var ce *pqgen.ConnectError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, startErr)
}

func TestConnectBadStatus(t *testing.T) {
	conn := &connectConn{scriptConn: scriptConn{status: pqgen.ConnStatusBad, errMsg: "password authentication failed"}}
	start := func(string) (pqgen.Conn, error) { return conn, nil }

	connect := pqgen.NewConnect(start, "")
	_, err := connect.Resume(pqgen.ReadyNone)

	var ce *pqgen.ConnectError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Error(), "password authentication failed")
}

func TestConnectPollingFailed(t *testing.T) {
	conn := &connectConn{
		scriptConn: scriptConn{status: pqgen.ConnStatusConnecting, errMsg: "server closed the connection"},
		polls:      []pqgen.Polling{pqgen.PollingFailed},
	}
	start := func(string) (pqgen.Conn, error) { return conn, nil }

	connect := pqgen.NewConnect(start, "")
	_, err := connect.Resume(pqgen.ReadyNone)

	var ce *pqgen.ConnectError
	require.ErrorAs(t, err, &ce)
}
