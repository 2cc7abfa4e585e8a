package pqstep_test

import (
	"testing"
	"time"

	"github.com/jackc/pgmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pqstep/pqstep"
	"github.com/pqstep/pqstep/internal/mockpg"
	"github.com/pqstep/pqstep/pqgen"
	"github.com/pqstep/pqstep/pqtype"
)

func TestQueryAgainstScriptedServer(t *testing.T) {
	script := &pgmock.Script{}
	script.Steps = append(script.Steps, mockpg.AcceptScript()...)
	script.Steps = append(script.Steps, mockpg.QueryScript(
		"SELECT id, name FROM widgets",
		[]string{"id", "name"},
		[]uint32{pqtype.Int4OID, pqtype.TextOID},
		[][][]byte{
			{[]byte("1"), []byte("bolt")},
			{[]byte("2"), nil},
		},
		"SELECT 2",
	)...)
	script.Steps = append(script.Steps, mockpg.TerminateScript()...)

	server, err := mockpg.NewServer(script)
	require.NoError(t, err)

	connect := pqgen.NewConnect(mockpg.Start, server.Addr())
	require.NoError(t, pqgen.WaitSelect(connect, -1, 5*time.Second))

	conn := connect.Conn().(*mockpg.Conn)
	defer conn.Close()
	fd, err := conn.Socket()
	require.NoError(t, err)

	require.NoError(t, conn.SendQuery("SELECT id, name FROM widgets"))

	exec := pqgen.NewExecute(conn)
	require.NoError(t, pqgen.WaitSelect(exec, fd, 5*time.Second))

	results := exec.Results()
	require.Len(t, results, 1)
	res := results[0]
	assert.Equal(t, pqgen.TuplesOK, res.Status())
	assert.Equal(t, 2, res.NTuples())
	assert.Equal(t, "id", res.FieldName(0))

	tx := pqstep.NewTransformer(nil)
	require.NoError(t, tx.SetResult(res, true, pqtype.UnknownFormatCode))

	rows, err := tx.LoadRows(0, res.NTuples())
	require.NoError(t, err)
	assert.Equal(t, []any{
		[]any{int64(1), "bolt"},
		[]any{int64(2), nil},
	}, rows)

	require.NoError(t, conn.Close())
	require.NoError(t, server.Err())
}
