package pqstep_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pqstep/pqstep"
	"github.com/pqstep/pqstep/pqtype"
)

func textCopyTransformer(t *testing.T, oids ...uint32) *pqstep.Transformer {
	t.Helper()
	tx := pqstep.NewTransformer(nil)
	formats := make([]int16, len(oids))
	require.NoError(t, tx.SetLoaderTypes(oids, formats))
	return tx
}

func TestFormatRowText(t *testing.T) {
	tx := pqstep.NewTransformer(nil)

	line, err := pqstep.FormatRowText(nil, []any{"a", "b\tc", nil}, tx)
	require.NoError(t, err)
	assert.Equal(t, "a\tb\\tc\t\\N\n", string(line))
}

func TestFormatRowTextEscapes(t *testing.T) {
	tx := pqstep.NewTransformer(nil)

	line, err := pqstep.FormatRowText(nil, []any{"n\nl", "r\rr", `b\s`}, tx)
	require.NoError(t, err)
	assert.Equal(t, "n\\nl\tr\\rr\tb\\\\s\n", string(line))
}

func TestParseRowText(t *testing.T) {
	tx := textCopyTransformer(t, pqtype.TextOID, pqtype.TextOID, pqtype.TextOID)

	row, err := pqstep.ParseRowText([]byte("a\tb\\tc\t\\N\n"), tx)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b\tc", nil}, row)
}

func TestParseRowTextWithoutNewline(t *testing.T) {
	tx := textCopyTransformer(t, pqtype.TextOID, pqtype.TextOID)

	row, err := pqstep.ParseRowText([]byte("x\ty"), tx)
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y"}, row)
}

func TestParseRowTextEscapedNIsNotNull(t *testing.T) {
	tx := textCopyTransformer(t, pqtype.TextOID, pqtype.TextOID)

	// \\N unescapes to the literal text \N; only the bare \N marker is
	// a null.
	row, err := pqstep.ParseRowText([]byte("\\\\N\t\\N\n"), tx)
	require.NoError(t, err)
	assert.Equal(t, []any{`\N`, nil}, row)
}

func TestParseRowTextTypedColumns(t *testing.T) {
	tx := textCopyTransformer(t, pqtype.Int8OID, pqtype.BoolOID)

	row, err := pqstep.ParseRowText([]byte("7\tt\n"), tx)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(7), true}, row)
}

func TestParseRowTextTruncatedEscape(t *testing.T) {
	tx := textCopyTransformer(t, pqtype.TextOID)

	_, err := pqstep.ParseRowText([]byte("oops\\"), tx)
	assert.Error(t, err)
}

func TestCopyTextRoundTrip(t *testing.T) {
	dump := pqstep.NewTransformer(nil)
	load := textCopyTransformer(t, pqtype.TextOID, pqtype.TextOID, pqtype.TextOID)

	row := []any{"tab\there", nil, "new\nline and back\\slash"}
	line, err := pqstep.FormatRowText(nil, row, dump)
	require.NoError(t, err)

	got, err := pqstep.ParseRowText(line, load)
	require.NoError(t, err)
	assert.Equal(t, row, got)
}

func TestBinaryRowRoundTrip(t *testing.T) {
	dump := pqstep.NewTransformer(nil)
	load := pqstep.NewTransformer(nil)
	require.NoError(t, load.SetLoaderTypes(
		[]uint32{pqtype.Int8OID, pqtype.TextOID, pqtype.BoolOID},
		[]int16{pqtype.BinaryFormatCode, pqtype.BinaryFormatCode, pqtype.BinaryFormatCode},
	))

	row := []any{int64(-5), nil, true}
	buf, err := pqstep.FormatRowBinary(nil, row, dump)
	require.NoError(t, err)

	got, n, err := pqstep.ParseRowBinary(buf, load)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, []any{int64(-5), nil, true}, got)
}

func TestParseRowBinaryTrailer(t *testing.T) {
	tx := pqstep.NewTransformer(nil)

	row, n, err := pqstep.ParseRowBinary([]byte{0xff, 0xff}, tx)
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.Equal(t, 2, n)
}

func TestParseRowBinaryTruncated(t *testing.T) {
	tx := pqstep.NewTransformer(nil)
	require.NoError(t, tx.SetLoaderTypes(
		[]uint32{pqtype.Int8OID},
		[]int16{pqtype.BinaryFormatCode},
	))

	tests := []struct {
		name string
		src  []byte
	}{
		{"length prefix cut short", []byte{0, 1, 0, 0}},
		{"missing field count", []byte{0}},
		{"negative field count", []byte{0xff, 0xfe}},
		{"value shorter than its length", []byte{0, 1, 0, 0, 0, 8, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := pqstep.ParseRowBinary(tt.src, tx)
			var malformed *pqtype.MalformedBinaryDataError
			require.ErrorAs(t, err, &malformed)
		})
	}
}

func TestFormatRowTextEmptyValueIsNotNull(t *testing.T) {
	tx := pqstep.NewTransformer(nil)

	line, err := pqstep.FormatRowText(nil, []any{"", nil}, tx)
	require.NoError(t, err)
	assert.Equal(t, "\t\\N\n", string(line))

	load := textCopyTransformer(t, pqtype.TextOID, pqtype.TextOID)
	row, err := pqstep.ParseRowText(line, load)
	require.NoError(t, err)
	assert.Equal(t, []any{"", nil}, row)
}
