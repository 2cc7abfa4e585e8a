package pqtype_test

import (
	"testing"

	"github.com/jackc/pgio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pqstep/pqstep/pqtype"
)

func TestRecordLoadText(t *testing.T) {
	tests := []struct {
		src  string
		want []any
	}{
		{src: `(a,b)`, want: []any{"a", "b"}},
		{src: `(a,,b)`, want: []any{"a", nil, "b"}},
		{src: `(,)`, want: []any{nil, nil}},
		{src: `()`, want: []any{nil}},
		{src: `("a,b",c)`, want: []any{"a,b", "c"}},
		{src: `("he said ""hi""",x)`, want: []any{`he said "hi"`, "x"}},
		{src: `("back\\slash")`, want: []any{`back\slash`}},
		{src: `("")`, want: []any{""}},
	}

	for _, tt := range tests {
		v, err := pqtype.RecordLoadText([]byte(tt.src))
		require.NoErrorf(t, err, "src %q", tt.src)
		assert.Equalf(t, tt.want, v, "src %q", tt.src)
	}
}

func TestRecordLoadTextMalformed(t *testing.T) {
	for _, src := range []string{``, `(`, `a,b)`, `("unterminated)`} {
		_, err := pqtype.RecordLoadText([]byte(src))
		assert.Errorf(t, err, "src %q", src)
	}
}

func TestRecordLoadBinary(t *testing.T) {
	m := pqtype.NewMap()

	src := pgio.AppendInt32(nil, 3)
	src = pgio.AppendUint32(src, pqtype.Int4OID)
	src = pgio.AppendInt32(src, 4)
	src = pgio.AppendInt32(src, 42)
	src = pgio.AppendUint32(src, pqtype.TextOID)
	src = pgio.AppendInt32(src, -1)
	src = pgio.AppendUint32(src, pqtype.BoolOID)
	src = pgio.AppendInt32(src, 1)
	src = append(src, 1)

	v, err := pqtype.RecordLoadBinary(src, m)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(42), nil, true}, v)
}

func TestRecordLoadBinaryMalformed(t *testing.T) {
	m := pqtype.NewMap()

	truncatedHeader := []byte{0, 0}

	truncatedField := pgio.AppendInt32(nil, 1)
	truncatedField = pgio.AppendUint32(truncatedField, pqtype.Int4OID)

	overlongField := pgio.AppendInt32(nil, 1)
	overlongField = pgio.AppendUint32(overlongField, pqtype.Int4OID)
	overlongField = pgio.AppendInt32(overlongField, 100)

	for i, src := range [][]byte{truncatedHeader, truncatedField, overlongField} {
		_, err := pqtype.RecordLoadBinary(src, m)
		assert.Errorf(t, err, "case %d", i)
	}
}

func TestRecordLoaderRegistered(t *testing.T) {
	m := pqtype.NewMap()

	l, err := m.GetLoader(pqtype.RecordOID, pqtype.TextFormatCode)
	require.NoError(t, err)
	v, err := l.Load([]byte(`(1,two)`))
	require.NoError(t, err)
	assert.Equal(t, []any{"1", "two"}, v)
}
