package pqtype_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pqstep/pqstep/pqtype"
)

func TestNumericRoundTrip(t *testing.T) {
	m := pqtype.NewMap()

	values := []string{
		"0",
		"1",
		"-1",
		"10000",
		"0.1",
		"-0.00001",
		"12345678901234567890.123456789",
		"9990000",
		"0.000000001",
	}

	for _, format := range []int16{pqtype.TextFormatCode, pqtype.BinaryFormatCode} {
		for _, s := range values {
			dec := decimal.RequireFromString(s)
			got := roundTrip(t, m, dec, pqtype.NumericOID, format)
			assert.Truef(t, dec.Equal(got.(decimal.Decimal)), "format %d value %s: got %s", format, s, got)
		}
	}
}

func TestNumericBinaryMalformed(t *testing.T) {
	m := pqtype.NewMap()
	l, err := m.GetLoader(pqtype.NumericOID, pqtype.BinaryFormatCode)
	require.NoError(t, err)

	// short header
	_, err = l.Load([]byte{0, 1, 0, 0})
	assert.Error(t, err)

	// digit count disagrees with payload size
	_, err = l.Load([]byte{0, 2, 0, 0, 0, 0, 0, 0, 0, 1})
	assert.Error(t, err)
}

func TestNumericTextOutput(t *testing.T) {
	m := pqtype.NewMap()

	d, err := m.GetDumper(decimal.RequireFromString("-12.50"), pqtype.TextFormatCode)
	require.NoError(t, err)
	buf, err := d.Dump(decimal.RequireFromString("-12.50"), nil)
	require.NoError(t, err)
	assert.Equal(t, "-12.50", string(buf))
}
