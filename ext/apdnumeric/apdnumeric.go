// Package apdnumeric registers numeric codecs backed by
// github.com/cockroachdb/apd, for applications that prefer its
// arbitrary-precision arithmetic over shopspring decimals. Registering
// replaces the builtin numeric codecs in the target map.
package apdnumeric

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd"
	"github.com/jackc/pgio"

	"github.com/pqstep/pqstep/pqtype"
)

const (
	signPositive = 0x0000
	signNegative = 0x4000
	signNaN      = 0xC000
)

// Register installs apd.Decimal dumpers and numeric loaders in m. Loads
// produce *apd.Decimal values.
func Register(m *pqtype.Map) {
	m.RegisterDumper(&apd.Decimal{}, dumper{format: pqtype.BinaryFormatCode})
	m.RegisterDumper(&apd.Decimal{}, dumper{format: pqtype.TextFormatCode})
	m.RegisterDumper(apd.Decimal{}, dumper{format: pqtype.BinaryFormatCode})
	m.RegisterDumper(apd.Decimal{}, dumper{format: pqtype.TextFormatCode})
	m.RegisterLoader(pqtype.NumericOID, pqtype.TextFormatCode, pqtype.LoaderFunc(loadText))
	m.RegisterLoader(pqtype.NumericOID, pqtype.BinaryFormatCode, pqtype.LoaderFunc(loadBinary))
}

type dumper struct {
	format int16
}

func (d dumper) OID() uint32   { return pqtype.NumericOID }
func (d dumper) Format() int16 { return d.format }

func (d dumper) Dump(v any, buf []byte) ([]byte, error) {
	var dec *apd.Decimal
	switch value := v.(type) {
	case *apd.Decimal:
		dec = value
	case apd.Decimal:
		dec = &value
	default:
		return nil, fmt.Errorf("cannot dump %T as numeric", v)
	}

	if dec.Form == apd.NaN {
		if d.format == pqtype.TextFormatCode {
			return append(buf, "NaN"...), nil
		}
		buf = pgio.AppendInt16(buf, 0)
		buf = pgio.AppendInt16(buf, 0)
		buf = pgio.AppendUint16(buf, signNaN)
		return pgio.AppendUint16(buf, 0), nil
	}
	if dec.Form != apd.Finite {
		return nil, fmt.Errorf("cannot dump non-finite numeric %s", dec)
	}

	if d.format == pqtype.TextFormatCode {
		return append(buf, dec.Text('f')...), nil
	}
	return appendBinary(buf, dec), nil
}

func appendBinary(buf []byte, dec *apd.Decimal) []byte {
	sign := uint16(signPositive)
	s := dec.Text('f')
	if strings.HasPrefix(s, "-") {
		sign = signNegative
		s = s[1:]
	}

	var dscale uint16
	if dec.Exponent < 0 {
		dscale = uint16(-dec.Exponent)
	}

	intPart := s
	var fracPart string
	if i := strings.IndexByte(s, '.'); i >= 0 {
		fracPart = s[i+1:]
		intPart = s[:i]
	}

	intPart = strings.Repeat("0", (4-len(intPart)%4)%4) + intPart
	fracPart = fracPart + strings.Repeat("0", (4-len(fracPart)%4)%4)

	var digits []int16
	for i := 0; i < len(intPart); i += 4 {
		n, _ := strconv.Atoi(intPart[i : i+4])
		digits = append(digits, int16(n))
	}
	for i := 0; i < len(fracPart); i += 4 {
		n, _ := strconv.Atoi(fracPart[i : i+4])
		digits = append(digits, int16(n))
	}

	weight := int16(len(intPart)/4 - 1)

	for len(digits) > 0 && digits[0] == 0 {
		digits = digits[1:]
		weight--
	}
	for len(digits) > 0 && digits[len(digits)-1] == 0 {
		digits = digits[:len(digits)-1]
	}
	if len(digits) == 0 {
		weight = 0
	}

	buf = pgio.AppendInt16(buf, int16(len(digits)))
	buf = pgio.AppendInt16(buf, weight)
	buf = pgio.AppendUint16(buf, sign)
	buf = pgio.AppendUint16(buf, dscale)
	for _, digit := range digits {
		buf = pgio.AppendInt16(buf, digit)
	}
	return buf
}

func loadText(src []byte) (any, error) {
	dec, _, err := apd.NewFromString(string(src))
	if err != nil {
		return nil, err
	}
	return dec, nil
}

func loadBinary(src []byte) (any, error) {
	if len(src) < 8 {
		return nil, fmt.Errorf("numeric requires at least 8 bytes, got %d", len(src))
	}

	ndigits := int(int16(binary.BigEndian.Uint16(src)))
	weight := int(int16(binary.BigEndian.Uint16(src[2:])))
	sign := binary.BigEndian.Uint16(src[4:])

	if sign == signNaN {
		dec := &apd.Decimal{Form: apd.NaN}
		return dec, nil
	}
	if len(src) != 8+ndigits*2 {
		return nil, fmt.Errorf("numeric with %d digit groups requires %d bytes, got %d", ndigits, 8+ndigits*2, len(src))
	}
	if ndigits == 0 {
		return apd.New(0, 0), nil
	}

	var coef strings.Builder
	if sign == signNegative {
		coef.WriteByte('-')
	}
	for i := 0; i < ndigits; i++ {
		digit := binary.BigEndian.Uint16(src[8+i*2:])
		if digit > 9999 {
			return nil, fmt.Errorf("numeric digit group %d out of range", digit)
		}
		if i == 0 {
			coef.WriteString(strconv.Itoa(int(digit)))
		} else {
			fmt.Fprintf(&coef, "%04d", digit)
		}
	}

	exp := (weight + 1 - ndigits) * 4
	dec, _, err := apd.NewFromString(coef.String() + "e" + strconv.Itoa(exp))
	if err != nil {
		return nil, err
	}
	return dec, nil
}
