package pqtype

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgio"
	"github.com/shopspring/decimal"
)

// Binary numeric format reference: the numeric_send function in
// src/backend/utils/adt/numeric.c. Digits are base 10000, the weight is
// the position of the first digit group relative to the decimal point.
const (
	numericSignPositive = 0x0000
	numericSignNegative = 0x4000
	numericSignNaN      = 0xC000
)

type numericDumper struct {
	format int16
}

func (d numericDumper) OID() uint32   { return NumericOID }
func (d numericDumper) Format() int16 { return d.format }

func (d numericDumper) Dump(v any, buf []byte) ([]byte, error) {
	dec, ok := v.(decimal.Decimal)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as numeric", v)
	}

	if d.format == TextFormatCode {
		return append(buf, numericText(dec)...), nil
	}
	return appendNumericBinary(buf, dec), nil
}

// numericText renders dec without trimming trailing zeros, so the value's
// display scale survives the round trip. decimal.String trims them.
func numericText(dec decimal.Decimal) string {
	if dec.Exponent() < 0 {
		return dec.StringFixed(-dec.Exponent())
	}
	return dec.String()
}

func appendNumericBinary(buf []byte, dec decimal.Decimal) []byte {
	sign := uint16(numericSignPositive)
	if dec.Sign() < 0 {
		sign = numericSignNegative
		dec = dec.Neg()
	}

	var dscale uint16
	if dec.Exponent() < 0 {
		dscale = uint16(-dec.Exponent())
	}

	intPart := dec.String()
	var fracPart string
	if i := strings.IndexByte(intPart, '.'); i >= 0 {
		fracPart = intPart[i+1:]
		intPart = intPart[:i]
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

	// Strip zero groups from both ends; a bare zero has no digit groups at
	// all.
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

func loadNumericText(src []byte) (any, error) {
	dec, err := decimal.NewFromString(string(src))
	if err != nil {
		return nil, err
	}
	return dec, nil
}

func loadNumericBinary(src []byte) (any, error) {
	if len(src) < 8 {
		return nil, malformed("numeric requires at least 8 bytes, got %d", len(src))
	}

	ndigits := int(int16(binary.BigEndian.Uint16(src)))
	weight := int(int16(binary.BigEndian.Uint16(src[2:])))
	sign := binary.BigEndian.Uint16(src[4:])

	if sign == numericSignNaN {
		return nil, fmt.Errorf("cannot load numeric NaN")
	}
	if len(src) != 8+ndigits*2 {
		return nil, malformed("numeric with %d digit groups requires %d bytes, got %d", ndigits, 8+ndigits*2, len(src))
	}
	if ndigits == 0 {
		return decimal.Zero, nil
	}

	var coef strings.Builder
	for i := 0; i < ndigits; i++ {
		digit := binary.BigEndian.Uint16(src[8+i*2:])
		if digit > 9999 {
			return nil, malformed("numeric digit group %d out of range", digit)
		}
		if i == 0 {
			coef.WriteString(strconv.Itoa(int(digit)))
		} else {
			fmt.Fprintf(&coef, "%04d", digit)
		}
	}

	exp := (weight + 1 - ndigits) * 4
	dec, err := decimal.NewFromString(coef.String() + "e" + strconv.Itoa(exp))
	if err != nil {
		return nil, err
	}
	if sign == numericSignNegative {
		dec = dec.Neg()
	}
	return dec, nil
}

func registerNumeric(m *Map) {
	m.RegisterDumper(decimal.Decimal{}, numericDumper{format: BinaryFormatCode})
	m.RegisterDumper(decimal.Decimal{}, numericDumper{format: TextFormatCode})
	m.RegisterLoader(NumericOID, TextFormatCode, LoaderFunc(loadNumericText))
	m.RegisterLoader(NumericOID, BinaryFormatCode, LoaderFunc(loadNumericBinary))
}
