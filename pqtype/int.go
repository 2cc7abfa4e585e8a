package pqtype

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/jackc/pgio"
)

type intDumper struct {
	oid    uint32
	format int16
}

func (d intDumper) OID() uint32   { return d.oid }
func (d intDumper) Format() int16 { return d.format }

func (d intDumper) Dump(v any, buf []byte) ([]byte, error) {
	n, err := toInt64(v)
	if err != nil {
		return nil, err
	}

	if d.format == TextFormatCode {
		return strconv.AppendInt(buf, n, 10), nil
	}

	switch d.oid {
	case Int2OID:
		if n > math.MaxInt16 || n < math.MinInt16 {
			return nil, fmt.Errorf("%d is out of range for int2", n)
		}
		return pgio.AppendInt16(buf, int16(n)), nil
	case Int4OID:
		if n > math.MaxInt32 || n < math.MinInt32 {
			return nil, fmt.Errorf("%d is out of range for int4", n)
		}
		return pgio.AppendInt32(buf, int32(n)), nil
	default:
		return pgio.AppendInt64(buf, n), nil
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, fmt.Errorf("%d is greater than maximum value for int8", n)
		}
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%d is greater than maximum value for int8", n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("cannot dump %T as an integer", v)
}

func loadIntText(src []byte) (any, error) {
	n, err := strconv.ParseInt(string(src), 10, 64)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func loadInt2Binary(src []byte) (any, error) {
	if len(src) != 2 {
		return nil, malformed("int2 requires 2 bytes, got %d", len(src))
	}
	return int64(int16(binary.BigEndian.Uint16(src))), nil
}

func loadInt4Binary(src []byte) (any, error) {
	if len(src) != 4 {
		return nil, malformed("int4 requires 4 bytes, got %d", len(src))
	}
	return int64(int32(binary.BigEndian.Uint32(src))), nil
}

func loadInt8Binary(src []byte) (any, error) {
	if len(src) != 8 {
		return nil, malformed("int8 requires 8 bytes, got %d", len(src))
	}
	return int64(binary.BigEndian.Uint64(src)), nil
}

func registerInt(m *Map) {
	for _, sample := range []any{int(0), int8(0), int16(0), int32(0), int64(0), uint(0), uint8(0), uint16(0), uint32(0), uint64(0)} {
		m.RegisterDumper(sample, intDumper{oid: Int8OID, format: BinaryFormatCode})
		m.RegisterDumper(sample, intDumper{oid: Int8OID, format: TextFormatCode})
	}

	for _, oid := range []uint32{Int2OID, Int4OID, Int8OID} {
		m.RegisterLoader(oid, TextFormatCode, LoaderFunc(loadIntText))
	}
	m.RegisterLoader(Int2OID, BinaryFormatCode, LoaderFunc(loadInt2Binary))
	m.RegisterLoader(Int4OID, BinaryFormatCode, LoaderFunc(loadInt4Binary))
	m.RegisterLoader(Int8OID, BinaryFormatCode, LoaderFunc(loadInt8Binary))
}
