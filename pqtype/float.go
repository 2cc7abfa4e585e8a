package pqtype

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/jackc/pgio"
)

type floatDumper struct {
	oid    uint32
	format int16
}

func (d floatDumper) OID() uint32   { return d.oid }
func (d floatDumper) Format() int16 { return d.format }

func (d floatDumper) Dump(v any, buf []byte) ([]byte, error) {
	var f float64
	switch n := v.(type) {
	case float32:
		f = float64(n)
	case float64:
		f = n
	default:
		return nil, fmt.Errorf("cannot dump %T as a float", v)
	}

	if d.format == TextFormatCode {
		return strconv.AppendFloat(buf, f, 'f', -1, 64), nil
	}

	if d.oid == Float4OID {
		return pgio.AppendUint32(buf, math.Float32bits(float32(f))), nil
	}
	return pgio.AppendUint64(buf, math.Float64bits(f)), nil
}

func loadFloatText(src []byte) (any, error) {
	f, err := strconv.ParseFloat(string(src), 64)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func loadFloat4Binary(src []byte) (any, error) {
	if len(src) != 4 {
		return nil, malformed("float4 requires 4 bytes, got %d", len(src))
	}
	return float64(math.Float32frombits(binary.BigEndian.Uint32(src))), nil
}

func loadFloat8Binary(src []byte) (any, error) {
	if len(src) != 8 {
		return nil, malformed("float8 requires 8 bytes, got %d", len(src))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(src)), nil
}

func registerFloat(m *Map) {
	m.RegisterDumper(float64(0), floatDumper{oid: Float8OID, format: BinaryFormatCode})
	m.RegisterDumper(float64(0), floatDumper{oid: Float8OID, format: TextFormatCode})
	m.RegisterDumper(float32(0), floatDumper{oid: Float4OID, format: BinaryFormatCode})
	m.RegisterDumper(float32(0), floatDumper{oid: Float4OID, format: TextFormatCode})

	m.RegisterLoader(Float4OID, TextFormatCode, LoaderFunc(loadFloatText))
	m.RegisterLoader(Float8OID, TextFormatCode, LoaderFunc(loadFloatText))
	m.RegisterLoader(Float4OID, BinaryFormatCode, LoaderFunc(loadFloat4Binary))
	m.RegisterLoader(Float8OID, BinaryFormatCode, LoaderFunc(loadFloat8Binary))
}
