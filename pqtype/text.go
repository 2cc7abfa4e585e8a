package pqtype

import (
	"fmt"
)

// Text encodes identically in both wire formats.
type textDumper struct {
	format int16
}

func (d textDumper) OID() uint32   { return TextOID }
func (d textDumper) Format() int16 { return d.format }

func (d textDumper) Dump(v any, buf []byte) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as text", v)
	}
	return append(buf, s...), nil
}

func loadText(src []byte) (any, error) {
	return string(src), nil
}

func registerText(m *Map) {
	m.RegisterDumper("", textDumper{format: BinaryFormatCode})
	m.RegisterDumper("", textDumper{format: TextFormatCode})

	for _, oid := range []uint32{TextOID, VarcharOID, NameOID, UnknownOID} {
		m.RegisterLoader(oid, TextFormatCode, LoaderFunc(loadText))
		m.RegisterLoader(oid, BinaryFormatCode, LoaderFunc(loadText))
	}
}
