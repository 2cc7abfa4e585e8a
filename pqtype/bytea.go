package pqtype

import (
	"encoding/hex"
	"fmt"
)

type byteaDumper struct {
	format int16
}

func (d byteaDumper) OID() uint32   { return ByteaOID }
func (d byteaDumper) Format() int16 { return d.format }

func (d byteaDumper) Dump(v any, buf []byte) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as bytea", v)
	}

	if d.format == BinaryFormatCode {
		return append(buf, b...), nil
	}

	buf = append(buf, '\\', 'x')
	return append(buf, hex.EncodeToString(b)...), nil
}

func loadByteaText(src []byte) (any, error) {
	if len(src) < 2 || src[0] != '\\' || src[1] != 'x' {
		return nil, fmt.Errorf("invalid hex format for bytea: %q", src)
	}
	b, err := hex.DecodeString(string(src[2:]))
	if err != nil {
		return nil, err
	}
	return b, nil
}

func loadByteaBinary(src []byte) (any, error) {
	b := make([]byte, len(src))
	copy(b, src)
	return b, nil
}

func registerBytea(m *Map) {
	m.RegisterDumper([]byte(nil), byteaDumper{format: BinaryFormatCode})
	m.RegisterDumper([]byte(nil), byteaDumper{format: TextFormatCode})
	m.RegisterLoader(ByteaOID, TextFormatCode, LoaderFunc(loadByteaText))
	m.RegisterLoader(ByteaOID, BinaryFormatCode, LoaderFunc(loadByteaBinary))
}
