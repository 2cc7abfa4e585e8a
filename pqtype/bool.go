package pqtype

import (
	"fmt"
)

type boolDumper struct {
	format int16
}

func (d boolDumper) OID() uint32   { return BoolOID }
func (d boolDumper) Format() int16 { return d.format }

func (d boolDumper) Dump(v any, buf []byte) ([]byte, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as bool", v)
	}

	if d.format == BinaryFormatCode {
		if b {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil
	}

	if b {
		return append(buf, 't'), nil
	}
	return append(buf, 'f'), nil
}

func loadBoolText(src []byte) (any, error) {
	if len(src) != 1 {
		return nil, fmt.Errorf("invalid length for bool: %d", len(src))
	}
	switch src[0] {
	case 't':
		return true, nil
	case 'f':
		return false, nil
	}
	return nil, fmt.Errorf("invalid bool value: %q", src)
}

func loadBoolBinary(src []byte) (any, error) {
	if len(src) != 1 {
		return nil, malformed("bool requires 1 byte, got %d", len(src))
	}
	return src[0] == 1, nil
}

func registerBool(m *Map) {
	m.RegisterDumper(false, boolDumper{format: BinaryFormatCode})
	m.RegisterDumper(false, boolDumper{format: TextFormatCode})
	m.RegisterLoader(BoolOID, TextFormatCode, LoaderFunc(loadBoolText))
	m.RegisterLoader(BoolOID, BinaryFormatCode, LoaderFunc(loadBoolBinary))
}
