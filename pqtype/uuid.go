package pqtype

import (
	"fmt"

	"github.com/gofrs/uuid"
)

type uuidDumper struct {
	format int16
}

func (d uuidDumper) OID() uint32   { return UUIDOID }
func (d uuidDumper) Format() int16 { return d.format }

func (d uuidDumper) Dump(v any, buf []byte) ([]byte, error) {
	var u uuid.UUID
	switch val := v.(type) {
	case uuid.UUID:
		u = val
	case [16]byte:
		u = uuid.UUID(val)
	default:
		return nil, fmt.Errorf("cannot dump %T as uuid", v)
	}

	if d.format == BinaryFormatCode {
		return append(buf, u.Bytes()...), nil
	}
	return append(buf, u.String()...), nil
}

func loadUUIDText(src []byte) (any, error) {
	u, err := uuid.FromString(string(src))
	if err != nil {
		return nil, err
	}
	return u, nil
}

func loadUUIDBinary(src []byte) (any, error) {
	if len(src) != 16 {
		return nil, malformed("uuid requires 16 bytes, got %d", len(src))
	}
	u, err := uuid.FromBytes(src)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func registerUUID(m *Map) {
	m.RegisterDumper(uuid.UUID{}, uuidDumper{format: BinaryFormatCode})
	m.RegisterDumper(uuid.UUID{}, uuidDumper{format: TextFormatCode})
	m.RegisterLoader(UUIDOID, TextFormatCode, LoaderFunc(loadUUIDText))
	m.RegisterLoader(UUIDOID, BinaryFormatCode, LoaderFunc(loadUUIDBinary))
}
