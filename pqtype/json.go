package pqtype

import (
	"encoding/json"
	"fmt"
)

const jsonbBinaryVersion = 1

type jsonDumper struct {
	oid    uint32
	format int16
}

func (d jsonDumper) OID() uint32   { return d.oid }
func (d jsonDumper) Format() int16 { return d.format }

func (d jsonDumper) Dump(v any, buf []byte) ([]byte, error) {
	raw, ok := v.(json.RawMessage)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as jsonb", v)
	}

	if d.oid == JSONBOID && d.format == BinaryFormatCode {
		buf = append(buf, jsonbBinaryVersion)
	}
	return append(buf, raw...), nil
}

func loadJSON(src []byte) (any, error) {
	raw := make(json.RawMessage, len(src))
	copy(raw, src)
	return raw, nil
}

func loadJSONBBinary(src []byte) (any, error) {
	if len(src) == 0 {
		return nil, malformed("jsonb requires at least 1 byte for the version")
	}
	if src[0] != jsonbBinaryVersion {
		return nil, fmt.Errorf("unknown jsonb binary version %d", src[0])
	}
	return loadJSON(src[1:])
}

func registerJSON(m *Map) {
	m.RegisterDumper(json.RawMessage(nil), jsonDumper{oid: JSONBOID, format: BinaryFormatCode})
	m.RegisterDumper(json.RawMessage(nil), jsonDumper{oid: JSONBOID, format: TextFormatCode})

	m.RegisterLoader(JSONOID, TextFormatCode, LoaderFunc(loadJSON))
	m.RegisterLoader(JSONOID, BinaryFormatCode, LoaderFunc(loadJSON))
	m.RegisterLoader(JSONBOID, TextFormatCode, LoaderFunc(loadJSON))
	m.RegisterLoader(JSONBOID, BinaryFormatCode, LoaderFunc(loadJSONBBinary))
}
