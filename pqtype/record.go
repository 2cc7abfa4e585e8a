package pqtype

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Composite (record) wire formats are described by record_send and
// record_in in src/backend/utils/adt/rowtypes.c.

// RecordLoadBinary parses a binary record value: an int32 field count,
// then per field the element oid and a length-prefixed payload or -1 for
// null. Field loaders are resolved through m from the embedded oids.
func RecordLoadBinary(src []byte, m *Map) ([]any, error) {
	if len(src) < 4 {
		return nil, malformed("record requires 4 bytes for the field count, got %d", len(src))
	}

	nfields := int(int32(binary.BigEndian.Uint32(src)))
	rp := 4
	if nfields < 0 {
		return nil, malformed("record has negative field count %d", nfields)
	}

	fields := make([]any, 0, nfields)
	for i := 0; i < nfields; i++ {
		if len(src) < rp+8 {
			return nil, malformed("record truncated in field %d header", i)
		}
		oid := binary.BigEndian.Uint32(src[rp:])
		fieldLen := int(int32(binary.BigEndian.Uint32(src[rp+4:])))
		rp += 8

		if fieldLen == -1 {
			fields = append(fields, nil)
			continue
		}
		if fieldLen < 0 || len(src) < rp+fieldLen {
			return nil, malformed("record field %d length %d exceeds remaining %d bytes", i, fieldLen, len(src)-rp)
		}

		l, err := m.GetLoader(oid, BinaryFormatCode)
		if err != nil {
			return nil, err
		}
		v, err := l.Load(src[rp : rp+fieldLen])
		if err != nil {
			return nil, err
		}
		rp += fieldLen
		fields = append(fields, v)
	}

	if rp != len(src) {
		return nil, malformed("record has %d trailing bytes", len(src)-rp)
	}
	return fields, nil
}

// RecordLoadText parses a text record value such as (a,"b,c",). Unlike
// arrays, an empty unquoted field is the null marker and quotes may be
// doubled to escape them. Fields load as strings; the record text format
// carries no type information.
func RecordLoadText(src []byte) ([]any, error) {
	if len(src) < 2 || src[0] != '(' || src[len(src)-1] != ')' {
		return nil, fmt.Errorf("invalid record: %q", src)
	}
	body := src[1 : len(src)-1]

	fields := []any{}
	pos := 0
	for {
		v, next, err := parseRecordField(body, pos)
		if err != nil {
			return nil, err
		}
		fields = append(fields, v)
		if next >= len(body) {
			return fields, nil
		}
		pos = next + 1 // skip ','
	}
}

func parseRecordField(body []byte, pos int) (any, int, error) {
	if pos >= len(body) || body[pos] == ',' {
		return nil, pos, nil // empty field is NULL
	}

	if body[pos] != '"' {
		end := pos
		for end < len(body) && body[end] != ',' {
			end++
		}
		return string(body[pos:end]), end, nil
	}

	var buf bytes.Buffer
	pos++
	for pos < len(body) {
		c := body[pos]
		switch c {
		case '\\':
			if pos+1 >= len(body) {
				return nil, 0, fmt.Errorf("invalid record: trailing backslash")
			}
			buf.WriteByte(body[pos+1])
			pos += 2
		case '"':
			if pos+1 < len(body) && body[pos+1] == '"' {
				buf.WriteByte('"')
				pos += 2
				continue
			}
			return buf.String(), pos + 1, nil
		default:
			buf.WriteByte(c)
			pos++
		}
	}
	return nil, 0, fmt.Errorf("invalid record: unterminated quoted field")
}

func registerRecord(m *Map) {
	m.RegisterLoader(RecordOID, BinaryFormatCode, LoaderFunc(func(src []byte) (any, error) {
		return RecordLoadBinary(src, m)
	}))
	m.RegisterLoader(RecordOID, TextFormatCode, LoaderFunc(func(src []byte) (any, error) {
		return RecordLoadText(src)
	}))
}
