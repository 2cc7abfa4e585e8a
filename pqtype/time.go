package pqtype

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/jackc/pgio"
)

const (
	microsecFromUnixEpochToY2K = 946684800 * 1000000
	secFromUnixEpochToY2K      = 946684800
)

const (
	timestamptzTextFormat = "2006-01-02 15:04:05.999999999Z07:00"
	timestampTextFormat   = "2006-01-02 15:04:05.999999999"
	dateTextFormat        = "2006-01-02"
)

// PostgreSQL emits a bare or two-digit zone offset for most zones, so
// parsing tries several layouts.
var timestamptzParseFormats = []string{
	"2006-01-02 15:04:05.999999999Z07:00:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
}

type timestampDumper struct {
	oid    uint32
	format int16
}

func (d timestampDumper) OID() uint32   { return d.oid }
func (d timestampDumper) Format() int16 { return d.format }

func (d timestampDumper) Dump(v any, buf []byte) ([]byte, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as timestamp", v)
	}

	if d.format == BinaryFormatCode {
		micros := t.Unix()*1000000 + int64(t.Nanosecond())/1000 - microsecFromUnixEpochToY2K
		return pgio.AppendInt64(buf, micros), nil
	}

	switch d.oid {
	case TimestampOID:
		return t.UTC().AppendFormat(buf, timestampTextFormat), nil
	case DateOID:
		return t.AppendFormat(buf, dateTextFormat), nil
	default:
		return t.AppendFormat(buf, timestamptzTextFormat), nil
	}
}

func loadTimestamptzText(src []byte) (any, error) {
	s := string(src)
	for _, format := range timestamptzParseFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("cannot parse %q as timestamptz", s)
}

func loadTimestampText(src []byte) (any, error) {
	t, err := time.Parse(timestampTextFormat, string(src))
	if err != nil {
		return nil, fmt.Errorf("cannot parse %q as timestamp", src)
	}
	return t, nil
}

func loadDateText(src []byte) (any, error) {
	t, err := time.Parse(dateTextFormat, string(src))
	if err != nil {
		return nil, fmt.Errorf("cannot parse %q as date", src)
	}
	return t, nil
}

func loadTimestampBinary(src []byte) (any, error) {
	if len(src) != 8 {
		return nil, malformed("timestamp requires 8 bytes, got %d", len(src))
	}
	micros := int64(binary.BigEndian.Uint64(src)) + microsecFromUnixEpochToY2K
	return time.Unix(micros/1000000, (micros%1000000)*1000).UTC(), nil
}

func loadDateBinary(src []byte) (any, error) {
	if len(src) != 4 {
		return nil, malformed("date requires 4 bytes, got %d", len(src))
	}
	days := int32(binary.BigEndian.Uint32(src))
	return time.Unix(int64(days)*86400+secFromUnixEpochToY2K, 0).UTC(), nil
}

func registerTime(m *Map) {
	m.RegisterDumper(time.Time{}, timestampDumper{oid: TimestamptzOID, format: BinaryFormatCode})
	m.RegisterDumper(time.Time{}, timestampDumper{oid: TimestamptzOID, format: TextFormatCode})

	m.RegisterLoader(TimestamptzOID, TextFormatCode, LoaderFunc(loadTimestamptzText))
	m.RegisterLoader(TimestamptzOID, BinaryFormatCode, LoaderFunc(loadTimestampBinary))
	m.RegisterLoader(TimestampOID, TextFormatCode, LoaderFunc(loadTimestampText))
	m.RegisterLoader(TimestampOID, BinaryFormatCode, LoaderFunc(loadTimestampBinary))
	m.RegisterLoader(DateOID, TextFormatCode, LoaderFunc(loadDateText))
	m.RegisterLoader(DateOID, BinaryFormatCode, LoaderFunc(loadDateBinary))
}
