package pqstep

import (
	"fmt"

	"github.com/jackc/pgio"

	"github.com/pqstep/pqstep/pqtype"
)

// copyNull is the unquoted null marker of the COPY text sub-protocol.
var copyNull = []byte(`\N`)

func malformedBinary(format string, args ...any) error {
	return &pqtype.MalformedBinaryDataError{Reason: fmt.Sprintf(format, args...)}
}

// FormatRowText appends one COPY text line for row to buf, including the
// trailing newline. Values are encoded with their text dumpers from tx;
// nil values become \N.
func FormatRowText(buf []byte, row []any, tx *Transformer) ([]byte, error) {
	for i, v := range row {
		if i > 0 {
			buf = append(buf, '\t')
		}
		if v == nil {
			buf = append(buf, copyNull...)
			continue
		}
		d, err := tx.getDumper(v, pqtype.TextFormatCode)
		if err != nil {
			return nil, &DumpError{Index: i, Err: err}
		}
		// A nil scratch buffer would make a zero-length dump look like a
		// dumper signaling NULL.
		raw, err := d.Dump(v, make([]byte, 0, 16))
		if err != nil {
			return nil, &DumpError{Index: i, Err: err}
		}
		if raw == nil {
			buf = append(buf, copyNull...)
			continue
		}
		buf = appendCopyEscaped(buf, raw)
	}
	return append(buf, '\n'), nil
}

func appendCopyEscaped(buf, raw []byte) []byte {
	for _, c := range raw {
		switch c {
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\b':
			buf = append(buf, '\\', 'b')
		case '\f':
			buf = append(buf, '\\', 'f')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		case '\v':
			buf = append(buf, '\\', 'v')
		default:
			buf = append(buf, c)
		}
	}
	return buf
}

// ParseRowText splits one COPY text line (with or without the trailing
// newline) into fields, undoing COPY escapes, and decodes each field
// through tx's loader table. A raw field of exactly \N yields a nil
// value; escapes make a field non-null even when it unescapes to "N".
func ParseRowText(line []byte, tx *Transformer) ([]any, error) {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}

	raw, err := splitCopyFields(line)
	if err != nil {
		return nil, err
	}

	fields := make([][]byte, len(raw))
	for i, f := range raw {
		if len(f) == 2 && f[0] == '\\' && f[1] == 'N' {
			continue
		}
		fields[i], err = unescapeCopyField(f)
		if err != nil {
			return nil, err
		}
	}
	return tx.LoadSequence(fields)
}

// splitCopyFields cuts line at unescaped tabs, leaving escapes intact.
func splitCopyFields(line []byte) ([][]byte, error) {
	var fields [][]byte
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			if i+1 >= len(line) {
				return nil, fmt.Errorf("truncated escape at end of line")
			}
			i++
		case '\t':
			fields = append(fields, line[start:i])
			start = i + 1
		}
	}
	return append(fields, line[start:]), nil
}

func unescapeCopyField(raw []byte) ([]byte, error) {
	field := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' {
			field = append(field, c)
			continue
		}
		i++
		switch raw[i] {
		case 'b':
			field = append(field, '\b')
		case 'f':
			field = append(field, '\f')
		case 'n':
			field = append(field, '\n')
		case 'r':
			field = append(field, '\r')
		case 't':
			field = append(field, '\t')
		case 'v':
			field = append(field, '\v')
		default:
			field = append(field, raw[i])
		}
	}
	return field, nil
}

// FormatRowBinary appends one COPY binary tuple for row to buf: an int16
// field count followed by int32-length-prefixed values, -1 length for
// null. Values are encoded with their binary dumpers from tx.
func FormatRowBinary(buf []byte, row []any, tx *Transformer) ([]byte, error) {
	buf = pgio.AppendInt16(buf, int16(len(row)))
	for i, v := range row {
		if v == nil {
			buf = pgio.AppendInt32(buf, -1)
			continue
		}
		d, err := tx.getDumper(v, pqtype.BinaryFormatCode)
		if err != nil {
			return nil, &DumpError{Index: i, Err: err}
		}
		sp := len(buf)
		buf = pgio.AppendInt32(buf, -1)
		out, err := d.Dump(v, buf)
		if err != nil {
			return nil, &DumpError{Index: i, Err: err}
		}
		if out == nil {
			continue
		}
		buf = out
		pgio.SetInt32(buf[sp:], int32(len(buf)-sp-4))
	}
	return buf, nil
}

// ParseRowBinary decodes one COPY binary tuple and loads each field
// through tx's loader table. It returns the decoded row and the number
// of bytes consumed from src. A field count of -1 (the stream trailer)
// returns (nil, 2, nil).
func ParseRowBinary(src []byte, tx *Transformer) ([]any, int, error) {
	if len(src) < 2 {
		return nil, 0, malformedBinary("binary tuple too short: %d bytes", len(src))
	}
	fieldCount := int16(uint16(src[0])<<8 | uint16(src[1]))
	rp := 2
	if fieldCount == -1 {
		return nil, rp, nil
	}
	if fieldCount < 0 {
		return nil, 0, malformedBinary("invalid binary tuple field count %d", fieldCount)
	}

	fields := make([][]byte, fieldCount)
	for i := range fields {
		if len(src[rp:]) < 4 {
			return nil, 0, malformedBinary("binary tuple truncated in field %d length", i)
		}
		size := int32(uint32(src[rp])<<24 | uint32(src[rp+1])<<16 | uint32(src[rp+2])<<8 | uint32(src[rp+3]))
		rp += 4
		if size == -1 {
			continue
		}
		if size < 0 || len(src[rp:]) < int(size) {
			return nil, 0, malformedBinary("binary tuple truncated in field %d value", i)
		}
		fields[i] = src[rp : rp+int(size) : rp+int(size)]
		rp += int(size)
	}

	row, err := tx.LoadSequence(fields)
	if err != nil {
		return nil, 0, err
	}
	return row, rp, nil
}
