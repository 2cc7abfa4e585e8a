package pqtype

import (
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"

	"github.com/jackc/pgio"
)

// The binary array wire format allows at most this many dimensions (matches
// MAXDIM in the server).
const maxArrayDimensions = 6

// ArrayLoadBinary parses the binary array wire format: ndim, a has-null
// flag, the element type oid, per-dimension length and lower bound, then
// the elements with a length prefix or -1 for null. Nested dimensions
// produce nested []any.
//
// The element loader is resolved from the embedded oid through m, which
// overrides planned for this call only. planned is consulted when the
// embedded oid has no binary loader registered.
func ArrayLoadBinary(src []byte, m *Map, planned Loader) ([]any, error) {
	if len(src) < 12 {
		return nil, malformed("array header requires 12 bytes, got %d", len(src))
	}

	ndim := int(int32(binary.BigEndian.Uint32(src)))
	elemOID := binary.BigEndian.Uint32(src[8:])
	rp := 12

	if ndim < 0 || ndim > maxArrayDimensions {
		return nil, malformed("array has invalid dimension count %d", ndim)
	}
	if ndim == 0 {
		return []any{}, nil
	}
	if len(src) < rp+8*ndim {
		return nil, malformed("array with %d dimensions requires %d header bytes, got %d", ndim, 12+8*ndim, len(src))
	}

	dims := make([]int, ndim)
	for i := range dims {
		dims[i] = int(int32(binary.BigEndian.Uint32(src[rp:])))
		rp += 8 // skip the lower bound
		if dims[i] < 0 {
			return nil, malformed("array dimension %d has negative length", i)
		}
	}

	elem, err := resolveArrayElementLoader(m, elemOID, planned)
	if err != nil {
		return nil, err
	}

	var build func(dim int) ([]any, error)
	build = func(dim int) ([]any, error) {
		out := make([]any, 0, dims[dim])
		for i := 0; i < dims[dim]; i++ {
			if dim < ndim-1 {
				sub, err := build(dim + 1)
				if err != nil {
					return nil, err
				}
				out = append(out, sub)
				continue
			}

			if len(src) < rp+4 {
				return nil, malformed("array truncated in element length prefix")
			}
			elemLen := int(int32(binary.BigEndian.Uint32(src[rp:])))
			rp += 4
			if elemLen == -1 {
				out = append(out, nil)
				continue
			}
			if elemLen < 0 || len(src) < rp+elemLen {
				return nil, malformed("array element length %d exceeds remaining %d bytes", elemLen, len(src)-rp)
			}
			v, err := elem.Load(src[rp : rp+elemLen])
			if err != nil {
				return nil, err
			}
			rp += elemLen
			out = append(out, v)
		}
		return out, nil
	}

	a, err := build(0)
	if err != nil {
		return nil, err
	}
	if rp != len(src) {
		return nil, malformed("array has %d trailing bytes", len(src)-rp)
	}
	return a, nil
}

func resolveArrayElementLoader(m *Map, elemOID uint32, planned Loader) (Loader, error) {
	if m != nil {
		l, err := m.GetLoader(elemOID, BinaryFormatCode)
		if err == nil {
			return l, nil
		}
		var ncf *NoCodecFoundError
		if !errors.As(err, &ncf) || planned == nil {
			return nil, err
		}
	}
	if planned == nil {
		return nil, &NoCodecFoundError{OID: elemOID, Format: BinaryFormatCode}
	}
	return planned, nil
}

// ArrayDumper encodes a one-dimensional Go slice as a PostgreSQL array of
// Elem's type, in Elem's format.
type ArrayDumper struct {
	Elem     Dumper
	ArrayOID uint32
}

func (d *ArrayDumper) OID() uint32   { return d.ArrayOID }
func (d *ArrayDumper) Format() int16 { return d.Elem.Format() }

func (d *ArrayDumper) Dump(v any, buf []byte) ([]byte, error) {
	elems, err := toElementSlice(v)
	if err != nil {
		return nil, err
	}

	if d.Elem.Format() == TextFormatCode {
		return ArrayFormatText(buf, elems, d.Elem, ',')
	}
	return d.dumpBinary(elems, buf)
}

func (d *ArrayDumper) dumpBinary(elems []any, buf []byte) ([]byte, error) {
	if len(elems) == 0 {
		buf = pgio.AppendInt32(buf, 0)
		buf = pgio.AppendInt32(buf, 0)
		return pgio.AppendUint32(buf, d.Elem.OID()), nil
	}

	buf = pgio.AppendInt32(buf, 1)
	containsNullIndex := len(buf)
	buf = pgio.AppendInt32(buf, 0)
	buf = pgio.AppendUint32(buf, d.Elem.OID())
	buf = pgio.AppendInt32(buf, int32(len(elems)))
	buf = pgio.AppendInt32(buf, 1) // lower bound

	for _, el := range elems {
		if el == nil {
			pgio.SetInt32(buf[containsNullIndex:], 1)
			buf = pgio.AppendInt32(buf, -1)
			continue
		}

		sp := len(buf)
		buf = pgio.AppendInt32(buf, -1)
		elemBuf, err := d.Elem.Dump(el, buf)
		if err != nil {
			return nil, err
		}
		if elemBuf == nil {
			pgio.SetInt32(buf[containsNullIndex:], 1)
		} else {
			buf = elemBuf
			pgio.SetInt32(buf[sp:], int32(len(buf)-sp-4))
		}
	}

	return buf, nil
}

func toElementSlice(v any) ([]any, error) {
	if elems, ok := v.([]any); ok {
		return elems, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("cannot dump %T as an array", v)
	}
	elems := make([]any, rv.Len())
	for i := range elems {
		elems[i] = rv.Index(i).Interface()
	}
	return elems, nil
}

func registerArrays(m *Map) {
	elementOIDs := map[uint32]uint32{
		BoolArrayOID:        BoolOID,
		ByteaArrayOID:       ByteaOID,
		Int2ArrayOID:        Int2OID,
		Int4ArrayOID:        Int4OID,
		TextArrayOID:        TextOID,
		VarcharArrayOID:     VarcharOID,
		Int8ArrayOID:        Int8OID,
		Float4ArrayOID:      Float4OID,
		Float8ArrayOID:      Float8OID,
		TimestampArrayOID:   TimestampOID,
		TimestamptzArrayOID: TimestamptzOID,
		NumericArrayOID:     NumericOID,
		UUIDArrayOID:        UUIDOID,
	}

	for arrayOID, elemOID := range elementOIDs {
		elemOID := elemOID
		m.RegisterLoader(arrayOID, TextFormatCode, LoaderFunc(func(src []byte) (any, error) {
			elem, err := m.GetLoader(elemOID, TextFormatCode)
			if err != nil {
				return nil, err
			}
			return ArrayLoadText(src, elem, ',')
		}))
		m.RegisterLoader(arrayOID, BinaryFormatCode, LoaderFunc(func(src []byte) (any, error) {
			return ArrayLoadBinary(src, m, nil)
		}))
	}

	m.RegisterDumper([]int64(nil), &ArrayDumper{Elem: intDumper{oid: Int8OID, format: BinaryFormatCode}, ArrayOID: Int8ArrayOID})
	m.RegisterDumper([]int64(nil), &ArrayDumper{Elem: intDumper{oid: Int8OID, format: TextFormatCode}, ArrayOID: Int8ArrayOID})
	m.RegisterDumper([]string(nil), &ArrayDumper{Elem: textDumper{format: BinaryFormatCode}, ArrayOID: TextArrayOID})
	m.RegisterDumper([]string(nil), &ArrayDumper{Elem: textDumper{format: TextFormatCode}, ArrayOID: TextArrayOID})
	m.RegisterDumper([]float64(nil), &ArrayDumper{Elem: floatDumper{oid: Float8OID, format: BinaryFormatCode}, ArrayOID: Float8ArrayOID})
	m.RegisterDumper([]float64(nil), &ArrayDumper{Elem: floatDumper{oid: Float8OID, format: TextFormatCode}, ArrayOID: Float8ArrayOID})
	m.RegisterDumper([]bool(nil), &ArrayDumper{Elem: boolDumper{format: BinaryFormatCode}, ArrayOID: BoolArrayOID})
	m.RegisterDumper([]bool(nil), &ArrayDumper{Elem: boolDumper{format: TextFormatCode}, ArrayOID: BoolArrayOID})
}
