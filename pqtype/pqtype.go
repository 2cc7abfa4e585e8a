// Package pqtype implements encoding and decoding between PostgreSQL wire
// values and Go values. A Map associates type OIDs and wire formats with
// loaders, and Go runtime types with dumpers. Maps are plain objects owned
// by whoever created them; two connections never share one unless the
// caller arranges it.
package pqtype

import (
	"reflect"
)

// PostgreSQL oids for the types with builtin codecs.
const (
	BoolOID             = 16
	ByteaOID            = 17
	NameOID             = 19
	Int8OID             = 20
	Int2OID             = 21
	Int4OID             = 23
	TextOID             = 25
	JSONOID             = 114
	BoxOID              = 603
	Float4OID           = 700
	Float8OID           = 701
	UnknownOID          = 705
	BoolArrayOID        = 1000
	ByteaArrayOID       = 1001
	Int2ArrayOID        = 1005
	Int4ArrayOID        = 1007
	TextArrayOID        = 1009
	VarcharArrayOID     = 1015
	Int8ArrayOID        = 1016
	Float4ArrayOID      = 1021
	Float8ArrayOID      = 1022
	VarcharOID          = 1043
	DateOID             = 1082
	TimestampOID        = 1114
	TimestampArrayOID   = 1115
	TimestamptzOID      = 1184
	TimestamptzArrayOID = 1185
	NumericArrayOID     = 1231
	NumericOID          = 1700
	RecordOID           = 2249
	UUIDOID             = 2950
	UUIDArrayOID        = 2951
	JSONBOID            = 3802
)

// PostgreSQL format codes. UnknownFormatCode may be passed to GetDumper to
// mean "whichever format the dumper prefers".
const (
	TextFormatCode    int16 = 0
	BinaryFormatCode  int16 = 1
	UnknownFormatCode int16 = -1
)

// A Dumper encodes one Go type into one wire format. Dump appends the
// encoding of v to buf and returns the extended buffer. A nil return buffer
// with nil error means SQL NULL.
type Dumper interface {
	// OID is the PostgreSQL type the dump output should be declared as.
	OID() uint32

	// Format is the wire format Dump produces.
	Format() int16

	Dump(v any, buf []byte) ([]byte, error)
}

// A Loader decodes a field in one (oid, format) shape into a Go value. src
// is never nil; callers represent SQL NULL themselves without invoking the
// loader. src is only valid for the duration of the call.
type Loader interface {
	Load(src []byte) (any, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(src []byte) (any, error)

func (f LoaderFunc) Load(src []byte) (any, error) { return f(src) }

type dumperKey struct {
	typ    reflect.Type
	format int16
}

type loaderKey struct {
	oid    uint32
	format int16
}

// Map resolves dumpers by Go runtime type and loaders by (oid, format)
// pair. It is not safe for concurrent mutation; register everything before
// sharing it with a decode pass.
type Map struct {
	dumpers map[dumperKey]Dumper
	loaders map[loaderKey]Loader
}

// NewMap returns a Map with the builtin codecs registered.
func NewMap() *Map {
	m := &Map{
		dumpers: make(map[dumperKey]Dumper, 64),
		loaders: make(map[loaderKey]Loader, 64),
	}
	registerBuiltins(m)
	return m
}

// RegisterDumper registers d for the runtime type of sample in d's format.
func (m *Map) RegisterDumper(sample any, d Dumper) {
	m.dumpers[dumperKey{typ: reflect.TypeOf(sample), format: d.Format()}] = d
}

// RegisterLoader registers l for the given oid and format, replacing any
// previous registration.
func (m *Map) RegisterLoader(oid uint32, format int16, l Loader) {
	m.loaders[loaderKey{oid: oid, format: format}] = l
}

// GetDumper resolves a dumper for the runtime type of v and the requested
// format. UnknownFormatCode prefers binary and falls back to text. Slices
// of any resolve through their first non-nil element.
func (m *Map) GetDumper(v any, format int16) (Dumper, error) {
	if s, ok := v.([]any); ok {
		return m.anySliceDumper(s, format)
	}

	typ := reflect.TypeOf(v)
	if format == UnknownFormatCode {
		if d, ok := m.dumpers[dumperKey{typ: typ, format: BinaryFormatCode}]; ok {
			return d, nil
		}
		if d, ok := m.dumpers[dumperKey{typ: typ, format: TextFormatCode}]; ok {
			return d, nil
		}
		return nil, &NoCodecFoundError{Type: typ, Format: format}
	}

	if d, ok := m.dumpers[dumperKey{typ: typ, format: format}]; ok {
		return d, nil
	}
	return nil, &NoCodecFoundError{Type: typ, Format: format}
}

// anySliceDumper builds an array dumper for a []any from its first non-nil
// element. An all-null slice dumps as a text array of NULLs.
func (m *Map) anySliceDumper(s []any, format int16) (Dumper, error) {
	for _, el := range s {
		if el == nil {
			continue
		}
		elem, err := m.GetDumper(el, format)
		if err != nil {
			return nil, err
		}
		return &ArrayDumper{Elem: elem, ArrayOID: arrayOIDFor(elem.OID())}, nil
	}
	return &ArrayDumper{Elem: textDumper{format: TextFormatCode}, ArrayOID: TextArrayOID}, nil
}

// GetLoader resolves a loader for the declared column oid and format. Text
// fields of unregistered types fall back to the generic text loader, which
// produces a string; binary fields of unregistered types fail with
// *NoCodecFoundError.
func (m *Map) GetLoader(oid uint32, format int16) (Loader, error) {
	if l, ok := m.loaders[loaderKey{oid: oid, format: format}]; ok {
		return l, nil
	}
	if format == TextFormatCode {
		if l, ok := m.loaders[loaderKey{oid: UnknownOID, format: TextFormatCode}]; ok {
			return l, nil
		}
	}
	return nil, &NoCodecFoundError{OID: oid, Format: format}
}

// PlanLoaders resolves one loader per column, for the statement about to be
// decoded. len(oids) must equal len(formats). The returned table is
// positional and must not be mutated while a decode pass is using it.
func (m *Map) PlanLoaders(oids []uint32, formats []int16) ([]Loader, error) {
	loaders := make([]Loader, len(oids))
	for i := range oids {
		l, err := m.GetLoader(oids[i], formats[i])
		if err != nil {
			return nil, err
		}
		loaders[i] = l
	}
	return loaders, nil
}

func arrayOIDFor(elementOID uint32) uint32 {
	switch elementOID {
	case BoolOID:
		return BoolArrayOID
	case ByteaOID:
		return ByteaArrayOID
	case Int2OID:
		return Int2ArrayOID
	case Int4OID:
		return Int4ArrayOID
	case TextOID:
		return TextArrayOID
	case VarcharOID:
		return VarcharArrayOID
	case Int8OID:
		return Int8ArrayOID
	case Float4OID:
		return Float4ArrayOID
	case Float8OID:
		return Float8ArrayOID
	case TimestampOID:
		return TimestampArrayOID
	case TimestamptzOID:
		return TimestamptzArrayOID
	case NumericOID:
		return NumericArrayOID
	case UUIDOID:
		return UUIDArrayOID
	default:
		return UnknownOID
	}
}

func registerBuiltins(m *Map) {
	registerBool(m)
	registerInt(m)
	registerFloat(m)
	registerText(m)
	registerBytea(m)
	registerTime(m)
	registerUUID(m)
	registerNumeric(m)
	registerJSON(m)
	registerArrays(m)
	registerRecord(m)
}
