package pqstep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"

	"golang.org/x/text/encoding"

	"github.com/pqstep/pqstep/pqgen"
	"github.com/pqstep/pqstep/pqtype"
)

// Transformer orchestrates per-row encoding and decoding for one
// statement at a time. It owns the statement's type and format metadata
// and the loader dispatch table derived from them; the table is resolved
// once per statement, not once per row, and is treated as immutable while
// a decode pass runs.
//
// A Transformer belongs to a single connection context and is not safe
// for concurrent use.
type Transformer struct {
	conn     pqgen.Conn // optional owning connection
	typeMap  *pqtype.Map
	decoder  *encoding.Decoder // nil means client encoding is UTF8-compatible
	res      pqgen.Result
	types    []uint32
	formats  []int16
	loaders  []pqtype.Loader
	rowMaker RowMaker

	dumperCache map[dumperCacheKey]pqtype.Dumper
	dumpBuf     []byte

	logger   Logger
	logLevel LogLevel
}

type dumperCacheKey struct {
	typ    reflect.Type
	format int16
}

// NewTransformer returns a Transformer using the given codec map. A nil
// map gets a fresh map with the builtin codecs.
func NewTransformer(m *pqtype.Map) *Transformer {
	if m == nil {
		m = pqtype.NewMap()
	}
	return &Transformer{
		typeMap:     m,
		rowMaker:    SliceRow,
		dumperCache: make(map[dumperCacheKey]pqtype.Dumper),
		logLevel:    LogLevelNone,
	}
}

// TypeMap returns the codec map the transformer resolves against.
func (t *Transformer) TypeMap() *pqtype.Map { return t.typeMap }

// SetConn attaches the owning connection. It is informational; the
// transformer never performs I/O.
func (t *Transformer) SetConn(conn pqgen.Conn) { t.conn = conn }

// Conn returns the owning connection, if any.
func (t *Transformer) Conn() pqgen.Conn { return t.conn }

// SetRowMaker replaces the row construction function. Passing nil
// restores SliceRow.
func (t *Transformer) SetRowMaker(maker RowMaker) {
	if maker == nil {
		maker = SliceRow
	}
	t.rowMaker = maker
}

// SetLogger directs internal logging to l at the given level.
func (t *Transformer) SetLogger(l Logger, level LogLevel) {
	t.logger = l
	t.logLevel = level
}

// SetClientEncoding sets the character encoding used to interpret
// text-format fields.
func (t *Transformer) SetClientEncoding(name string) error {
	enc, err := encodingByName(name)
	if err != nil {
		return err
	}
	if enc == nil {
		t.decoder = nil
	} else {
		t.decoder = enc.NewDecoder()
	}
	return nil
}

// SetResult attaches a result. When setLoaders is true the loader
// dispatch table is re-derived from the result's column oids; format
// overrides every column's format unless it is
// pqtype.UnknownFormatCode, in which case each column reports its own.
// Re-attaching the same result with the same arguments has no observable
// effect.
func (t *Transformer) SetResult(res pqgen.Result, setLoaders bool, format int16) error {
	if res == t.res && !setLoaders {
		return nil
	}
	t.res = res

	n := res.NFields()
	t.types = make([]uint32, n)
	t.formats = make([]int16, n)
	for i := 0; i < n; i++ {
		t.types[i] = res.FieldOID(i)
		if format == pqtype.UnknownFormatCode {
			t.formats[i] = res.FieldFormat(i)
		} else {
			t.formats[i] = format
		}
	}

	if setLoaders {
		loaders, err := t.typeMap.PlanLoaders(t.types, t.formats)
		if err != nil {
			return err
		}
		t.loaders = loaders
	}

	t.log(LogLevelDebug, "result attached", map[string]any{"columns": n, "setLoaders": setLoaders})
	return nil
}

// Result returns the currently attached result, if any.
func (t *Transformer) Result() pqgen.Result { return t.res }

// SetLoaderTypes declares the oid and format of each column expected from
// the upcoming statement and precomputes the loader dispatch table.
func (t *Transformer) SetLoaderTypes(oids []uint32, formats []int16) error {
	if len(oids) != len(formats) {
		return fmt.Errorf("mismatched lengths: %d oids, %d formats", len(oids), len(formats))
	}
	loaders, err := t.typeMap.PlanLoaders(oids, formats)
	if err != nil {
		return err
	}
	t.types = append(t.types[:0], oids...)
	t.formats = append(t.formats[:0], formats...)
	t.loaders = loaders
	return nil
}

// Types and Formats describe the active row shape. When both are set they
// have equal length.
func (t *Transformer) Types() []uint32  { return t.types }
func (t *Transformer) Formats() []int16 { return t.formats }

// DumpSequence encodes one row of parameters in the requested per-value
// formats. Each output buffer is either the encoded value or nil for SQL
// NULL; a zero-length value yields a non-nil empty buffer. The oids of
// the chosen dumpers are returned alongside (0 for null parameters).
//
// The output buffers alias an internal arena that is reused by the next
// DumpSequence call.
func (t *Transformer) DumpSequence(params []any, formats []int16) ([][]byte, []uint32, error) {
	if len(params) != len(formats) {
		return nil, nil, fmt.Errorf("mismatched lengths: %d parameters, %d formats", len(params), len(formats))
	}

	out := make([][]byte, len(params))
	oids := make([]uint32, len(params))
	offsets := make([][2]int, len(params))
	arena := t.dumpBuf[:0]
	if arena == nil {
		// A nil arena would make a zero-length dump indistinguishable
		// from a dumper signaling NULL.
		arena = make([]byte, 0, 64)
	}

	for i, v := range params {
		if v == nil {
			offsets[i] = [2]int{-1, -1}
			continue
		}

		d, err := t.getDumper(v, formats[i])
		if err != nil {
			return nil, nil, &DumpError{Index: i, Err: err}
		}
		oids[i] = d.OID()

		sp := len(arena)
		buf, err := d.Dump(v, arena)
		if err != nil {
			t.log(LogLevelError, "dump failed", map[string]any{"index": i, "value": logParamValue(v), "err": err})
			return nil, nil, &DumpError{Index: i, Err: err}
		}
		if buf == nil {
			offsets[i] = [2]int{-1, -1}
			oids[i] = 0
			continue
		}
		arena = buf
		offsets[i] = [2]int{sp, len(arena)}
	}

	// Slicing is deferred until the arena stops growing, so reallocation
	// cannot invalidate earlier row buffers.
	t.dumpBuf = arena
	for i, off := range offsets {
		if off[0] == -1 {
			continue
		}
		out[i] = arena[off[0]:off[1]:off[1]]
	}
	return out, oids, nil
}

func (t *Transformer) getDumper(v any, format int16) (pqtype.Dumper, error) {
	key := dumperCacheKey{typ: reflect.TypeOf(v), format: format}
	if d, ok := t.dumperCache[key]; ok {
		return d, nil
	}
	d, err := t.typeMap.GetDumper(v, format)
	if err != nil {
		return nil, err
	}
	t.dumperCache[key] = d
	return d, nil
}

// LoadRows decodes the half-open row range [row0, row1) of the attached
// result through the precomputed loader table.
func (t *Transformer) LoadRows(row0, row1 int) ([]any, error) {
	if t.res == nil {
		return nil, errors.New("no result attached")
	}
	n := t.res.NTuples()
	if row0 < 0 || row0 > row1 || row1 > n {
		return nil, &RangeError{Row0: row0, Row1: row1, NTuples: n}
	}

	rows := make([]any, 0, row1-row0)
	for r := row0; r < row1; r++ {
		values, err := t.loadRowValues(r)
		if err != nil {
			return nil, err
		}
		rows = append(rows, t.rowMaker(values))
	}
	return rows, nil
}

// LoadRow decodes a single row. A row index past the end of the result
// returns (nil, nil), distinguishing "end of results" from failure.
func (t *Transformer) LoadRow(row int) (any, error) {
	if t.res == nil {
		return nil, errors.New("no result attached")
	}
	if row < 0 || row >= t.res.NTuples() {
		return nil, nil
	}
	values, err := t.loadRowValues(row)
	if err != nil {
		return nil, err
	}
	return t.rowMaker(values), nil
}

func (t *Transformer) loadRowValues(row int) ([]any, error) {
	values := make([]any, len(t.loaders))
	for col := range t.loaders {
		src := t.res.Value(row, col)
		if src == nil {
			continue
		}
		v, err := t.loadField(col, src)
		if err != nil {
			return nil, &LoadError{Row: row, Column: col, Err: err}
		}
		values[col] = v
	}
	return values, nil
}

// LoadSequence decodes one externally supplied record (e.g. a COPY line
// already split into fields) through the current loader table,
// independent of any attached result. A nil field is SQL NULL.
func (t *Transformer) LoadSequence(record [][]byte) ([]any, error) {
	if len(record) != len(t.loaders) {
		return nil, fmt.Errorf("record has %d fields, loader table has %d", len(record), len(t.loaders))
	}

	values := make([]any, len(record))
	for col, src := range record {
		if src == nil {
			continue
		}
		v, err := t.loadField(col, src)
		if err != nil {
			return nil, &LoadError{Row: -1, Column: col, Err: err}
		}
		values[col] = v
	}
	return values, nil
}

func (t *Transformer) loadField(col int, src []byte) (any, error) {
	if t.decoder != nil && t.formats[col] == pqtype.TextFormatCode {
		converted, err := t.decoder.Bytes(src)
		if err != nil {
			return nil, err
		}
		src = converted
	}
	return t.loaders[col].Load(src)
}

// AsLiteral renders v as a quoted SQL literal using its text dumper plus
// driver-side escaping. It is meant for safe literal inlining, not for
// parameter binding.
func (t *Transformer) AsLiteral(v any) ([]byte, error) {
	if v == nil {
		return []byte("NULL"), nil
	}

	d, err := t.getDumper(v, pqtype.TextFormatCode)
	if err != nil {
		return nil, err
	}
	// A nil scratch buffer would make a zero-length dump look like a
	// dumper signaling NULL, rendering '' as the NULL keyword.
	raw, err := d.Dump(v, make([]byte, 0, 16))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return []byte("NULL"), nil
	}
	return quoteLiteral(raw), nil
}

// quoteLiteral single-quotes raw, doubling embedded quotes. Backslashes
// force the E'' form so the result is safe regardless of the server's
// standard_conforming_strings setting.
func quoteLiteral(raw []byte) []byte {
	quoted := make([]byte, 0, len(raw)+3)
	if bytes.IndexByte(raw, '\\') >= 0 {
		quoted = append(quoted, 'E')
	}
	quoted = append(quoted, '\'')
	for _, c := range raw {
		switch c {
		case '\'':
			quoted = append(quoted, '\'', '\'')
		case '\\':
			quoted = append(quoted, '\\', '\\')
		default:
			quoted = append(quoted, c)
		}
	}
	return append(quoted, '\'')
}

func (t *Transformer) log(level LogLevel, msg string, data map[string]any) {
	if t.logger == nil || level > t.logLevel {
		return
	}
	t.logger.Log(context.Background(), level, msg, data)
}
