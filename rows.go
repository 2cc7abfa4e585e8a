package pqstep

import (
	"github.com/pqstep/pqstep/pqgen"
)

// RowMaker builds an application-level row object from one decoded value
// sequence, decoupling decoding from row representation. The values slice
// is owned by the maker; the transformer does not reuse it.
type RowMaker func(values []any) any

// SliceRow is the default row maker: the row is the value slice itself.
func SliceRow(values []any) any { return values }

// MapRow returns a row maker producing a map keyed by column name.
// Surplus values beyond the given names are dropped.
func MapRow(names []string) RowMaker {
	return func(values []any) any {
		row := make(map[string]any, len(names))
		for i, name := range names {
			if i >= len(values) {
				break
			}
			row[name] = values[i]
		}
		return row
	}
}

// FieldNames returns the column names of a result, for use with MapRow.
func FieldNames(res pqgen.Result) []string {
	names := make([]string, res.NFields())
	for i := range names {
		names[i] = res.FieldName(i)
	}
	return names
}
