package pqstep

import (
	"fmt"
)

// DumpError reports that encoding one parameter of a sequence failed. It
// carries the offending parameter's position.
type DumpError struct {
	Index int
	Err   error
}

func (e *DumpError) Error() string {
	return fmt.Sprintf("cannot dump parameter %d: %s", e.Index, e.Err)
}

func (e *DumpError) Unwrap() error { return e.Err }

// LoadError reports that decoding one field failed, with its row and
// column position. Row is -1 when the field did not come from an attached
// result.
type LoadError struct {
	Row    int
	Column int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("cannot load field %d: %s", e.Column, e.Err)
	}
	return fmt.Sprintf("cannot load row %d column %d: %s", e.Row, e.Column, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// RangeError reports a row range outside the attached result.
type RangeError struct {
	Row0    int
	Row1    int
	NTuples int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("rows %d..%d out of range for result with %d rows", e.Row0, e.Row1, e.NTuples)
}
