package pqtype

import (
	"fmt"
	"reflect"
)

// NoCodecFoundError is returned when a Map cannot resolve a dumper or
// loader. It is a per-value failure; the connection remains usable.
type NoCodecFoundError struct {
	// Type is set when dumper resolution failed.
	Type reflect.Type

	// OID is set when loader resolution failed.
	OID uint32

	Format int16
}

func (e *NoCodecFoundError) Error() string {
	if e.Type != nil {
		return fmt.Sprintf("no dumper found for Go type %s in format %d", e.Type, e.Format)
	}
	return fmt.Sprintf("no loader found for oid %d in format %d", e.OID, e.Format)
}

// MalformedBinaryDataError reports a length or count mismatch while parsing
// a binary wire value. It always aborts the current decode pass.
type MalformedBinaryDataError struct {
	Reason string
}

func (e *MalformedBinaryDataError) Error() string {
	return "malformed binary data: " + e.Reason
}

func malformed(format string, args ...any) error {
	return &MalformedBinaryDataError{Reason: fmt.Sprintf(format, args...)}
}
