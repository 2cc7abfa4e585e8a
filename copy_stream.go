package pqstep

import (
	"fmt"
	"io"

	"github.com/jackc/chunkreader/v2"
	"github.com/jackc/pgio"
)

// copySignature opens every COPY binary stream. It is followed by an
// int32 flags word and an int32 header extension length, both zero here.
var copySignature = []byte("PGCOPY\n\377\r\n\x00")

// CopyWriter streams rows to w in the COPY binary format. WriteRow
// encodes through the transformer's binary dumpers; Close emits the
// stream trailer. Rows are buffered one at a time, not per call site.
type CopyWriter struct {
	w      io.Writer
	tx     *Transformer
	buf    []byte
	closed bool
}

// NewCopyWriter writes the stream header immediately.
func NewCopyWriter(w io.Writer, tx *Transformer) (*CopyWriter, error) {
	buf := make([]byte, 0, 128)
	buf = append(buf, copySignature...)
	buf = pgio.AppendInt32(buf, 0) // flags
	buf = pgio.AppendInt32(buf, 0) // header extension length
	if _, err := w.Write(buf); err != nil {
		return nil, err
	}
	return &CopyWriter{w: w, tx: tx, buf: buf[:0]}, nil
}

func (cw *CopyWriter) WriteRow(row []any) error {
	if cw.closed {
		return fmt.Errorf("copy writer is closed")
	}
	buf, err := FormatRowBinary(cw.buf[:0], row, cw.tx)
	if err != nil {
		return err
	}
	cw.buf = buf[:0]
	_, err = cw.w.Write(buf)
	return err
}

// Close writes the trailer. It does not close the underlying writer.
func (cw *CopyWriter) Close() error {
	if cw.closed {
		return nil
	}
	cw.closed = true
	_, err := cw.w.Write(pgio.AppendInt16(cw.buf[:0], -1))
	return err
}

// CopyReader streams rows out of a COPY binary stream. ReadRow returns
// io.EOF after the stream trailer.
type CopyReader struct {
	cr     *chunkreader.ChunkReader
	tx     *Transformer
	header bool
	done   bool
}

func NewCopyReader(r io.Reader, tx *Transformer) *CopyReader {
	return &CopyReader{cr: chunkreader.New(r), tx: tx}
}

func (cr *CopyReader) readHeader() error {
	head, err := cr.cr.Next(len(copySignature) + 8)
	if err != nil {
		return err
	}
	if string(head[:len(copySignature)]) != string(copySignature) {
		return malformedBinary("invalid binary copy signature")
	}
	extLen := int32(uint32(head[15])<<24 | uint32(head[16])<<16 | uint32(head[17])<<8 | uint32(head[18]))
	if extLen < 0 {
		return malformedBinary("invalid binary copy header extension length %d", extLen)
	}
	if extLen > 0 {
		if _, err := cr.cr.Next(int(extLen)); err != nil {
			return err
		}
	}
	cr.header = true
	return nil
}

// ReadRow decodes the next tuple through the transformer's loader table.
func (cr *CopyReader) ReadRow() ([]any, error) {
	if cr.done {
		return nil, io.EOF
	}
	if !cr.header {
		if err := cr.readHeader(); err != nil {
			return nil, err
		}
	}

	countBuf, err := cr.cr.Next(2)
	if err != nil {
		return nil, err
	}
	fieldCount := int16(uint16(countBuf[0])<<8 | uint16(countBuf[1]))
	if fieldCount == -1 {
		cr.done = true
		return nil, io.EOF
	}
	if fieldCount < 0 {
		return nil, malformedBinary("invalid binary tuple field count %d", fieldCount)
	}

	fields := make([][]byte, fieldCount)
	for i := range fields {
		sizeBuf, err := cr.cr.Next(4)
		if err != nil {
			return nil, err
		}
		size := int32(uint32(sizeBuf[0])<<24 | uint32(sizeBuf[1])<<16 | uint32(sizeBuf[2])<<8 | uint32(sizeBuf[3]))
		if size == -1 {
			continue
		}
		if size < 0 {
			return nil, malformedBinary("invalid binary field length %d", size)
		}
		// Next's buffer is only valid until the following call.
		chunk, err := cr.cr.Next(int(size))
		if err != nil {
			return nil, err
		}
		fields[i] = make([]byte, size)
		copy(fields[i], chunk)
	}
	return cr.tx.LoadSequence(fields)
}
