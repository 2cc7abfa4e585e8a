package pqtype

import (
	"bytes"
	"fmt"
	"strings"
)

// Information on the internals of PostgreSQL arrays can be found in
// src/include/utils/array.h and src/backend/utils/adt/arrayfuncs.c.

// ArrayLoadText parses a PostgreSQL array literal such as {1,NULL,3},
// loading each element through elem. Nested arrays produce nested []any.
// The element delimiter is configurable because a few types (box) delimit
// with ';' instead of ','.
func ArrayLoadText(src []byte, elem Loader, delim byte) ([]any, error) {
	p := &textArrayParser{src: src, elem: elem, delim: delim}

	p.skipWhitespace()
	if !p.expect('{') {
		return nil, fmt.Errorf("invalid array: expected '{' at position %d", p.pos)
	}
	a, err := p.parseArray()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("invalid array: unexpected trailing data %q", p.src[p.pos:])
	}
	return a, nil
}

type textArrayParser struct {
	src   []byte
	pos   int
	elem  Loader
	delim byte
}

func (p *textArrayParser) skipWhitespace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n' || p.src[p.pos] == '\r') {
		p.pos++
	}
}

func (p *textArrayParser) expect(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

// parseArray is called with the opening '{' already consumed.
func (p *textArrayParser) parseArray() ([]any, error) {
	a := []any{}

	if p.expect('}') {
		return a, nil
	}

	for {
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("invalid array: unterminated at position %d", p.pos)
		}

		switch p.src[p.pos] {
		case '{':
			p.pos++
			sub, err := p.parseArray()
			if err != nil {
				return nil, err
			}
			a = append(a, sub)
		case '"':
			p.pos++
			v, err := p.parseQuotedElement()
			if err != nil {
				return nil, err
			}
			a = append(a, v)
		default:
			v, err := p.parseUnquotedElement()
			if err != nil {
				return nil, err
			}
			a = append(a, v)
		}

		if p.expect('}') {
			return a, nil
		}
		if !p.expect(p.delim) {
			return nil, fmt.Errorf("invalid array: expected %q or '}' at position %d", p.delim, p.pos)
		}
	}
}

func (p *textArrayParser) parseQuotedElement() (any, error) {
	var buf bytes.Buffer
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		switch c {
		case '\\':
			if p.pos >= len(p.src) {
				return nil, fmt.Errorf("invalid array: trailing backslash")
			}
			buf.WriteByte(p.src[p.pos])
			p.pos++
		case '"':
			return p.loadElement(buf.Bytes())
		default:
			buf.WriteByte(c)
		}
	}
	return nil, fmt.Errorf("invalid array: unterminated quoted element")
}

// An unquoted element runs until the delimiter or closing brace. The NULL
// keyword, case-insensitive and only unquoted, is the null marker.
func (p *textArrayParser) parseUnquotedElement() (any, error) {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != p.delim && p.src[p.pos] != '}' {
		p.pos++
	}
	raw := p.src[start:p.pos]
	if strings.EqualFold(string(raw), "NULL") {
		return nil, nil
	}
	return p.loadElement(raw)
}

func (p *textArrayParser) loadElement(raw []byte) (any, error) {
	if p.elem == nil {
		return string(raw), nil
	}
	return p.elem.Load(raw)
}

// ArrayFormatText appends the array literal encoding of a (possibly
// nested) element list, dumping each non-nil leaf through elem.
func ArrayFormatText(buf []byte, a []any, elem Dumper, delim byte) ([]byte, error) {
	buf = append(buf, '{')
	for i, v := range a {
		if i > 0 {
			buf = append(buf, delim)
		}

		switch v := v.(type) {
		case nil:
			buf = append(buf, "NULL"...)
		case []any:
			var err error
			buf, err = ArrayFormatText(buf, v, elem, delim)
			if err != nil {
				return nil, err
			}
		default:
			// A nil scratch buffer would make a zero-length element look
			// like a dumper signaling NULL.
			elemBuf, err := elem.Dump(v, make([]byte, 0, 16))
			if err != nil {
				return nil, err
			}
			if elemBuf == nil {
				buf = append(buf, "NULL"...)
			} else {
				buf = appendQuotedArrayElement(buf, elemBuf, delim)
			}
		}
	}
	return append(buf, '}'), nil
}

func appendQuotedArrayElement(buf, elem []byte, delim byte) []byte {
	if !arrayElementNeedsQuotes(elem, delim) {
		return append(buf, elem...)
	}

	buf = append(buf, '"')
	for _, c := range elem {
		if c == '"' || c == '\\' {
			buf = append(buf, '\\')
		}
		buf = append(buf, c)
	}
	return append(buf, '"')
}

func arrayElementNeedsQuotes(elem []byte, delim byte) bool {
	if len(elem) == 0 {
		return true
	}
	if strings.EqualFold(string(elem), "NULL") {
		return true
	}
	for _, c := range elem {
		switch c {
		case delim, '{', '}', '"', '\\', ' ', '\t', '\n', '\r':
			return true
		}
	}
	return false
}
