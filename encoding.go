package pqstep

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// clientEncodings maps PostgreSQL client_encoding names to their
// character maps. A nil value means the bytes are passed through
// unchanged (UTF8 and SQL_ASCII).
var clientEncodings = map[string]encoding.Encoding{
	"UTF8":      nil,
	"SQL_ASCII": nil,
	"LATIN1":    charmap.ISO8859_1,
	"LATIN2":    charmap.ISO8859_2,
	"LATIN3":    charmap.ISO8859_3,
	"LATIN4":    charmap.ISO8859_4,
	"LATIN5":    charmap.ISO8859_9,
	"LATIN9":    charmap.ISO8859_15,
	"ISO88595":  charmap.ISO8859_5,
	"ISO88596":  charmap.ISO8859_6,
	"ISO88597":  charmap.ISO8859_7,
	"ISO88598":  charmap.ISO8859_8,
	"KOI8R":     charmap.KOI8R,
	"KOI8U":     charmap.KOI8U,
	"WIN866":    charmap.CodePage866,
	"WIN1250":   charmap.Windows1250,
	"WIN1251":   charmap.Windows1251,
	"WIN1252":   charmap.Windows1252,
	"WIN1253":   charmap.Windows1253,
	"WIN1254":   charmap.Windows1254,
	"WIN1255":   charmap.Windows1255,
	"WIN1256":   charmap.Windows1256,
	"WIN1257":   charmap.Windows1257,
	"WIN1258":   charmap.Windows1258,
}

// encodingByName resolves a client_encoding name, tolerating the usual
// spelling variations (utf-8, iso_8859_5, ...).
func encodingByName(name string) (encoding.Encoding, error) {
	normalized := strings.ToUpper(name)
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, "_", "")
	if normalized == "UNICODE" {
		normalized = "UTF8"
	}

	enc, ok := clientEncodings[normalized]
	if !ok {
		return nil, fmt.Errorf("unknown client encoding %q", name)
	}
	return enc, nil
}
