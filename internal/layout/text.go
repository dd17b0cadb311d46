package layout

import (
	"bytes"
	"strings"

	"github.com/dyuri/almconv/internal/errs"
	"golang.org/x/text/encoding/charmap"
)

// Codepage is the single-byte encoding of every text field in the game data.
var Codepage = charmap.Windows1251

// DecodeText decodes b, cutting it at the first NUL.
func DecodeText(b []byte) (string, error) {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	decoded, err := Codepage.NewDecoder().Bytes(b)
	if err != nil {
		return "", errs.New(errs.MalformedString, "decode text").Wrap(err)
	}
	return string(decoded), nil
}

// EncodeText encodes s in the codepage.
func EncodeText(s string) ([]byte, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return nil, errs.New(errs.ShapeMismatch, "text %q contains NUL", s)
	}
	encoded, err := Codepage.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errs.New(errs.Unencodable, "encode text %q", s).Wrap(err)
	}
	return encoded, nil
}
