package almconv

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dyuri/almconv/internal/model"
)

// FormatTag identifies the JSON map document layout.
const FormatTag = "almconv/map/v1"

// document is the JSON form of a map. Heights and objects are shadowed so
// they serialize as number arrays rather than base64.
type document struct {
	Format string `json:"format"`
	*model.Map
	Heights []uint16 `json:"heights"`
	Objects []uint16 `json:"objects"`
}

// ExportJSON writes m as an indented JSON document.
func ExportJSON(w io.Writer, m *model.Map) error {
	doc := document{
		Format:  FormatTag,
		Map:     m,
		Heights: widen(m.Heights),
		Objects: widen(m.Objects),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// ImportJSON reads a document written by ExportJSON.
func ImportJSON(r io.Reader) (*model.Map, error) {
	doc := document{Map: model.NewMap()}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if doc.Format != FormatTag {
		return nil, fmt.Errorf("unsupported document format %q, want %q", doc.Format, FormatTag)
	}

	m := doc.Map
	var err error
	if m.Heights, err = narrow("heights", doc.Heights); err != nil {
		return nil, err
	}
	if m.Objects, err = narrow("objects", doc.Objects); err != nil {
		return nil, err
	}
	return m, nil
}

func widen(b []uint8) []uint16 {
	if b == nil {
		return nil
	}
	out := make([]uint16, len(b))
	for i, v := range b {
		out[i] = uint16(v)
	}
	return out
}

func narrow(field string, vs []uint16) ([]uint8, error) {
	if vs == nil {
		return nil, nil
	}
	out := make([]uint8, len(vs))
	for i, v := range vs {
		if v > 0xFF {
			return nil, fmt.Errorf("%s[%d] = %d does not fit a byte", field, i, v)
		}
		out[i] = uint8(v)
	}
	return out, nil
}
