package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON renders the record as an object in field order. Hex fields are
// written as "0x..." strings; absent fields are skipped.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.layout == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for i, f := range r.layout.fields {
		if f.Type.Kind == KindAbsent {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		key, _ := json.Marshal(f.Name)
		buf.Write(key)
		buf.WriteByte(':')

		val, err := marshalValue(f.Type, r.values[i])
		if err != nil {
			return nil, fmt.Errorf("marshal %s.%s: %w", r.layout.name, f.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(t Type, v any) ([]byte, error) {
	switch t.Kind {
	case KindHex16:
		u, _ := v.(uint32)
		return json.Marshal(fmt.Sprintf("0x%04X", u))
	case KindHex32:
		u, _ := v.(uint32)
		return json.Marshal(fmt.Sprintf("0x%08X", u))
	case KindArray:
		vs, _ := v.([]any)
		out := make([]json.RawMessage, len(vs))
		for i, e := range vs {
			raw, err := marshalValue(*t.Elem, e)
			if err != nil {
				return nil, err
			}
			out[i] = raw
		}
		return json.Marshal(out)
	default:
		return json.Marshal(v)
	}
}
