package layout

import (
	"encoding/binary"
	"fmt"

	"github.com/dyuri/almconv/internal/errs"
)

var endian = binary.LittleEndian

// Decode reads one record from the start of data, consuming exactly
// l.Size() bytes.
func (l *Layout) Decode(data []byte) (Record, error) {
	if len(data) < l.size {
		return Record{}, errs.New(errs.Truncated, "%s needs %d bytes, have %d", l.name, l.size, len(data))
	}

	r := Record{layout: l, values: make([]any, len(l.fields))}
	for i, f := range l.fields {
		off := l.offsets[i]
		v, err := decodeValue(f.Type, data[off:off+f.Type.Size()])
		if err != nil {
			return Record{}, fmt.Errorf("decode %s.%s: %w", l.name, f.Name, err)
		}
		if l.isCoord(i) {
			c, err := DecodeCoord(v.(uint32))
			if err != nil {
				return Record{}, fmt.Errorf("decode %s.%s: %w", l.name, f.Name, err)
			}
			v = c
		}
		r.values[i] = v
	}
	return r, nil
}

func decodeValue(t Type, b []byte) (any, error) {
	switch t.Kind {
	case KindU8:
		return uint32(b[0]), nil
	case KindU16, KindHex16:
		return uint32(endian.Uint16(b)), nil
	case KindU32, KindHex32:
		return endian.Uint32(b), nil
	case KindBytes:
		return append([]byte(nil), b...), nil
	case KindText:
		return DecodeText(b)
	case KindArray:
		step := t.Elem.Size()
		vs := make([]any, t.N)
		for i := range vs {
			v, err := decodeValue(*t.Elem, b[i*step:(i+1)*step])
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			vs[i] = v
		}
		return vs, nil
	case KindNested:
		return t.Sub.Decode(b)
	default:
		return nil, nil
	}
}

// Encode writes r as exactly l.Size() bytes.
func (l *Layout) Encode(r Record) ([]byte, error) {
	return l.AppendEncode(make([]byte, 0, l.size), r)
}

// AppendEncode appends the encoding of r to dst.
func (l *Layout) AppendEncode(dst []byte, r Record) ([]byte, error) {
	if r.layout != l {
		return nil, errs.New(errs.ShapeMismatch, "record of %s encoded as %s", layoutName(r.layout), l.name)
	}

	start := len(dst)
	dst = append(dst, make([]byte, l.size)...)
	buf := dst[start:]

	for i, f := range l.fields {
		v := r.values[i]
		if l.isCoord(i) {
			u, ok := v.(uint32)
			if !ok {
				return nil, shapeErr(f.Name, "want uint32, got %T", v)
			}
			c, err := EncodeCoord(u)
			if err != nil {
				return nil, fmt.Errorf("encode %s.%s: %w", l.name, f.Name, err)
			}
			v = c
		}
		off := l.offsets[i]
		if err := encodeValue(f.Name, f.Type, v, buf[off:off+f.Type.Size()]); err != nil {
			return nil, fmt.Errorf("encode %s.%s: %w", l.name, f.Name, err)
		}
	}
	return dst, nil
}

func encodeValue(name string, t Type, v any, b []byte) error {
	switch t.Kind {
	case KindU8, KindU16, KindHex16, KindU32, KindHex32:
		u, ok := v.(uint32)
		if !ok {
			return shapeErr(name, "want uint32, got %T", v)
		}
		switch t.Size() {
		case 1:
			if u > 0xFF {
				return shapeErr(name, "%d overflows %s", u, t.Kind)
			}
			b[0] = byte(u)
		case 2:
			if u > 0xFFFF {
				return shapeErr(name, "%d overflows %s", u, t.Kind)
			}
			endian.PutUint16(b, uint16(u))
		default:
			endian.PutUint32(b, u)
		}
	case KindBytes:
		raw, ok := v.([]byte)
		if !ok {
			return shapeErr(name, "want []byte, got %T", v)
		}
		if len(raw) > t.N {
			return shapeErr(name, "%d bytes exceed width %d", len(raw), t.N)
		}
		copy(b, raw)
	case KindText:
		s, ok := v.(string)
		if !ok {
			return shapeErr(name, "want string, got %T", v)
		}
		raw, err := EncodeText(s)
		if err != nil {
			return err
		}
		if len(raw) > t.N {
			return shapeErr(name, "text %q is %d bytes, width %d", s, len(raw), t.N)
		}
		copy(b, raw)
	case KindArray:
		vs, ok := v.([]any)
		if !ok {
			return shapeErr(name, "want array, got %T", v)
		}
		if len(vs) != t.N {
			return shapeErr(name, "array has %d elements, want %d", len(vs), t.N)
		}
		step := t.Elem.Size()
		for i, e := range vs {
			if err := encodeValue(fmt.Sprintf("%s[%d]", name, i), *t.Elem, e, b[i*step:(i+1)*step]); err != nil {
				return err
			}
		}
	case KindNested:
		sub, ok := v.(Record)
		if !ok {
			return shapeErr(name, "want record, got %T", v)
		}
		if _, err := t.Sub.AppendEncode(b[:0], sub); err != nil {
			return err
		}
	}
	return nil
}

func layoutName(l *Layout) string {
	if l == nil {
		return "<nil>"
	}
	return l.name
}
