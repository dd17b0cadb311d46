package layout

import (
	"fmt"

	"github.com/dyuri/almconv/internal/errs"
)

// Record is one instance of a Layout. Values are held in declaration order:
//
//	integer kinds  uint32
//	FixedBytes     []byte
//	FixedText      string
//	FixedArray     []any of the element representation
//	Nested         Record
//	Absent         nil
type Record struct {
	layout *Layout
	values []any
}

// NewRecord returns a record of l with every field at its zero value.
func (l *Layout) NewRecord() Record {
	r := Record{layout: l, values: make([]any, len(l.fields))}
	for i, f := range l.fields {
		r.values[i] = zeroValue(f.Type)
	}
	return r
}

func zeroValue(t Type) any {
	switch t.Kind {
	case KindU8, KindU16, KindU32, KindHex16, KindHex32:
		return uint32(0)
	case KindBytes:
		return []byte{}
	case KindText:
		return ""
	case KindArray:
		vs := make([]any, t.N)
		for i := range vs {
			vs[i] = zeroValue(*t.Elem)
		}
		return vs
	case KindNested:
		return t.Sub.NewRecord()
	default:
		return nil
	}
}

// Layout returns the record's layout.
func (r Record) Layout() *Layout { return r.layout }

// Get returns the raw value of a field and whether the field exists.
func (r Record) Get(name string) (any, bool) {
	if r.layout == nil {
		return nil, false
	}
	i, ok := r.layout.index[name]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Set stores a raw value. Shape is checked on Encode, not here.
func (r Record) Set(name string, v any) error {
	if r.layout == nil {
		return fmt.Errorf("set %s: record has no layout", name)
	}
	i, ok := r.layout.index[name]
	if !ok {
		return fmt.Errorf("set %s: no such field in %s", name, r.layout.name)
	}
	r.values[i] = v
	return nil
}

// Uint returns an integer field, or 0 when absent or of another kind.
func (r Record) Uint(name string) uint32 {
	v, _ := r.Get(name)
	u, _ := v.(uint32)
	return u
}

// Text returns a text field.
func (r Record) Text(name string) string {
	v, _ := r.Get(name)
	s, _ := v.(string)
	return s
}

// Bytes returns a byte-buffer field.
func (r Record) Bytes(name string) []byte {
	v, _ := r.Get(name)
	b, _ := v.([]byte)
	return b
}

// Uints returns an integer array field.
func (r Record) Uints(name string) []uint32 {
	v, _ := r.Get(name)
	vs, _ := v.([]any)
	out := make([]uint32, len(vs))
	for i, e := range vs {
		out[i], _ = e.(uint32)
	}
	return out
}

// Texts returns a text array field.
func (r Record) Texts(name string) []string {
	v, _ := r.Get(name)
	vs, _ := v.([]any)
	out := make([]string, len(vs))
	for i, e := range vs {
		out[i], _ = e.(string)
	}
	return out
}

// Nested returns a nested record field.
func (r Record) Nested(name string) Record {
	v, _ := r.Get(name)
	n, _ := v.(Record)
	return n
}

// SetUint stores an integer field. Unknown names panic: callers set fields
// of layouts they declared themselves.
func (r Record) SetUint(name string, v uint32) {
	r.mustSet(name, v)
}

// SetText stores a text field.
func (r Record) SetText(name, s string) {
	r.mustSet(name, s)
}

// SetBytes stores a byte-buffer field.
func (r Record) SetBytes(name string, b []byte) {
	r.mustSet(name, b)
}

// SetUints stores an integer array field.
func (r Record) SetUints(name string, vs []uint32) {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	r.mustSet(name, out)
}

// SetTexts stores a text array field.
func (r Record) SetTexts(name string, ss []string) {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	r.mustSet(name, out)
}

func (r Record) mustSet(name string, v any) {
	if err := r.Set(name, v); err != nil {
		panic(err)
	}
}

// Equal reports whether two records share a layout and hold equal values.
func (r Record) Equal(o Record) bool {
	if r.layout != o.layout || len(r.values) != len(o.values) {
		return false
	}
	for i := range r.values {
		if !valueEqual(r.values[i], o.values[i]) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	switch av := a.(type) {
	case []byte:
		bv, ok := b.([]byte)
		return ok && string(av) == string(bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Record:
		bv, ok := b.(Record)
		return ok && av.Equal(bv)
	default:
		return a == b
	}
}

func shapeErr(field string, format string, args ...any) error {
	return errs.New(errs.ShapeMismatch, "field %s: %s", field, fmt.Sprintf(format, args...))
}
