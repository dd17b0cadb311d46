// Package layout describes fixed-size binary records as ordered tables of
// named, typed fields and provides the generic codec that walks them.
//
// A Layout is built once as package-level data and never changes. Decode and
// Encode know nothing about individual record types; everything they do is
// driven by the field table:
//
//	var groupLayout = layout.New("Group",
//	    layout.F("group_id", layout.U32()),
//	    layout.F("repop_time", layout.U32()),
//	    layout.F("flags", layout.Hex32()),
//	    layout.F("instance_id", layout.U32()),
//	)
package layout

import "fmt"

// Kind is the semantic type tag of a field.
type Kind uint8

const (
	KindU8 Kind = iota
	KindU16
	KindU32
	KindHex16
	KindHex32
	KindBytes
	KindText
	KindArray
	KindNested
	KindAbsent
)

var kindNames = [...]string{
	KindU8:     "u8",
	KindU16:    "u16",
	KindU32:    "u32",
	KindHex16:  "hex16",
	KindHex32:  "hex32",
	KindBytes:  "bytes",
	KindText:   "text",
	KindArray:  "array",
	KindNested: "nested",
	KindAbsent: "absent",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Type is a field type: a kind plus its parameters.
type Type struct {
	Kind Kind
	N    int     // buffer width for bytes/text, element count for arrays
	Elem *Type   // array element type
	Sub  *Layout // nested layout
}

func U8() Type    { return Type{Kind: KindU8} }
func U16() Type   { return Type{Kind: KindU16} }
func U32() Type   { return Type{Kind: KindU32} }
func Hex16() Type { return Type{Kind: KindHex16} }
func Hex32() Type { return Type{Kind: KindHex32} }

// FixedBytes is a raw n-byte buffer, NUL-padded on encode.
func FixedBytes(n int) Type { return Type{Kind: KindBytes, N: n} }

// FixedText is an n-byte Windows-1251 string, NUL-padded on encode and cut at
// the first NUL on decode.
func FixedText(n int) Type { return Type{Kind: KindText, N: n} }

// FixedArray is exactly n consecutive elements of elem.
func FixedArray(elem Type, n int) Type {
	e := elem
	return Type{Kind: KindArray, N: n, Elem: &e}
}

// Nested embeds another layout inline.
func Nested(sub *Layout) Type { return Type{Kind: KindNested, Sub: sub} }

// Absent occupies no bytes; the field is filled in after decode (variable
// children, names read from outside the record).
func Absent() Type { return Type{Kind: KindAbsent} }

// Size returns the encoded width of t in bytes.
func (t Type) Size() int {
	switch t.Kind {
	case KindU8:
		return 1
	case KindU16, KindHex16:
		return 2
	case KindU32, KindHex32:
		return 4
	case KindBytes, KindText:
		return t.N
	case KindArray:
		return t.N * t.Elem.Size()
	case KindNested:
		return t.Sub.Size()
	default:
		return 0
	}
}

// IsHex reports whether values of t should be rendered in hexadecimal.
func (t Type) IsHex() bool {
	return t.Kind == KindHex16 || t.Kind == KindHex32
}

func (t Type) isInt() bool {
	switch t.Kind {
	case KindU8, KindU16, KindU32, KindHex16, KindHex32:
		return true
	}
	return false
}

func (t Type) String() string {
	switch t.Kind {
	case KindBytes, KindText:
		return fmt.Sprintf("%s(%d)", t.Kind, t.N)
	case KindArray:
		return fmt.Sprintf("[%d]%s", t.N, t.Elem)
	case KindNested:
		return t.Sub.Name()
	default:
		return t.Kind.String()
	}
}

// Field is one named entry of a layout.
type Field struct {
	Name string
	Type Type
}

// F is shorthand for a Field literal.
func F(name string, t Type) Field {
	return Field{Name: name, Type: t}
}

// Layout is an immutable ordered field table.
type Layout struct {
	name    string
	fields  []Field
	offsets []int
	index   map[string]int
	size    int
	coordX  int
	coordY  int
}

// New builds a layout. Field names must be unique; layouts are static tables
// so a duplicate is a programming error and panics.
func New(name string, fields ...Field) *Layout {
	l := &Layout{
		name:    name,
		fields:  append([]Field(nil), fields...),
		offsets: make([]int, len(fields)),
		index:   make(map[string]int, len(fields)),
		coordX:  -1,
		coordY:  -1,
	}
	for i, f := range l.fields {
		if _, dup := l.index[f.Name]; dup {
			panic(fmt.Sprintf("layout %s: duplicate field %q", name, f.Name))
		}
		l.index[f.Name] = i
		l.offsets[i] = l.size
		l.size += f.Type.Size()
	}
	return l
}

// WithCoordinates marks two integer fields as grid coordinates stored through
// the affine transform (see DecodeCoord). It returns l for chaining at
// declaration time.
func (l *Layout) WithCoordinates(x, y string) *Layout {
	xi, ok := l.index[x]
	if !ok || !l.fields[xi].Type.isInt() {
		panic(fmt.Sprintf("layout %s: %q is not an integer field", l.name, x))
	}
	yi, ok := l.index[y]
	if !ok || !l.fields[yi].Type.isInt() {
		panic(fmt.Sprintf("layout %s: %q is not an integer field", l.name, y))
	}
	l.coordX, l.coordY = xi, yi
	return l
}

// Name returns the record type name.
func (l *Layout) Name() string { return l.name }

// Size returns the encoded record width in bytes.
func (l *Layout) Size() int { return l.size }

// Fields returns the field table. The slice must not be modified.
func (l *Layout) Fields() []Field { return l.fields }

// Offset returns the byte offset of the named field within a record.
func (l *Layout) Offset(name string) (int, bool) {
	i, ok := l.index[name]
	if !ok {
		return 0, false
	}
	return l.offsets[i], true
}

// HasCoordinates reports whether x/y go through the coordinate transform.
func (l *Layout) HasCoordinates() bool { return l.coordX >= 0 }

func (l *Layout) isCoord(i int) bool {
	return i == l.coordX || i == l.coordY
}
