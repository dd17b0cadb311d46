package layout

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/dyuri/almconv/internal/errs"
)

var pointLayout = New("Point",
	F("x", U32()),
	F("y", U32()),
).WithCoordinates("x", "y")

var sampleLayout = New("Sample",
	F("a", U8()),
	F("b", U16()),
	F("c", U32()),
	F("flags", Hex32()),
	F("tile", Hex16()),
	F("raw", FixedBytes(3)),
	F("name", FixedText(8)),
	F("ids", FixedArray(U16(), 3)),
	F("labels", FixedArray(FixedText(4), 2)),
	F("at", Nested(pointLayout)),
	F("children", Absent()),
)

func TestSize(t *testing.T) {
	tests := []struct {
		layout *Layout
		want   int
	}{
		{pointLayout, 8},
		{sampleLayout, 1 + 2 + 4 + 4 + 2 + 3 + 8 + 6 + 8 + 8},
		{New("Empty"), 0},
		{New("OnlyAbsent", F("kids", Absent())), 0},
	}
	for _, tt := range tests {
		if got := tt.layout.Size(); got != tt.want {
			t.Errorf("%s.Size() = %d, want %d", tt.layout.Name(), got, tt.want)
		}
	}

	if off, ok := sampleLayout.Offset("name"); !ok || off != 16 {
		t.Errorf("Offset(name) = %d, %v, want 16, true", off, ok)
	}
	if _, ok := sampleLayout.Offset("missing"); ok {
		t.Error("Offset(missing) reported a field")
	}
}

func TestDuplicateFieldPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for duplicate field")
		}
	}()
	New("Dup", F("a", U8()), F("a", U16()))
}

func sampleRecord() Record {
	r := sampleLayout.NewRecord()
	r.SetUint("a", 0xAB)
	r.SetUint("b", 0x1234)
	r.SetUint("c", 0xDEADBEEF)
	r.SetUint("flags", 0x80000001)
	r.SetUint("tile", 0x0102)
	r.SetBytes("raw", []byte{1, 2, 3})
	r.SetText("name", "Орк")
	r.SetUints("ids", []uint32{7, 8, 9})
	r.SetTexts("labels", []string{"ab", "cdef"})
	p := pointLayout.NewRecord()
	p.SetUint("x", 3)
	p.SetUint("y", 5)
	if err := r.Set("at", p); err != nil {
		panic(err)
	}
	return r
}

func TestRecordRoundTrip(t *testing.T) {
	r := sampleRecord()
	data, err := sampleLayout.Encode(r)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(data) != sampleLayout.Size() {
		t.Fatalf("encoded %d bytes, want %d", len(data), sampleLayout.Size())
	}

	if data[0] != 0xAB {
		t.Errorf("a = 0x%X, want 0xAB", data[0])
	}
	if v := binary.LittleEndian.Uint16(data[1:]); v != 0x1234 {
		t.Errorf("b = 0x%X, want 0x1234", v)
	}
	// Nested point sits at the tail; both coordinates are transformed
	at, _ := sampleLayout.Offset("at")
	if v := binary.LittleEndian.Uint32(data[at:]); v != 3*256+128 {
		t.Errorf("at.x raw = %d, want %d", v, 3*256+128)
	}

	got, err := sampleLayout.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !got.Equal(r) {
		t.Errorf("decoded record differs\ngot:\n%s\nwant:\n%s", spew.Sdump(got), spew.Sdump(r))
	}
	if got.Text("name") != "Орк" {
		t.Errorf("name = %q, want %q", got.Text("name"), "Орк")
	}
	if x := got.Nested("at").Uint("x"); x != 3 {
		t.Errorf("at.x = %d, want 3", x)
	}
	if v, ok := got.Get("children"); !ok || v != nil {
		t.Errorf("children = %v, %v, want nil, true", v, ok)
	}
}

func TestDecodeTruncated(t *testing.T) {
	_, err := pointLayout.Decode(make([]byte, 7))
	if !errors.Is(err, errs.ErrTruncated) {
		t.Errorf("error = %v, want truncated", err)
	}
}

// TestHexIsPlainInt checks hex tags share the wire form of plain integers
func TestHexIsPlainInt(t *testing.T) {
	plain := New("Plain", F("v", U32()), F("w", U16()))
	hex := New("Hex", F("v", Hex32()), F("w", Hex16()))

	p := plain.NewRecord()
	p.SetUint("v", 0xCAFEBABE)
	p.SetUint("w", 0xBEEF)
	h := hex.NewRecord()
	h.SetUint("v", 0xCAFEBABE)
	h.SetUint("w", 0xBEEF)

	pb, err := plain.Encode(p)
	if err != nil {
		t.Fatalf("Encode plain failed: %v", err)
	}
	hb, err := hex.Encode(h)
	if err != nil {
		t.Fatalf("Encode hex failed: %v", err)
	}
	if !bytes.Equal(pb, hb) {
		t.Errorf("hex encoding %x differs from plain %x", hb, pb)
	}

	got, err := hex.Decode(pb)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Uint("v") != 0xCAFEBABE || got.Uint("w") != 0xBEEF {
		t.Errorf("decoded v=0x%X w=0x%X", got.Uint("v"), got.Uint("w"))
	}
	if !hex.Fields()[0].Type.IsHex() || plain.Fields()[0].Type.IsHex() {
		t.Error("IsHex mismatch")
	}
}

func TestFixedTextRoundTrip(t *testing.T) {
	l := New("Text", F("s", FixedText(16)))
	for _, s := range []string{"", "a", "Hello, world", "Привет", "exactly 15 char"} {
		r := l.NewRecord()
		r.SetText("s", s)
		data, err := l.Encode(r)
		if err != nil {
			t.Fatalf("Encode(%q) failed: %v", s, err)
		}
		got, err := l.Decode(data)
		if err != nil {
			t.Fatalf("Decode(%q) failed: %v", s, err)
		}
		if got.Text("s") != s {
			t.Errorf("round trip = %q, want %q", got.Text("s"), s)
		}
	}
}

func TestFixedTextCutsAtNUL(t *testing.T) {
	l := New("Text", F("s", FixedText(8)))
	got, err := l.Decode([]byte{'a', 'b', 0, 'c', 'd', 0, 0, 0})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Text("s") != "ab" {
		t.Errorf("text = %q, want %q", got.Text("s"), "ab")
	}
}

func TestShapeMismatch(t *testing.T) {
	l := New("Shape",
		F("small", U8()),
		F("ids", FixedArray(U32(), 4)),
		F("name", FixedText(4)),
	)

	tests := []struct {
		name string
		set  func(Record)
		code errs.Code
	}{
		{"array short", func(r Record) { r.SetUints("ids", []uint32{1, 2, 3}) }, errs.ShapeMismatch},
		{"array long", func(r Record) { r.SetUints("ids", []uint32{1, 2, 3, 4, 5}) }, errs.ShapeMismatch},
		{"text too long", func(r Record) { r.SetText("name", "abcde") }, errs.ShapeMismatch},
		{"text with NUL", func(r Record) { r.SetText("name", "a\x00b") }, errs.ShapeMismatch},
		{"u8 overflow", func(r Record) { r.SetUint("small", 256) }, errs.ShapeMismatch},
		{"not in codepage", func(r Record) { r.SetText("name", "日本") }, errs.Unencodable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := l.NewRecord()
			tt.set(r)
			_, err := l.Encode(r)
			if got := errs.CodeOf(err); got != tt.code {
				t.Errorf("code = %q, want %q (%v)", got, tt.code, err)
			}
		})
	}

	// Exact width is accepted
	r := l.NewRecord()
	r.SetText("name", "abcd")
	r.SetUints("ids", []uint32{1, 2, 3, 4})
	if _, err := l.Encode(r); err != nil {
		t.Errorf("Encode at exact width failed: %v", err)
	}
}

func TestEncodeWrongLayout(t *testing.T) {
	_, err := sampleLayout.Encode(pointLayout.NewRecord())
	if !errors.Is(err, errs.ErrShapeMismatch) {
		t.Errorf("error = %v, want shape mismatch", err)
	}
}

func TestSetUnknownField(t *testing.T) {
	r := pointLayout.NewRecord()
	if err := r.Set("z", uint32(1)); err == nil {
		t.Error("Set(z) succeeded on a layout without z")
	}
}

func TestCoordinateInverse(t *testing.T) {
	for _, v := range []uint32{0, 1, 2, 127, 255, 256, 1000, 65535, 16777214} {
		raw, err := EncodeCoord(v)
		if err != nil {
			t.Fatalf("EncodeCoord(%d) failed: %v", v, err)
		}
		if raw%256 != 128 {
			t.Errorf("EncodeCoord(%d) = %d, not a cell centre", v, raw)
		}
		got, err := DecodeCoord(raw)
		if err != nil {
			t.Fatalf("DecodeCoord(%d) failed: %v", raw, err)
		}
		if got != v {
			t.Errorf("DecodeCoord(EncodeCoord(%d)) = %d", v, got)
		}
	}
}

func TestMalformedCoordinate(t *testing.T) {
	for _, raw := range []uint32{0, 5, 127, 129, 256, 383} {
		if _, err := DecodeCoord(raw); errs.CodeOf(err) != errs.MalformedCoordinate {
			t.Errorf("DecodeCoord(%d) error = %v, want malformed coordinate", raw, err)
		}
	}
	if _, err := EncodeCoord(1 << 24); errs.CodeOf(err) != errs.MalformedCoordinate {
		t.Errorf("EncodeCoord(1<<24) error = %v, want malformed coordinate", err)
	}
}

func TestMarshalJSON(t *testing.T) {
	data, err := sampleRecord().MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	s := string(data)

	for _, want := range []string{
		`"a":171`,
		`"flags":"0x80000001"`,
		`"tile":"0x0102"`,
		`"ids":[7,8,9]`,
		`"labels":["ab","cdef"]`,
		`"at":{"x":3,"y":5}`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON %s missing %s", s, want)
		}
	}
	if strings.Contains(s, "children") {
		t.Errorf("JSON %s contains absent field", s)
	}
	if strings.Index(s, `"a"`) > strings.Index(s, `"b"`) {
		t.Errorf("JSON %s not in field order", s)
	}
}
