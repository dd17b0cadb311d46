package almconv

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/dyuri/almconv/internal/engine"
	"github.com/dyuri/almconv/internal/layout"
	"github.com/dyuri/almconv/internal/model"
)

func newMap() *model.Map {
	m := model.NewMap()
	m.Info = model.Info{Width: 2, Height: 1, MapName: "Tiny", AuthorName: "almconv"}
	m.Tiles = []model.Hex16{0x0101, 0x0202}
	m.Heights = []uint8{0, 200}
	m.Objects = []uint8{0, 3}
	m.Players = []model.Player{{Color: 1, Name: "Red", Diplomacy: make([]model.Hex16, 16)}}
	m.Units = []model.Unit{{X: 1, Y: 0, ServerID: 200, PlayerID: 1, HP: 10, MaxHP: 10, Flags: 0x40}}
	m.Effects = []model.Effect{{SpellTypeID: 1, Modifiers: []model.EffectModifier{{X: 1}, {Y: 2}}}}
	m.Music = []model.Music{{MelodyTypeID: []uint32{1, 0, 0, 0}}}
	return m
}

func TestEncodeDecode(t *testing.T) {
	m := newMap()
	data, err := EncodeMap(m, WithLogger(discardLogger))
	if err != nil {
		t.Fatalf("EncodeMap failed: %v", err)
	}

	got, err := DecodeMap(data, WithLogger(discardLogger))
	if err != nil {
		t.Fatalf("DecodeMap failed: %v", err)
	}
	if got.Info.MapName != "Tiny" || got.Info.NumUnits != 1 {
		t.Errorf("Info = %+v", got.Info)
	}
	if !reflect.DeepEqual(got.Units, m.Units) {
		t.Errorf("Units differ\ngot:\n%s\nwant:\n%s", spew.Sdump(got.Units), spew.Sdump(m.Units))
	}

	again, err := EncodeMap(got)
	if err != nil {
		t.Fatalf("EncodeMap of decoded map failed: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Error("re-encoded map differs")
	}
}

func TestDecodeMapFileNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.alm")
	if err := os.WriteFile(path, []byte("NOTAMAP-------------"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := DecodeMapFile(path)
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("error = %v, want bad signature", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name %s", err, path)
	}
	var e *Error
	if !errors.As(err, &e) || e.Offset != 0 {
		t.Errorf("error location = %+v, want offset 0", e)
	}
}

func TestWriteMapFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.alm")

	if err := WriteMapFile(path, newMap()); err != nil {
		t.Fatalf("WriteMapFile failed: %v", err)
	}
	m, err := DecodeMapFile(path)
	if err != nil {
		t.Fatalf("DecodeMapFile failed: %v", err)
	}
	if len(m.Music) != 1 {
		t.Errorf("Got %d music records, want 1", len(m.Music))
	}

	bad := newMap()
	bad.Effects[0].Modifiers = bad.Effects[0].Modifiers[:1]
	badPath := filepath.Join(dir, "bad.alm")
	err = WriteMapFile(badPath, bad)
	if !errors.Is(err, ErrModifierCount) {
		t.Fatalf("error = %v, want modifier count", err)
	}
	if _, statErr := os.Stat(badPath); !os.IsNotExist(statErr) {
		t.Errorf("failed write left %s behind", badPath)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	data, err := EncodeMap(newMap())
	if err != nil {
		t.Fatalf("EncodeMap failed: %v", err)
	}
	m, err := DecodeMap(data)
	if err != nil {
		t.Fatalf("DecodeMap failed: %v", err)
	}

	var buf bytes.Buffer
	if err := ExportJSON(&buf, m); err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}
	doc := buf.String()
	for _, want := range []string{`"format": "almconv/map/v1"`, `"heights": [`, `"0x101"`, `"map_name": "Tiny"`} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %s", want)
		}
	}

	back, err := ImportJSON(&buf)
	if err != nil {
		t.Fatalf("ImportJSON failed: %v", err)
	}
	if !reflect.DeepEqual(back.Heights, m.Heights) {
		t.Errorf("Heights = %v, want %v", back.Heights, m.Heights)
	}

	again, err := EncodeMap(back)
	if err != nil {
		t.Fatalf("EncodeMap of imported map failed: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Error("map changed through JSON")
	}
}

func TestImportJSONRejectsUnknownFormat(t *testing.T) {
	_, err := ImportJSON(strings.NewReader(`{"format": "something/else", "info": {}}`))
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	_, err = ImportJSON(strings.NewReader(`{"format": "almconv/map/v1", "heights": [300]}`))
	if err == nil {
		t.Fatal("expected error for out-of-range height")
	}
}

func TestValidate(t *testing.T) {
	if issues := Validate(newMap()); len(issues) != 0 {
		t.Errorf("clean map reported %v", issues)
	}

	m := newMap()
	m.Buildings = []model.Building{{TypeID: model.BridgeFlag}}
	m.Effects[0].Modifiers = nil
	m.Effects = append(m.Effects, model.Effect{Modifiers: make([]model.EffectModifier, 3)})
	m.Instances = []model.Instance{
		{Index: 1, ArgValues: make([]uint32, 10), ArgTypes: make([]uint32, 10), ArgNames: make([]string, 10)},
		{Index: 1, ArgValues: make([]uint32, 10), ArgTypes: make([]uint32, 10), ArgNames: make([]string, 10)},
	}
	m.Music = nil
	m.Heights = m.Heights[:1]

	var errorsFound, warnings []string
	for _, v := range Validate(m) {
		if v.Level == "error" {
			errorsFound = append(errorsFound, v.Field)
		} else {
			warnings = append(warnings, v.Field)
		}
	}
	wantErrors := []string{"buildings[0].bridge", "instances[1].index", "effects[1].modifiers", "music"}
	if !reflect.DeepEqual(errorsFound, wantErrors) {
		t.Errorf("errors = %v, want %v", errorsFound, wantErrors)
	}
	if !reflect.DeepEqual(warnings, []string{"heights"}) {
		t.Errorf("warnings = %v, want [heights]", warnings)
	}
}

func writeEngineFile(t *testing.T, dir, rel string, data []byte) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func kindRecord(t *testing.T, l *layout.Layout, kingdom, serverID uint32) []byte {
	t.Helper()
	r := l.NewRecord()
	r.SetUint("kingdom", kingdom)
	r.SetUint("server_id", serverID)
	b, err := l.Encode(r)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func varString(s string) []byte {
	return append([]byte{byte(len(s))}, s...)
}

func TestLoadEngineData(t *testing.T) {
	var databin bytes.Buffer
	databin.WriteByte(0)
	databin.Write(varString("Catapult"))
	databin.Write(kindRecord(t, engine.MonsterLayout, model.KingdomMonster, 100))
	databin.WriteByte(0)
	databin.Write(varString("Human"))
	databin.Write(kindRecord(t, engine.MonsterLayout, model.KingdomMonster, 101))
	databin.Write(varString("Man_Unarmed"))
	databin.Write(kindRecord(t, engine.HumanLayout, model.KingdomHuman, 200))
	databin.Write(varString("Club"))
	databin.WriteByte(0)

	dir := t.TempDir()
	writeEngineFile(t, dir, engine.ItemIDsPath, []byte{0x01, 0x0E})
	writeEngineFile(t, dir, engine.ItemNamesPath, []byte("Club\r\n"))
	writeEngineFile(t, dir, engine.SpellNamesPath, []byte("Fire Arrow\r\n"))
	writeEngineFile(t, dir, engine.UnitKindsPath, databin.Bytes())

	data, err := LoadEngineData(dir, WithLogger(discardLogger))
	if err != nil {
		t.Fatalf("LoadEngineData failed: %v", err)
	}
	if got := data.UnitName(200); got != "Man_Unarmed" {
		t.Errorf("UnitName(200) = %q, want Man_Unarmed", got)
	}
	if got := data.ItemName(0x0E01); got != "Club" {
		t.Errorf("ItemName(0xE01) = %q, want Club", got)
	}
	if got := data.SpellName(1); got != "Fire Arrow" {
		t.Errorf("SpellName(1) = %q, want Fire Arrow", got)
	}

	writeEngineFile(t, dir, engine.ItemNamesPath, []byte("Club\r\nAxe\r\n"))
	_, err = LoadEngineData(dir, WithLogger(discardLogger))
	if !errors.Is(err, ErrCountMismatch) {
		t.Errorf("error = %v, want count mismatch", err)
	}
	if err != nil && !strings.Contains(err.Error(), dir) {
		t.Errorf("error %q does not name %s", err, dir)
	}
}
